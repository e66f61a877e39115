/*
Package observability exposes workflow execution metrics through the engine's
lifecycle hooks.

The executor itself knows nothing about Prometheus; it only emits node and
run events. Metrics attaches to those events, so any consumer can combine it
with its own hooks or drop it entirely.
*/
package observability
