/*
Package ports defines the narrow interfaces between the Arbor core and its
collaborators, following Hexagonal Architecture principles.

The core itself neither requires nor depends on persistence: graphs and runs
are plain in-memory values it produces and returns to the caller. The store
interfaces here exist for the surrounding service layer, which keeps lookup
tables of graphs and finished runs. Implementations live under pkg/adapters
and internal/adapters.
*/
package ports
