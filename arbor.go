package arbor

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

// Version is the library version reported by the CLI and server adapters.
const Version = "0.1.0"

// Engine is the high-level entry point for the Arbor library.
// It wraps the internal executor and provides a simplified API for consumers:
// build a graph, create an engine, run it.
type Engine struct {
	graph         *domain.Graph
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	maxIterations int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks invoked on run and node
// boundaries.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxIterations overrides the runaway-loop cap (default 1000 visits per
// run).
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		e.maxIterations = n
	}
}

// New initializes an Engine for the given graph. The graph is validated
// eagerly so misconfiguration surfaces at construction, not on first run.
func New(graph *domain.Graph, opts ...Option) (*Engine, error) {
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	eng := &Engine{
		graph:         graph,
		maxIterations: runtime.DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.Default()
	}
	eng.logger = eng.logger.With("graph", graph.Name)

	return eng, nil
}

// Run executes the graph from its entry point against the given initial
// state. Each call is an independent run with its own state copy; an Engine
// can be shared across goroutines.
//
// A non-nil Run is returned even when err is non-nil, carrying the failed
// run's log and last state for inspection.
func (e *Engine) Run(ctx context.Context, initial domain.State) (*domain.Run, error) {
	exec := runtime.NewExecutor(e.graph,
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithMaxIterations(e.maxIterations),
	)
	return exec.Execute(ctx, initial)
}

// Graph returns the graph this engine executes.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}
