package runtime

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
)

// DefaultMaxIterations bounds the total number of executed steps in a run.
// It bounds steps, not wall-clock time: the engine imposes no per-node timeout.
const DefaultMaxIterations = 1000

// Executor drives a single graph: it validates the topology, then repeatedly
// executes the current node, merges its output into the run state, logs the
// step and resolves the next node until termination or the iteration cap.
//
// Execution is synchronous and single-path: at most one node executes per
// step, chosen deterministically from the current node's outgoing edges. An
// Executor is not reentrant mid-execution and holds at most one current run;
// callers needing run history must persist returned runs themselves.
type Executor struct {
	graph         *domain.Graph
	maxIterations int
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	run           *domain.Run
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxIterations overrides the default step cap.
func WithMaxIterations(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithLogger sets a structured logger for the executor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// NewExecutor creates an executor for the given graph.
func NewExecutor(graph *domain.Graph, opts ...Option) *Executor {
	e := &Executor{
		graph:         graph,
		maxIterations: DefaultMaxIterations,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the workflow from the entry point to completion, failure or
// the iteration cap.
//
// The run's bookkeeping (status, error, completed_at) is always finalized
// before an execution error is returned, so a caller receiving a non-nil
// error alongside a non-nil run can still inspect the partially-completed
// run and its logs. Graph-definition problems surface as *InvalidGraphError
// with no run created.
//
// ctx is handed to node transforms for their own use; the loop itself runs
// to completion, error or cap without suspension points.
func (e *Executor) Execute(ctx context.Context, initial domain.State) (*domain.Run, error) {
	if err := e.graph.Validate(); err != nil {
		return nil, err
	}

	run := domain.NewRun(e.graph, initial)
	e.run = run
	logger := e.logger.With("run_id", run.RunID, "graph", e.graph.Name)

	e.emitRunStart(ctx, run)

	current := e.graph.EntryPoint()
	iteration := 0

	for current != "" && iteration < e.maxIterations {
		iteration++

		node, _ := e.graph.Node(current)
		logger.Info("executing node", "node", current, "step", iteration)
		e.emitNodeEnter(ctx, run, current, iteration)

		start := time.Now()
		result, err := node.Transform(ctx, run.State)
		elapsed := time.Since(start)

		if err != nil {
			// Pre-merge snapshot: the failed step must not show a state it
			// never produced.
			run.Logs = append(run.Logs, domain.LogEntry{
				StepID:        uuid.NewString(),
				NodeName:      current,
				Timestamp:     time.Now().UTC(),
				Status:        domain.StepError,
				StateSnapshot: run.State.Clone(),
				Error:         err.Error(),
				Duration:      elapsed,
			})
			// The run records the transform's own message, matching the log
			// entry; the returned error carries the node name.
			nodeErr := &domain.NodeError{Node: current, Err: err}
			e.fail(ctx, run, err.Error())
			logger.Error("workflow failed", "node", current, "err", err)
			return run, nodeErr
		}

		if result != nil {
			run.State.Merge(result)
		}

		run.Logs = append(run.Logs, domain.LogEntry{
			StepID:        uuid.NewString(),
			NodeName:      current,
			Timestamp:     time.Now().UTC(),
			Status:        domain.StepSuccess,
			StateSnapshot: run.State.Clone(),
			Duration:      elapsed,
		})
		run.VisitedNodes = append(run.VisitedNodes, current)
		e.emitNodeLeave(ctx, run, current, iteration, elapsed)

		next := e.graph.NextNodes(current, run.State)
		if len(next) > 0 {
			// Deterministic first-match policy: when several edge conditions
			// are simultaneously true, the first declared edge wins and the
			// rest are ignored. True fan-out is out of scope.
			current = next[0]
		} else {
			current = ""
		}
	}

	if current != "" {
		limitErr := &domain.IterationLimitError{Limit: e.maxIterations}
		e.fail(ctx, run, limitErr.Error())
		logger.Error("workflow failed", "err", limitErr)
		return run, limitErr
	}

	run.Status = domain.StatusCompleted
	now := time.Now().UTC()
	run.CompletedAt = &now
	e.emitRunEnd(ctx, run)
	logger.Info("workflow completed", "steps", iteration)

	return run, nil
}

// CurrentRun exposes the most recently created run for introspection. It is
// overwritten by the next Execute call.
func (e *Executor) CurrentRun() *domain.Run {
	return e.run
}

func (e *Executor) fail(ctx context.Context, run *domain.Run, msg string) {
	run.Status = domain.StatusFailed
	run.Error = msg
	now := time.Now().UTC()
	run.CompletedAt = &now
	e.emitRunEnd(ctx, run)
}

func (e *Executor) emitRunStart(ctx context.Context, run *domain.Run) {
	if e.hooks.OnRunStart == nil {
		return
	}
	e.hooks.OnRunStart(ctx, &domain.RunEvent{
		Timestamp: time.Now().UTC(),
		RunID:     run.RunID,
		GraphID:   run.GraphID,
		Status:    run.Status,
	})
}

func (e *Executor) emitRunEnd(ctx context.Context, run *domain.Run) {
	if e.hooks.OnRunEnd == nil {
		return
	}
	e.hooks.OnRunEnd(ctx, &domain.RunEvent{
		Timestamp: time.Now().UTC(),
		RunID:     run.RunID,
		GraphID:   run.GraphID,
		Status:    run.Status,
		Error:     run.Error,
	})
}

func (e *Executor) emitNodeEnter(ctx context.Context, run *domain.Run, node string, step int) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		Timestamp: time.Now().UTC(),
		RunID:     run.RunID,
		NodeName:  node,
		Step:      step,
	})
}

func (e *Executor) emitNodeLeave(ctx context.Context, run *domain.Run, node string, step int, d time.Duration) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		Timestamp: time.Now().UTC(),
		RunID:     run.RunID,
		NodeName:  node,
		Step:      step,
		Status:    domain.StepSuccess,
		Duration:  d,
	})
}
