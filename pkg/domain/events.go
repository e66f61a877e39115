package domain

import (
	"context"
	"time"
)

// NodeEvent describes entry into or exit from a node during a run.
type NodeEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	RunID     string        `json:"run_id"`
	NodeName  string        `json:"node_name"`
	Step      int           `json:"step"`
	Status    StepStatus    `json:"status,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// RunEvent describes the start or end of a whole run.
type RunEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	GraphID   string    `json:"graph_id"`
	Status    RunStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// LifecycleHooks defines optional callbacks for engine observability.
// Hooks are purely observational: they cannot alter routing, state or the
// outcome of a run. Nil members are skipped.
type LifecycleHooks struct {
	OnRunStart  func(context.Context, *RunEvent)
	OnRunEnd    func(context.Context, *RunEvent)
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
}
