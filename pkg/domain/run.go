package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus describes the lifecycle state of a workflow run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"

	// StatusPaused is part of the status domain but is never produced by the
	// executor. It is reserved for future suspend/resume support.
	StatusPaused RunStatus = "paused"
)

// StepStatus describes the outcome of a single node execution.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

// LogEntry is an immutable audit record of one node execution attempt.
// StateSnapshot is an independent deep copy: later mutation of the live run
// state cannot corrupt history.
type LogEntry struct {
	StepID        string        `json:"step_id"`
	NodeName      string        `json:"node_name"`
	Timestamp     time.Time     `json:"timestamp"`
	Status        StepStatus    `json:"status"`
	StateSnapshot State         `json:"state_snapshot"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Run records one execution of a graph: the owned state, the ordered step
// log, the visited-node trace and the final outcome. Runs are JSON-friendly
// so stores can persist them; the graph back-reference is not serialized.
type Run struct {
	RunID        string     `json:"run_id"`
	GraphID      string     `json:"graph_id"`
	Graph        *Graph     `json:"-"`
	State        State      `json:"state"`
	Status       RunStatus  `json:"status"`
	Logs         []LogEntry `json:"logs"`
	VisitedNodes []string   `json:"visited_nodes"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// NewRun creates a running Run seeded with an independent deep copy of the
// caller's initial state; the caller's own map is never aliased.
func NewRun(graph *Graph, initial State) *Run {
	return &Run{
		RunID:     uuid.NewString(),
		GraphID:   graph.ID,
		Graph:     graph,
		State:     initial.Clone(),
		Status:    StatusRunning,
		CreatedAt: time.Now().UTC(),
	}
}

// Snapshot returns a deep copy of the current run state, so callers cannot
// mutate the run-owned map by holding a reference.
func (r *Run) Snapshot() State {
	return r.State.Clone()
}

// LogEntries returns a copy of the execution log.
func (r *Run) LogEntries() []LogEntry {
	out := make([]LogEntry, len(r.Logs))
	copy(out, r.Logs)
	return out
}
