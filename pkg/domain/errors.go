package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicateNode is returned when a node name is registered twice on a graph.
var ErrDuplicateNode = errors.New("node already exists")

// ErrUnknownNode is returned when an edge or entry point references a node
// that was never added to the graph.
var ErrUnknownNode = errors.New("unknown node")

// ErrGraphNotFound is returned when a graph ID cannot be found in a store.
var ErrGraphNotFound = errors.New("graph not found")

// ErrRunNotFound is returned when a run ID cannot be found in a store.
var ErrRunNotFound = errors.New("run not found")

// InvalidGraphError indicates a graph failed structural validation.
// No run is ever created for an invalid graph.
type InvalidGraphError struct {
	Reason string
}

func (e *InvalidGraphError) Error() string {
	return fmt.Sprintf("invalid graph: %s", e.Reason)
}

// NodeError wraps the failure of a single node transform. The run it occurred
// in is finalized as Failed before this error reaches the caller.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// IterationLimitError indicates a run was forcibly failed because it reached
// the configured step cap before terminating naturally.
type IterationLimitError struct {
	Limit int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("workflow exceeded maximum iterations (%d)", e.Limit)
}
