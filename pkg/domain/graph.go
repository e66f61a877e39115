package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transform is the unit of work attached to a node. It receives the run's
// current state and returns a partial update to merge into it. A nil result
// leaves the state unchanged. Transforms must be callable repeatedly without
// hidden shared context beyond the passed state; self-loop patterns rely on
// that reentrancy.
type Transform func(ctx context.Context, state State) (State, error)

// Condition gates an edge. It must not mutate the state it reads; the engine
// relies on that for log-snapshot correctness but does not enforce it.
type Condition func(state State) bool

// Node is a named unit of work within a graph. Immutable once added.
type Node struct {
	Name        string
	Transform   Transform
	Description string
}

// Edge is a directed link between two nodes. A nil Condition means the edge
// is always eligible.
type Edge struct {
	From        string
	To          string
	Condition   Condition
	Description string
}

// Graph owns a node set and an ordered edge list. Edge declaration order is
// significant: it is the tie-break when several edges from the same node
// match simultaneously.
type Graph struct {
	ID        string
	Name      string
	CreatedAt time.Time

	nodes      map[string]Node
	order      []string
	edges      []Edge
	entryPoint string
}

// NewGraph creates an empty graph with a fresh ID.
func NewGraph(name string) *Graph {
	return &Graph{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		nodes:     make(map[string]Node),
	}
}

// AddNode registers a node. The first node added becomes the default entry
// point if none is set yet. Re-adding an existing name fails with
// ErrDuplicateNode and leaves the stored node untouched.
func (g *Graph) AddNode(name string, fn Transform, description string) error {
	if _, ok := g.nodes[name]; ok {
		return fmt.Errorf("node %q: %w", name, ErrDuplicateNode)
	}

	g.nodes[name] = Node{Name: name, Transform: fn, Description: description}
	g.order = append(g.order, name)

	if g.entryPoint == "" {
		g.entryPoint = name
	}
	return nil
}

// AddEdge appends a directed edge. Both endpoints must already exist.
func (g *Graph) AddEdge(from, to string, cond Condition, description string) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("source node %q: %w", from, ErrUnknownNode)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("destination node %q: %w", to, ErrUnknownNode)
	}

	g.edges = append(g.edges, Edge{From: from, To: to, Condition: cond, Description: description})
	return nil
}

// SetEntryPoint sets the node execution starts at, overwriting any previous
// choice.
func (g *Graph) SetEntryPoint(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return fmt.Errorf("node %q: %w", name, ErrUnknownNode)
	}
	g.entryPoint = name
	return nil
}

// EntryPoint returns the configured entry node name ("" if unset).
func (g *Graph) EntryPoint() string {
	return g.entryPoint
}

// Node looks up a node by name.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns the node definitions in the order they were added.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Edges returns a copy of the edge list in declaration order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Validate checks the graph structure. It is a pure query: a nil return means
// the graph is executable, otherwise an *InvalidGraphError describes the
// problem.
func (g *Graph) Validate() error {
	if len(g.nodes) == 0 {
		return &InvalidGraphError{Reason: "graph has no nodes"}
	}
	if g.entryPoint == "" {
		return &InvalidGraphError{Reason: "no entry point set"}
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return &InvalidGraphError{Reason: fmt.Sprintf("entry point %q does not exist", g.entryPoint)}
	}
	return nil
}

// NextNodes scans the edges in declaration order and returns the destinations
// of every edge leaving current whose condition is nil or evaluates true
// against state. It returns all matches; picking one is the executor's
// responsibility.
func (g *Graph) NextNodes(current string, state State) []string {
	var next []string
	for _, e := range g.edges {
		if e.From != current {
			continue
		}
		if e.Condition == nil || e.Condition(state) {
			next = append(next, e.To)
		}
	}
	return next
}
