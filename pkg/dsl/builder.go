// Package dsl offers a fluent builder for workflow graphs, as an alternative
// to calling AddNode/AddEdge by hand or loading a YAML file.
package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/conditions"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
)

// Builder manages the graph construction. Nodes keep insertion order and
// edges keep declaration order, so routing stays deterministic.
type Builder struct {
	name     string
	entry    string
	registry *registry.Registry
	nodes    []*NodeBuilder
	byName   map[string]*NodeBuilder
}

// New creates a new graph builder.
func New(name string) *Builder {
	return &Builder{
		name:   name,
		byName: make(map[string]*NodeBuilder),
	}
}

// WithRegistry allows nodes to bind transforms by name via Use.
func (b *Builder) WithRegistry(reg *registry.Registry) *Builder {
	b.registry = reg
	return b
}

// Node creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Node(name string) *NodeBuilder {
	if nb, ok := b.byName[name]; ok {
		return nb
	}
	nb := &NodeBuilder{name: name, builder: b}
	b.byName[name] = nb
	b.nodes = append(b.nodes, nb)
	return nb
}

// Entry sets the node execution starts at. Defaults to the first node added.
func (b *Builder) Entry(name string) *Builder {
	b.entry = name
	return b
}

// Build compiles the builder into an executable graph.
func (b *Builder) Build() (*domain.Graph, error) {
	g := domain.NewGraph(b.name)

	for _, nb := range b.nodes {
		fn, err := nb.resolve(b.registry)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(nb.name, fn, nb.description); err != nil {
			return nil, err
		}
	}

	for _, nb := range b.nodes {
		for _, e := range nb.edges {
			cond := e.cond
			if e.expr != "" {
				compiled, err := conditions.Compile(e.expr)
				if err != nil {
					return nil, fmt.Errorf("node %q: %w", nb.name, err)
				}
				cond = compiled
			}
			if err := g.AddEdge(nb.name, e.to, cond, e.description); err != nil {
				return nil, err
			}
		}
	}

	if b.entry != "" {
		if err := g.SetEntryPoint(b.entry); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

type edgeSpec struct {
	to          string
	expr        string
	cond        domain.Condition
	description string
}

// NodeBuilder configures a single node and its outgoing edges.
type NodeBuilder struct {
	builder     *Builder
	name        string
	description string
	transform   string
	fn          domain.Transform
	edges       []edgeSpec
}

// Do attaches a transform function to the node.
func (nb *NodeBuilder) Do(fn domain.Transform) *NodeBuilder {
	nb.fn = fn
	return nb
}

// Use binds the node to a named transform from the builder's registry.
func (nb *NodeBuilder) Use(transform string) *NodeBuilder {
	nb.transform = transform
	return nb
}

// Describe sets the node's description.
func (nb *NodeBuilder) Describe(description string) *NodeBuilder {
	nb.description = description
	return nb
}

// To adds an unconditional edge to the target node.
func (nb *NodeBuilder) To(target string) *NodeBuilder {
	nb.edges = append(nb.edges, edgeSpec{to: target})
	return nb
}

// When adds a conditional edge whose condition is compiled from an
// expression, e.g. "count < 3" or "anomaly_count > 1".
func (nb *NodeBuilder) When(expr, target string) *NodeBuilder {
	nb.edges = append(nb.edges, edgeSpec{to: target, expr: expr, description: expr})
	return nb
}

// WhenFunc adds a conditional edge gated by a Go predicate.
func (nb *NodeBuilder) WhenFunc(cond domain.Condition, target string) *NodeBuilder {
	nb.edges = append(nb.edges, edgeSpec{to: target, cond: cond})
	return nb
}

// Node starts configuring another node on the parent builder, enabling
// chained definitions.
func (nb *NodeBuilder) Node(name string) *NodeBuilder {
	return nb.builder.Node(name)
}

// Build compiles the parent builder into an executable graph, allowing a
// chained definition to terminate without breaking out of the fluent style.
func (nb *NodeBuilder) Build() (*domain.Graph, error) {
	return nb.builder.Build()
}

func (nb *NodeBuilder) resolve(reg *registry.Registry) (domain.Transform, error) {
	if nb.fn != nil {
		return nb.fn, nil
	}
	if reg != nil {
		if nb.transform != "" {
			if fn, ok := reg.Get(nb.transform); ok {
				return fn, nil
			}
			return nil, fmt.Errorf("node %q: transform not found: %s", nb.name, nb.transform)
		}
		if fn, ok := reg.Get(nb.name); ok {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("node %q has no transform", nb.name)
}
