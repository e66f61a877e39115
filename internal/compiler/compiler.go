// Package compiler turns declarative YAML graph definitions into executable
// domain graphs, binding node transforms through a registry and edge
// conditions through the conditions expression language.
package compiler

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/arbor/pkg/conditions"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"gopkg.in/yaml.v3"
)

// GraphFile is the on-disk shape of a workflow definition.
type GraphFile struct {
	Name       string     `yaml:"name"`
	EntryPoint string     `yaml:"entry_point"`
	Nodes      []NodeSpec `yaml:"nodes"`
	Edges      []EdgeSpec `yaml:"edges"`
}

// NodeSpec declares one node. Transform names the registered transform to
// bind; when empty, the node name itself is looked up.
type NodeSpec struct {
	Name        string `yaml:"name"`
	Transform   string `yaml:"transform"`
	Description string `yaml:"description"`
}

// EdgeSpec declares one directed edge. Condition is an optional expression
// understood by the conditions package; empty means the edge is always taken.
type EdgeSpec struct {
	From        string `yaml:"from"`
	To          string `yaml:"to"`
	Condition   string `yaml:"condition"`
	Description string `yaml:"description"`
}

// Compiler binds graph definitions against a transform registry.
type Compiler struct {
	registry    *registry.Registry
	passthrough bool
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithPassthrough makes unresolved transform names compile to a no-op
// transform that records the node name under "last_node", instead of
// failing. Useful for validating topology before transforms exist.
func WithPassthrough() Option {
	return func(c *Compiler) {
		c.passthrough = true
	}
}

// New creates a compiler bound to the given registry.
func New(reg *registry.Registry, opts ...Option) *Compiler {
	c := &Compiler{registry: reg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompileFile reads and compiles a YAML graph definition from disk.
func (c *Compiler) CompileFile(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return c.Compile(data)
}

// Compile parses a YAML document and builds the graph it declares. The
// result is validated before being returned.
func (c *Compiler) Compile(data []byte) (*domain.Graph, error) {
	var file GraphFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse graph file: %w", err)
	}

	graph := domain.NewGraph(file.Name)

	for _, spec := range file.Nodes {
		if spec.Name == "" {
			return nil, fmt.Errorf("node with empty name in graph %q", file.Name)
		}

		fn, err := c.resolveTransform(spec)
		if err != nil {
			return nil, err
		}
		if err := graph.AddNode(spec.Name, fn, spec.Description); err != nil {
			return nil, err
		}
	}

	for _, spec := range file.Edges {
		var cond domain.Condition
		if spec.Condition != "" {
			compiled, err := conditions.Compile(spec.Condition)
			if err != nil {
				return nil, fmt.Errorf("edge %s -> %s: %w", spec.From, spec.To, err)
			}
			cond = compiled
		}
		if err := graph.AddEdge(spec.From, spec.To, cond, spec.Description); err != nil {
			return nil, err
		}
	}

	if file.EntryPoint != "" {
		if err := graph.SetEntryPoint(file.EntryPoint); err != nil {
			return nil, err
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, err
	}
	return graph, nil
}

func (c *Compiler) resolveTransform(spec NodeSpec) (domain.Transform, error) {
	name := spec.Transform
	if name == "" {
		name = spec.Name
	}

	if fn, ok := c.registry.Get(name); ok {
		return fn, nil
	}
	if c.passthrough {
		return passthrough(spec.Name), nil
	}
	return nil, fmt.Errorf("node %q: transform %q is not registered", spec.Name, name)
}

func passthrough(nodeName string) domain.Transform {
	return func(ctx context.Context, state domain.State) (domain.State, error) {
		return domain.State{"last_node": nodeName}, nil
	}
}
