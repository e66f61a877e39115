/*
Package arbor is a lightweight workflow engine: directed graphs of named
transform functions connected by conditionally routed edges, executed against
a shared mutable state.

Each node's transform receives the current state and returns a partial update
that is merged in. Edges carry optional conditions evaluated against the
post-merge state; the first matching edge (in declaration order) decides the
next node. A run ends when no edge matches, and every step is recorded in an
audit log with an independent snapshot of the state at that moment.

# Concept

Arbor separates the graph definition (structure) from execution (runs).
Graphs are built once and are immutable during execution; all mutable data
lives in the run's state. This makes a single graph safe to execute from many
goroutines concurrently, each run owning its own state copy.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/arbor"
		"github.com/aretw0/arbor/pkg/domain"
	)

	func main() {
		g := domain.NewGraph("greeter")
		g.AddNode("greet", func(ctx context.Context, state domain.State) (domain.State, error) {
			name, _ := state["name"].(string)
			return domain.State{"greeting": "Hello, " + name}, nil
		}, "Compose a greeting")

		eng, err := arbor.New(g)
		if err != nil {
			log.Fatal(err)
		}

		run, err := eng.Run(context.Background(), domain.State{"name": "world"})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(run.State["greeting"])
	}

Loops are expressed as ordinary edges pointing backwards; a run-away cycle is
cut by the engine's iteration cap (see WithMaxIterations). For graphs defined
as data instead of code, see pkg/dsl, internal/compiler (YAML files) and the
HTTP adapter, which bind node names to registered transforms.
*/
package arbor
