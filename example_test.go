package arbor_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/domain"
)

// ExampleNew demonstrates a small conditional workflow: a counter that keeps
// incrementing itself until a threshold is reached, then reports.
func ExampleNew() {
	g := domain.NewGraph("counter")

	g.AddNode("increment", func(ctx context.Context, state domain.State) (domain.State, error) {
		count, _ := state["count"].(int)
		return domain.State{"count": count + 1}, nil
	}, "Increment the counter")
	g.AddNode("report", func(ctx context.Context, state domain.State) (domain.State, error) {
		return domain.State{"done": true}, nil
	}, "Final report")

	below := func(state domain.State) bool {
		count, _ := state["count"].(int)
		return count < 3
	}
	g.AddEdge("increment", "increment", below, "keep counting")
	g.AddEdge("increment", "report", func(state domain.State) bool { return !below(state) }, "threshold reached")

	engine, err := arbor.New(g)
	if err != nil {
		log.Fatal(err)
	}

	run, err := engine.Run(context.Background(), domain.State{"count": 0})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("status: %s\n", run.Status)
	fmt.Printf("count: %d\n", run.State["count"])
	fmt.Printf("steps: %d\n", len(run.Logs))
	// Output:
	// status: completed
	// count: 3
	// steps: 4
}
