package runtime_test

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

func TestExecutor_SelfLoopTermination(t *testing.T) {
	// A retry-style self-loop: the node increments "attempts" each call and
	// may produce arbitrary other output; the guarding condition bounds the
	// loop regardless.
	g := mustBuild(t, func(g *domain.Graph) error {
		if err := g.AddNode("retry", func(ctx context.Context, state domain.State) (domain.State, error) {
			attempts, _ := state["attempts"].(int)
			return domain.State{
				"attempts": attempts + 1,
				"noise":    rand.Int(),
			}, nil
		}, ""); err != nil {
			return err
		}
		return g.AddEdge("retry", "retry", func(s domain.State) bool {
			attempts, _ := s["attempts"].(int)
			return attempts < 3
		}, "retry until three attempts")
	})

	run, err := runtime.NewExecutor(g).Execute(context.Background(), domain.State{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if run.Status != domain.StatusCompleted {
		t.Errorf("expected completed, got %s", run.Status)
	}
	if len(run.VisitedNodes) != 3 {
		t.Errorf("expected exactly 3 traversals, got %d (%v)", len(run.VisitedNodes), run.VisitedNodes)
	}
	if run.State["attempts"] != 3 {
		t.Errorf("expected attempts=3, got %v", run.State["attempts"])
	}
}

func TestExecutor_IterationLimit(t *testing.T) {
	g := mustBuild(t, func(g *domain.Graph) error {
		if err := g.AddNode("spin", func(ctx context.Context, state domain.State) (domain.State, error) {
			return nil, nil
		}, ""); err != nil {
			return err
		}
		// Unconditional self-loop: never terminates on its own.
		return g.AddEdge("spin", "spin", nil, "")
	})

	const limit = 1
	exec := runtime.NewExecutor(g, runtime.WithMaxIterations(limit))
	run, err := exec.Execute(context.Background(), domain.State{})

	var limitErr *domain.IterationLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected IterationLimitError, got %v", err)
	}
	if limitErr.Limit != limit {
		t.Errorf("expected limit %d in error, got %d", limit, limitErr.Limit)
	}

	if run == nil {
		t.Fatal("expected the failed run to be returned for inspection")
	}
	if run.Status != domain.StatusFailed {
		t.Errorf("expected status failed, got %s", run.Status)
	}
	if want := strconv.Itoa(limit); !strings.Contains(run.Error, want) {
		t.Errorf("run error should name the cap %s, got %q", want, run.Error)
	}
	if len(run.Logs) != limit {
		t.Errorf("expected exactly %d log entries, got %d", limit, len(run.Logs))
	}
	if run.CompletedAt == nil {
		t.Error("expected completed_at to be finalized on failure")
	}
}
