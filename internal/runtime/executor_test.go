package runtime_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

func addToCounter(delta int) domain.Transform {
	return func(ctx context.Context, state domain.State) (domain.State, error) {
		counter, _ := state["counter"].(int)
		return domain.State{"counter": counter + delta}, nil
	}
}

func mustBuild(t *testing.T, build func(g *domain.Graph) error) *domain.Graph {
	t.Helper()
	g := domain.NewGraph("test")
	if err := build(g); err != nil {
		t.Fatalf("graph setup failed: %v", err)
	}
	return g
}

func TestExecutor_LinearChain(t *testing.T) {
	g := mustBuild(t, func(g *domain.Graph) error {
		if err := g.AddNode("n1", addToCounter(1), ""); err != nil {
			return err
		}
		if err := g.AddNode("n2", addToCounter(10), ""); err != nil {
			return err
		}
		if err := g.AddNode("n3", addToCounter(100), ""); err != nil {
			return err
		}
		if err := g.AddEdge("n1", "n2", nil, ""); err != nil {
			return err
		}
		return g.AddEdge("n2", "n3", nil, "")
	})

	exec := runtime.NewExecutor(g)
	run, err := exec.Execute(context.Background(), domain.State{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if run.Status != domain.StatusCompleted {
		t.Errorf("expected status completed, got %s", run.Status)
	}
	if counter := run.State["counter"]; counter != 111 {
		t.Errorf("expected counter 111, got %v", counter)
	}
	if want := []string{"n1", "n2", "n3"}; !reflect.DeepEqual(run.VisitedNodes, want) {
		t.Errorf("expected visited %v, got %v", want, run.VisitedNodes)
	}
	if len(run.Logs) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(run.Logs))
	}
	for i, entry := range run.Logs {
		if entry.Status != domain.StepSuccess {
			t.Errorf("log %d: expected success, got %s", i, entry.Status)
		}
		if entry.StepID == "" {
			t.Errorf("log %d: missing step id", i)
		}
	}
	if run.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestExecutor_MergeIsShallow(t *testing.T) {
	g := mustBuild(t, func(g *domain.Graph) error {
		return g.AddNode("patch", func(ctx context.Context, state domain.State) (domain.State, error) {
			return domain.State{"a": 1}, nil
		}, "")
	})

	run, err := runtime.NewExecutor(g).Execute(context.Background(), domain.State{"a": 0, "b": 2})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if run.State["a"] != 1 {
		t.Errorf("expected a=1, got %v", run.State["a"])
	}
	if run.State["b"] != 2 {
		t.Errorf("untouched key should survive, got b=%v", run.State["b"])
	}
	if len(run.State) != 2 {
		t.Errorf("expected exactly 2 keys, got %v", run.State)
	}
}

func TestExecutor_NilResultSkipsMerge(t *testing.T) {
	g := mustBuild(t, func(g *domain.Graph) error {
		return g.AddNode("silent", func(ctx context.Context, state domain.State) (domain.State, error) {
			return nil, nil
		}, "")
	})

	run, err := runtime.NewExecutor(g).Execute(context.Background(), domain.State{"k": "v"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !reflect.DeepEqual(run.State, domain.State{"k": "v"}) {
		t.Errorf("state should be unchanged, got %v", run.State)
	}
	if run.Status != domain.StatusCompleted {
		t.Errorf("expected completed, got %s", run.Status)
	}
}

func TestExecutor_SnapshotIsPostMergeAndImmutable(t *testing.T) {
	shared := map[string]any{"inner": "original"}

	g := mustBuild(t, func(g *domain.Graph) error {
		if err := g.AddNode("write", func(ctx context.Context, state domain.State) (domain.State, error) {
			return domain.State{"payload": shared}, nil
		}, ""); err != nil {
			return err
		}
		if err := g.AddNode("mutate", func(ctx context.Context, state domain.State) (domain.State, error) {
			// Mutate the nested structure in place after it was logged.
			state["payload"].(map[string]any)["inner"] = "mutated"
			return nil, nil
		}, ""); err != nil {
			return err
		}
		return g.AddEdge("write", "mutate", nil, "")
	})

	run, err := runtime.NewExecutor(g).Execute(context.Background(), domain.State{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// The first entry's snapshot was taken post-merge and deep-copied, so the
	// later in-place mutation must not corrupt it.
	first := run.Logs[0].StateSnapshot
	if got := first["payload"].(map[string]any)["inner"]; got != "original" {
		t.Errorf("log snapshot was corrupted by later mutation: %v", got)
	}
}

func TestExecutor_CurrentRunOverwritten(t *testing.T) {
	g := mustBuild(t, func(g *domain.Graph) error {
		return g.AddNode("only", addToCounter(1), "")
	})

	exec := runtime.NewExecutor(g)
	if exec.CurrentRun() != nil {
		t.Fatal("expected no current run before execution")
	}

	first, err := exec.Execute(context.Background(), domain.State{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if exec.CurrentRun() != first {
		t.Error("CurrentRun should expose the run just produced")
	}

	second, err := exec.Execute(context.Background(), domain.State{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if exec.CurrentRun() != second || first == second {
		t.Error("CurrentRun should be overwritten by the next execution")
	}
}
