package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// RunStoreContract is a reusable suite verifying that an adapter complies
// with ports.RunStore. It only relies on behavior every implementation must
// share, so serializing stores (which lose the in-process graph pointer and
// widen numeric types) pass it too.
func RunStoreContract(t *testing.T, store ports.RunStore) {
	t.Helper()
	ctx := context.Background()

	graph := domain.NewGraph("contract")
	if err := graph.AddNode("only", func(ctx context.Context, s domain.State) (domain.State, error) {
		return nil, nil
	}, ""); err != nil {
		t.Fatalf("graph setup failed: %v", err)
	}

	runA := domain.NewRun(graph, domain.State{"seed": "a"})
	runB := domain.NewRun(graph, domain.State{"seed": "b"})

	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "does-not-exist")
		if !errors.Is(err, domain.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Save_And_Get", func(t *testing.T) {
		if err := store.Save(ctx, runA); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := store.Get(ctx, runA.RunID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.RunID != runA.RunID {
			t.Errorf("run id mismatch: got %s, want %s", got.RunID, runA.RunID)
		}
		if got.GraphID != graph.ID {
			t.Errorf("graph id mismatch: got %s, want %s", got.GraphID, graph.ID)
		}
		if got.Status != domain.StatusRunning {
			t.Errorf("status mismatch: got %s", got.Status)
		}
		if got.State["seed"] != "a" {
			t.Errorf("state not preserved: got %v", got.State)
		}
	})

	t.Run("Save_Overwrites", func(t *testing.T) {
		runA.Status = domain.StatusCompleted
		if err := store.Save(ctx, runA); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := store.Get(ctx, runA.RunID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Status != domain.StatusCompleted {
			t.Errorf("expected overwritten status, got %s", got.Status)
		}
	})

	t.Run("List", func(t *testing.T) {
		if err := store.Save(ctx, runB); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		runs, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("expected 2 runs, got %d", len(runs))
		}
	})

	t.Run("ListByGraph", func(t *testing.T) {
		runs, err := store.ListByGraph(ctx, graph.ID)
		if err != nil {
			t.Fatalf("ListByGraph failed: %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("expected 2 runs for graph, got %d", len(runs))
		}

		none, err := store.ListByGraph(ctx, "unknown-graph")
		if err != nil {
			t.Fatalf("ListByGraph failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no runs for unknown graph, got %d", len(none))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, runB.RunID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(ctx, runB.RunID); !errors.Is(err, domain.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, runB.RunID); !errors.Is(err, domain.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound on double delete, got %v", err)
		}
	})
}
