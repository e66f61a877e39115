package domain_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
)

func noop(name string) domain.Transform {
	return func(ctx context.Context, state domain.State) (domain.State, error) {
		return domain.State{"last": name}, nil
	}
}

func TestGraph_AddNode(t *testing.T) {
	g := domain.NewGraph("test")

	if err := g.AddNode("a", noop("a"), "first"); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	t.Run("First Node Becomes Entry Point", func(t *testing.T) {
		if g.EntryPoint() != "a" {
			t.Errorf("expected entry point 'a', got %q", g.EntryPoint())
		}
	})

	t.Run("Duplicate Rejected", func(t *testing.T) {
		err := g.AddNode("a", func(ctx context.Context, s domain.State) (domain.State, error) {
			return domain.State{"last": "imposter"}, nil
		}, "second definition")
		if !errors.Is(err, domain.ErrDuplicateNode) {
			t.Fatalf("expected ErrDuplicateNode, got %v", err)
		}

		// The first definition must remain intact.
		n, ok := g.Node("a")
		if !ok {
			t.Fatal("node 'a' missing after failed re-add")
		}
		out, err := n.Transform(context.Background(), domain.State{})
		if err != nil {
			t.Fatalf("transform failed: %v", err)
		}
		if out["last"] != "a" {
			t.Errorf("stored transform was replaced: got %v", out["last"])
		}
		if n.Description != "first" {
			t.Errorf("stored description was replaced: got %q", n.Description)
		}
	})
}

func TestGraph_AddEdge_UnknownNode(t *testing.T) {
	g := domain.NewGraph("test")
	if err := g.AddNode("a", noop("a"), ""); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	if err := g.AddEdge("a", "missing", nil, ""); !errors.Is(err, domain.ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode for destination, got %v", err)
	}
	if err := g.AddEdge("missing", "a", nil, ""); !errors.Is(err, domain.ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode for source, got %v", err)
	}
	if len(g.Edges()) != 0 {
		t.Errorf("graph should be unchanged, got %d edges", len(g.Edges()))
	}
}

func TestGraph_SetEntryPoint(t *testing.T) {
	g := domain.NewGraph("test")
	if err := g.AddNode("a", noop("a"), ""); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if err := g.AddNode("b", noop("b"), ""); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	if err := g.SetEntryPoint("b"); err != nil {
		t.Fatalf("SetEntryPoint failed: %v", err)
	}
	if g.EntryPoint() != "b" {
		t.Errorf("expected entry point 'b', got %q", g.EntryPoint())
	}

	if err := g.SetEntryPoint("missing"); !errors.Is(err, domain.ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode, got %v", err)
	}
}

func TestGraph_Validate(t *testing.T) {
	t.Run("Empty Graph", func(t *testing.T) {
		g := domain.NewGraph("empty")
		err := g.Validate()

		var invalid *domain.InvalidGraphError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidGraphError, got %v", err)
		}
		if invalid.Reason == "" {
			t.Error("expected a descriptive reason")
		}
	})

	t.Run("Valid Graph", func(t *testing.T) {
		g := domain.NewGraph("ok")
		if err := g.AddNode("a", noop("a"), ""); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
		if err := g.Validate(); err != nil {
			t.Errorf("expected valid graph, got %v", err)
		}
	})
}

func TestGraph_NextNodes(t *testing.T) {
	g := domain.NewGraph("routing")
	for _, name := range []string{"src", "always", "high", "low"} {
		if err := g.AddNode(name, noop(name), ""); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}

	high := func(s domain.State) bool { v, _ := s["value"].(int); return v > 50 }
	low := func(s domain.State) bool { v, _ := s["value"].(int); return v <= 50 }

	// Declaration order matters: conditional edges first, then the
	// unconditional fallback.
	if err := g.AddEdge("src", "high", high, ""); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if err := g.AddEdge("src", "low", low, ""); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if err := g.AddEdge("src", "always", nil, ""); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	t.Run("High Branch", func(t *testing.T) {
		got := g.NextNodes("src", domain.State{"value": 75})
		want := []string{"high", "always"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("Low Branch", func(t *testing.T) {
		got := g.NextNodes("src", domain.State{"value": 25})
		want := []string{"low", "always"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("No Outgoing Edges", func(t *testing.T) {
		if got := g.NextNodes("always", domain.State{}); len(got) != 0 {
			t.Errorf("expected no matches, got %v", got)
		}
	})
}
