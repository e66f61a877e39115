package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
)

func buildGraph(t *testing.T, nodes []string, edges []domain.Edge) *domain.Graph {
	t.Helper()
	g := domain.NewGraph("diagram")
	noop := func(ctx context.Context, state domain.State) (domain.State, error) { return nil, nil }
	for _, name := range nodes {
		if err := g.AddNode(name, noop, ""); err != nil {
			t.Fatalf("add node %q: %v", name, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e.From, e.To, e.Condition, e.Description); err != nil {
			t.Fatalf("add edge %s->%s: %v", e.From, e.To, err)
		}
	}
	return g
}

func TestGenerateMermaid(t *testing.T) {
	always := func(state domain.State) bool { return true }

	tests := []struct {
		name     string
		nodes    []string
		edges    []domain.Edge
		contains []string
	}{
		{
			name:  "entry point is a circle",
			nodes: []string{"start", "finish"},
			contains: []string{
				"start((\"start\"))",
				"finish[\"finish\"]",
			},
		},
		{
			name:  "id sanitization",
			nodes: []string{"hyphen-ated", "dotted.name"},
			contains: []string{
				"hyphen_ated((\"hyphen-ated\"))",
				"dotted_name[\"dotted.name\"]",
			},
		},
		{
			name:  "unconditional edge",
			nodes: []string{"a", "b"},
			edges: []domain.Edge{{From: "a", To: "b"}},
			contains: []string{
				"a --> b",
			},
		},
		{
			name:  "conditional edge gets a label",
			nodes: []string{"a", "b"},
			edges: []domain.Edge{{From: "a", To: "b", Condition: always, Description: `count == "many"`}},
			contains: []string{
				`-- "count == 'many'" -->`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, tt.nodes, tt.edges)
			got := graph.GenerateMermaid(g, nil)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, []domain.Edge{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
	})

	got := graph.GenerateMermaid(g, &graph.Overlay{
		VisitedNodes: []string{"a", "b", "a"},
		CurrentNode:  "c",
	})

	for _, want := range []string{
		"class a visited;",
		"class b visited;",
		"class c current;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("overlay output missing %q:\n%v", want, got)
		}
	}

	// Revisited nodes are styled once.
	if strings.Count(got, "class a visited;") != 1 {
		t.Errorf("visited class for a should appear once:\n%v", got)
	}
}
