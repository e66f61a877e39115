package runtime_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

func TestExecutor_LifecycleHooks(t *testing.T) {
	var events []string

	hooks := domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			events = append(events, "run_start")
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			events = append(events, "run_end:"+string(e.Status))
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			events = append(events, "enter:"+e.NodeName)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			events = append(events, "leave:"+e.NodeName)
		},
	}

	g := mustBuild(t, func(g *domain.Graph) error {
		if err := g.AddNode("a", addToCounter(1), ""); err != nil {
			return err
		}
		if err := g.AddNode("b", addToCounter(1), ""); err != nil {
			return err
		}
		return g.AddEdge("a", "b", nil, "")
	})

	_, err := runtime.NewExecutor(g, runtime.WithLifecycleHooks(hooks)).Execute(context.Background(), domain.State{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := []string{
		"run_start",
		"enter:a", "leave:a",
		"enter:b", "leave:b",
		"run_end:completed",
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("unexpected event order:\n got %v\nwant %v", events, want)
	}
}

func TestExecutor_HooksOnFailure(t *testing.T) {
	var endEvent *domain.RunEvent

	hooks := domain.LifecycleHooks{
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			endEvent = e
		},
	}

	g := mustBuild(t, func(g *domain.Graph) error {
		return g.AddNode("fail", func(ctx context.Context, state domain.State) (domain.State, error) {
			return nil, errors.New("broken")
		}, "")
	})

	_, err := runtime.NewExecutor(g, runtime.WithLifecycleHooks(hooks)).Execute(context.Background(), domain.State{})
	if err == nil {
		t.Fatal("expected execution error")
	}

	if endEvent == nil {
		t.Fatal("expected OnRunEnd to fire on failure")
	}
	if endEvent.Status != domain.StatusFailed {
		t.Errorf("expected failed status in event, got %s", endEvent.Status)
	}
	if endEvent.Error == "" {
		t.Error("expected the event to carry the run error")
	}
}
