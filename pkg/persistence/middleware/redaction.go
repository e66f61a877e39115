package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

type redactionMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks the values of state
// keys matching the patterns before a run is persisted. Both the final state
// and every log snapshot are masked; the in-memory run seen by the engine is
// untouched.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.RunStore) ports.RunStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, run *domain.Run) error {
	cloned := *run
	cloned.State = run.State.Clone()
	maskMap(cloned.State, m.patterns)

	cloned.Logs = make([]domain.LogEntry, len(run.Logs))
	copy(cloned.Logs, run.Logs)
	for i := range cloned.Logs {
		cloned.Logs[i].StateSnapshot = run.Logs[i].StateSnapshot.Clone()
		maskMap(cloned.Logs[i].StateSnapshot, m.patterns)
	}

	return m.next.Save(ctx, &cloned)
}

func (m *redactionMiddleware) Get(ctx context.Context, runID string) (*domain.Run, error) {
	return m.next.Get(ctx, runID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]*domain.Run, error) {
	return m.next.List(ctx)
}

func (m *redactionMiddleware) ListByGraph(ctx context.Context, graphID string) ([]*domain.Run, error) {
	return m.next.ListByGraph(ctx, graphID)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				break
			}
		}

		switch sub := m[k].(type) {
		case map[string]any:
			maskMap(sub, patterns)
		case domain.State:
			maskMap(sub, patterns)
		}
	}
}
