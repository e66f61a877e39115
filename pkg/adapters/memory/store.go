package memory

import (
	"context"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// GraphStore implements ports.GraphStore in memory.
// Safe for concurrent use.
type GraphStore struct {
	mu     sync.RWMutex
	graphs map[string]*domain.Graph
}

// NewGraphStore creates an empty in-memory graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		graphs: make(map[string]*domain.Graph),
	}
}

// Save stores a graph under its own ID.
func (s *GraphStore) Save(ctx context.Context, graph *domain.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[graph.ID] = graph
	return nil
}

// Get retrieves a graph by ID.
func (s *GraphStore) Get(ctx context.Context, graphID string) (*domain.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.graphs[graphID]
	if !ok {
		return nil, domain.ErrGraphNotFound
	}
	return g, nil
}

// Delete removes a graph.
func (s *GraphStore) Delete(ctx context.Context, graphID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graphs[graphID]; !ok {
		return domain.ErrGraphNotFound
	}
	delete(s.graphs, graphID)
	return nil
}

// List returns all stored graphs.
func (s *GraphStore) List(ctx context.Context) ([]*domain.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Graph, 0, len(s.graphs))
	for _, g := range s.graphs {
		out = append(out, g)
	}
	return out, nil
}

// RunStore implements ports.RunStore in memory.
// Safe for concurrent use. Runs are copied on read so callers cannot mutate
// stored records through the returned pointer's containers.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*domain.Run
}

// NewRunStore creates an empty in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*domain.Run),
	}
}

// Save stores a run under its own ID.
func (s *RunStore) Save(ctx context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunID] = copyRun(run)
	return nil
}

// Get retrieves a run by ID.
func (s *RunStore) Get(ctx context.Context, runID string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return copyRun(run), nil
}

// Delete removes a run.
func (s *RunStore) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return domain.ErrRunNotFound
	}
	delete(s.runs, runID)
	return nil
}

// List returns all stored runs.
func (s *RunStore) List(ctx context.Context) ([]*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, copyRun(run))
	}
	return out, nil
}

// ListByGraph returns all runs recorded for a specific graph.
func (s *RunStore) ListByGraph(ctx context.Context, graphID string) ([]*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Run
	for _, run := range s.runs {
		if run.GraphID == graphID {
			out = append(out, copyRun(run))
		}
	}
	return out, nil
}

func copyRun(run *domain.Run) *domain.Run {
	out := *run
	out.State = run.State.Clone()
	out.Logs = run.LogEntries()
	out.VisitedNodes = append([]string(nil), run.VisitedNodes...)
	return &out
}
