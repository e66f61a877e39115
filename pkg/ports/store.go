package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// GraphStore is a lookup table of registered graphs, keyed by graph ID.
// Graphs hold executable functions, so implementations are in-memory only.
type GraphStore interface {
	// Save stores a graph under its own ID, overwriting any previous entry.
	Save(ctx context.Context, graph *domain.Graph) error

	// Get retrieves a graph by ID.
	// Returns domain.ErrGraphNotFound if it does not exist.
	Get(ctx context.Context, graphID string) (*domain.Graph, error)

	// Delete removes a graph.
	// Returns domain.ErrGraphNotFound if it does not exist.
	Delete(ctx context.Context, graphID string) error

	// List returns all stored graphs.
	List(ctx context.Context) ([]*domain.Graph, error)
}

// RunStore is a lookup table of workflow runs, keyed by run ID.
type RunStore interface {
	// Save stores a run under its own ID, overwriting any previous entry.
	Save(ctx context.Context, run *domain.Run) error

	// Get retrieves a run by ID.
	// Returns domain.ErrRunNotFound if it does not exist.
	Get(ctx context.Context, runID string) (*domain.Run, error)

	// Delete removes a run.
	// Returns domain.ErrRunNotFound if it does not exist.
	Delete(ctx context.Context, runID string) error

	// List returns all stored runs.
	List(ctx context.Context) ([]*domain.Run, error)

	// ListByGraph returns all runs recorded for a specific graph.
	ListByGraph(ctx context.Context, graphID string) ([]*domain.Run, error)
}
