package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStore_Contract(t *testing.T) {
	tests.RunStoreContract(t, memory.NewRunStore())
}

func TestRunStore_CopyOnRead(t *testing.T) {
	store := memory.NewRunStore()
	ctx := context.Background()

	graph := domain.NewGraph("iso")
	require.NoError(t, graph.AddNode("n", func(ctx context.Context, s domain.State) (domain.State, error) {
		return nil, nil
	}, ""))

	run := domain.NewRun(graph, domain.State{"k": "v"})
	require.NoError(t, store.Save(ctx, run))

	// Mutating the saved run afterwards must not affect the stored record.
	run.State["k"] = "mutated"

	got, err := store.Get(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "v", got.State["k"])

	// Mutating a read result must not affect the stored record either.
	got.State["k"] = "also-mutated"
	again, err := store.Get(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "v", again.State["k"])
}

func TestGraphStore_Lifecycle(t *testing.T) {
	store := memory.NewGraphStore()
	ctx := context.Background()

	graph := domain.NewGraph("demo")
	require.NoError(t, graph.AddNode("n", func(ctx context.Context, s domain.State) (domain.State, error) {
		return nil, nil
	}, ""))

	_, err := store.Get(ctx, graph.ID)
	assert.ErrorIs(t, err, domain.ErrGraphNotFound)

	require.NoError(t, store.Save(ctx, graph))

	got, err := store.Get(ctx, graph.ID)
	require.NoError(t, err)
	assert.Equal(t, graph.ID, got.ID)
	assert.Equal(t, "demo", got.Name)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.Delete(ctx, graph.ID))
	assert.ErrorIs(t, store.Delete(ctx, graph.ID), domain.ErrGraphNotFound)
}
