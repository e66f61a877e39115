package middleware_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
)

func sampleRun() *domain.Run {
	now := time.Now().UTC()
	return &domain.Run{
		RunID:   "run-1",
		GraphID: "graph-1",
		Status:  domain.StatusCompleted,
		State: domain.State{
			"api_key": "s3cret",
			"count":   3,
			"nested": map[string]any{
				"password": "hunter2",
				"safe":     "ok",
			},
		},
		Logs: []domain.LogEntry{
			{
				StepID:        "step-1",
				NodeName:      "collect",
				Status:        domain.StepSuccess,
				StateSnapshot: domain.State{"api_key": "s3cret", "count": 3},
			},
		},
		VisitedNodes: []string{"collect"},
		CreatedAt:    now,
		CompletedAt:  &now,
	}
}

func TestRedactionMiddleware(t *testing.T) {
	backing := memory.NewRunStore()
	store := middleware.Chain(backing, middleware.NewRedactionMiddleware([]string{"(?i)key", "password"}))
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, store.Save(ctx, run))

	// The caller's run is untouched.
	assert.Equal(t, "s3cret", run.State["api_key"])
	assert.Equal(t, "s3cret", run.Logs[0].StateSnapshot["api_key"])

	stored, err := backing.Get(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "***", stored.State["api_key"])
	assert.Equal(t, 3, stored.State["count"])
	assert.Equal(t, "***", stored.Logs[0].StateSnapshot["api_key"])

	nested, ok := stored.State["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "***", nested["password"])
	assert.Equal(t, "ok", nested["safe"])
}

func TestEncryptionMiddleware_RoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte("k"), 32)
	backing := memory.NewRunStore()
	store := middleware.Chain(backing, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: key,
	}))
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, store.Save(ctx, run))

	// The backing store only sees the envelope.
	raw, err := backing.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.NotContains(t, raw.State, "api_key")
	assert.Contains(t, raw.State, "__encrypted__")
	assert.Empty(t, raw.Logs)
	assert.Equal(t, domain.StatusCompleted, raw.Status)

	// Reading through the middleware restores the full record.
	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got.State["api_key"])
	assert.Equal(t, []string{"collect"}, got.VisitedNodes)
	require.Len(t, got.Logs, 1)
	assert.Equal(t, "collect", got.Logs[0].NodeName)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	oldKey := bytes.Repeat([]byte("a"), 32)
	newKey := bytes.Repeat([]byte("b"), 32)
	backing := memory.NewRunStore()
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(backing)
	require.NoError(t, oldStore.Save(ctx, sampleRun()))

	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(backing)

	got, err := rotated.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got.State["api_key"])
}

func TestEncryptionMiddleware_WrongKeyFails(t *testing.T) {
	backing := memory.NewRunStore()
	ctx := context.Background()

	writer := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: bytes.Repeat([]byte("a"), 32),
	})(backing)
	require.NoError(t, writer.Save(ctx, sampleRun()))

	reader := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: bytes.Repeat([]byte("x"), 32),
	})(backing)

	_, err := reader.Get(ctx, "run-1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainRecord(t *testing.T) {
	backing := memory.NewRunStore()
	ctx := context.Background()
	require.NoError(t, backing.Save(ctx, sampleRun()))

	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: bytes.Repeat([]byte("a"), 32),
	})(backing)

	_, err := store.Get(ctx, "run-1")
	assert.Error(t, err)
}
