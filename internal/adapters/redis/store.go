package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.RunStore using Redis. Run records are stored as
// JSON values; a ZSET indexes all run IDs and a SET per graph supports
// ListByGraph. Graphs hold executable functions and are never persisted here.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for run records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for run records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "arbor:run:",
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(runID string) string {
	return s.prefix + runID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) graphKey(graphID string) string {
	return s.prefix + "graph:" + graphID
}

// Save persists the run to Redis.
func (s *Store) Save(ctx context.Context, run *domain.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(run.RunID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(run.CreatedAt.Unix()),
		Member: run.RunID,
	})
	pipe.SAdd(ctx, s.graphKey(run.GraphID), run.RunID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get retrieves a run from Redis.
func (s *Store) Get(ctx context.Context, runID string) (*domain.Run, error) {
	val, err := s.client.Get(ctx, s.key(runID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var run domain.Run
	if err := json.Unmarshal([]byte(val), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}

// Delete removes a run and its index entries.
func (s *Store) Delete(ctx context.Context, runID string) error {
	run, err := s.Get(ctx, runID)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(runID))
	pipe.ZRem(ctx, s.indexKey(), runID)
	pipe.SRem(ctx, s.graphKey(run.GraphID), runID)

	_, err = pipe.Exec(ctx)
	return err
}

// List returns all stored runs, oldest first.
func (s *Store) List(ctx context.Context) ([]*domain.Run, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return s.collect(ctx, ids)
}

// ListByGraph returns all runs recorded for a specific graph.
func (s *Store) ListByGraph(ctx context.Context, graphID string) ([]*domain.Run, error) {
	ids, err := s.client.SMembers(ctx, s.graphKey(graphID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs for graph: %w", err)
	}
	return s.collect(ctx, ids)
}

func (s *Store) collect(ctx context.Context, ids []string) ([]*domain.Run, error) {
	runs := make([]*domain.Run, 0, len(ids))
	for _, id := range ids {
		run, err := s.Get(ctx, id)
		if err != nil {
			if err == domain.ErrRunNotFound {
				// Expired value still referenced by the index; skip it.
				continue
			}
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
