// Package registry manages named transform functions that workflow authors
// can reference when defining graphs through the API or from graph files.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

type entry struct {
	fn          domain.Transform
	description string
}

// Registry is a thread-safe collection of named transforms.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]entry
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		transforms: make(map[string]entry),
	}
}

// Register adds a transform to the registry.
// If a transform with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn domain.Transform, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[name] = entry{fn: fn, description: description}
}

// Get returns a transform by name.
func (r *Registry) Get(name string) (domain.Transform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.transforms[name]
	return e.fn, ok
}

// Call looks up a transform by name and invokes it with the given state.
// Returns an error if the transform is not registered.
func (r *Registry) Call(ctx context.Context, name string, state domain.State) (domain.State, error) {
	fn, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("transform not found: %s", name)
	}
	return fn(ctx, state)
}

// Exists checks if a transform is registered.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.transforms[name]
	return ok
}

// List returns the names and descriptions of all registered transforms.
func (r *Registry) List() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.transforms))
	for name, e := range r.transforms {
		out[name] = e.description
	}
	return out
}
