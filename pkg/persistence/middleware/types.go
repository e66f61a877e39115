// Package middleware provides composable RunStore wrappers: redaction of
// sensitive state keys and at-rest encryption of run records.
package middleware

import "github.com/aretw0/arbor/pkg/ports"

// Middleware allows wrapping a RunStore to add behavior.
type Middleware func(ports.RunStore) ports.RunStore

// Chain applies middlewares to a store, first listed outermost.
func Chain(store ports.RunStore, mws ...Middleware) ports.RunStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
