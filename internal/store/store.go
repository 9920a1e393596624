// Package store provides the durable key/value backend used for run state.
// The engine must behave the same whether the backend is a local directory
// or a remote object store, so the interface stays at get/put granularity.
package store

import (
	"context"
	"errors"
)

// ErrNotFound reports an absent key. Callers treat it as "no value yet",
// not as a failure.
var ErrNotFound = errors.New("not found")

// Store is a minimal durable key/value collaborator.
type Store interface {
	// Get returns the stored bytes for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put durably stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
}
