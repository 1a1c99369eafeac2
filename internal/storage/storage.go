// Package storage is the on-device persistence layer: a small
// key-value capability the session and preference store write through.
// Persistence is best-effort; callers log failures and keep running on
// in-memory state.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("storage: key not found")

// Store is a get/set/remove capability over string keys and values.
// Values are JSON documents serialized by the caller.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
