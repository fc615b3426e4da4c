// Package kv provides the key-value backends that hold the persisted request
// list. A backend stores opaque values under string keys and knows nothing
// about requests.
package kv

import (
	"context"
	"errors"
	"fmt"
)

// ErrQuotaExceeded is returned when a value is larger than the backend allows
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Backend is a minimal key-value store with whole-value reads and writes
type Backend interface {
	// Get returns the value under key and whether it exists
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set overwrites the value under key
	Set(ctx context.Context, key string, value []byte) error
	// Close releases backend resources
	Close() error
}

type quotaBackend struct {
	Backend
	maxBytes int
}

// WithQuota rejects writes larger than maxBytes. A non-positive limit
// returns the backend unchanged.
func WithQuota(b Backend, maxBytes int) Backend {
	if maxBytes <= 0 {
		return b
	}
	return &quotaBackend{Backend: b, maxBytes: maxBytes}
}

func (q *quotaBackend) Set(ctx context.Context, key string, value []byte) error {
	if len(value) > q.maxBytes {
		return fmt.Errorf("%w: %d bytes for key %q exceeds %d", ErrQuotaExceeded, len(value), key, q.maxBytes)
	}
	return q.Backend.Set(ctx, key, value)
}
