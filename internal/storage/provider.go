// Package storage defines where the final aggregate document is written.
// The abstraction keeps the pipeline independent of the destination
// (local file system, Google Cloud Storage or memory).
package storage

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a backend is selected without the
// settings it needs.
var ErrNotConfigured = errors.New("storage backend not configured")

// Provider persists a complete document under objectName, replacing any
// previous content. Implementations perform a single write per call.
type Provider interface {
	Save(ctx context.Context, objectName string, data []byte) error
}

// NoOpProvider discards every document. It backs dry runs where only the
// live notifications are of interest.
type NoOpProvider struct{}

// Save for NoOpProvider does nothing and always returns nil.
func (n *NoOpProvider) Save(_ context.Context, _ string, _ []byte) error {
	return nil
}
