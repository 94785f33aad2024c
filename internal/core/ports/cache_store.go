package ports

import (
	"context"

	"go.trai.ch/canopy/internal/core/domain"
)

// CacheStore persists analysis results keyed by absolute path.
// Implementations must be safe for concurrent use by all workers.
//
//go:generate go run go.uber.org/mock/mockgen -source=cache_store.go -destination=mocks/mock_cache_store.go -package=mocks
type CacheStore interface {
	// Get returns the record stored for path.
	// Returns nil, nil if not found.
	Get(ctx context.Context, path string) (*domain.CacheRecord, error)

	// Put inserts or replaces the record for rec.Path.
	Put(ctx context.Context, rec domain.CacheRecord) error

	// EvictMissing removes records for paths outside root or no longer on disk.
	// It returns the number of removed records.
	EvictMissing(ctx context.Context, root string) (int, error)

	// Close releases every pooled connection.
	Close() error
}

// CacheOpener initializes and removes cache stores.
type CacheOpener interface {
	// Open opens, and creates if needed, the cache described by opts.
	Open(ctx context.Context, opts domain.CacheOptions) (CacheStore, error)

	// Remove deletes the cache at location and its sibling files.
	// It returns the number of files removed.
	Remove(location string) (int, error)
}
