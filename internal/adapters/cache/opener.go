package cache

import (
	"context"

	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
)

var _ ports.CacheOpener = (*Opener)(nil)

// Opener implements ports.CacheOpener for SQLite stores.
type Opener struct{}

// NewOpener creates a new Opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open opens the SQLite store described by opts.
func (o *Opener) Open(ctx context.Context, opts domain.CacheOptions) (ports.CacheStore, error) {
	store, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Remove deletes the database at location together with its sibling files.
func (o *Opener) Remove(location string) (int, error) {
	return Remove(location)
}
