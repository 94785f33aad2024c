package domain

import "time"

// CacheRecord is a persisted analysis result for one path.
type CacheRecord struct {
	Path          string
	Size          int64
	ModTime       time.Time
	Hash          string
	HashAlgorithm HashAlgorithm
	Payload       []byte
}

// Valid reports whether the record still describes a file with the given
// size and modification time. Content is not re-checked.
func (r *CacheRecord) Valid(size int64, modTime time.Time) bool {
	return r != nil && r.Size == size && r.ModTime.Equal(modTime)
}

// Reusable reports whether the record is valid and was hashed with algo.
func (r *CacheRecord) Reusable(size int64, modTime time.Time, algo HashAlgorithm) bool {
	return r.Valid(size, modTime) && r.HashAlgorithm == algo
}

// CacheOptions locates and sizes a cache store.
type CacheOptions struct {
	Location       string
	PoolSize       int
	AcquireTimeout time.Duration
}

// CacheOptions returns the cache settings of the run.
func (rc *RunContext) CacheOptions() CacheOptions {
	return CacheOptions{
		Location:       rc.CacheLocation,
		PoolSize:       rc.CachePoolSize,
		AcquireTimeout: rc.CacheAcquireTimeout,
	}
}
