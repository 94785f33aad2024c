// Package cache implements the persistent analysis cache on top of SQLite.
package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"go.trai.ch/zerr"
)

//go:embed schema.sql
var schemaSQL string

const (
	// MemoryLocation opens a private in-memory cache.
	MemoryLocation = ":memory:"

	// vacuumThreshold is the number of evicted rows that triggers a VACUUM.
	vacuumThreshold = 10

	// pragmas are applied to every pooled connection through the DSN.
	pragmas = "_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-64000"
)

var _ ports.CacheStore = (*Store)(nil)

// Store implements ports.CacheStore using a pooled SQLite database.
type Store struct {
	db             *sql.DB
	location       string
	acquireTimeout time.Duration
	closeOnce      sync.Once
	closeErr       error
}

// Open opens the cache database described by opts, creating the file and
// schema if needed.
func Open(ctx context.Context, opts domain.CacheOptions) (*Store, error) {
	location := opts.Location
	if location == "" {
		return nil, zerr.Wrap(domain.ErrCacheOpenFailed, "cache location is empty")
	}

	pool := opts.PoolSize
	if pool <= 0 {
		pool = domain.DefaultCachePoolSize
	}

	dsn := location + "?" + pragmas
	if location == MemoryLocation {
		// Every connection to :memory: is a separate database.
		pool = 1
	} else {
		if err := os.MkdirAll(filepath.Dir(location), 0o750); err != nil {
			return nil, zerr.With(errors.Join(domain.ErrCacheOpenFailed, err), "location", location)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrCacheOpenFailed, err), "location", location)
	}
	db.SetMaxOpenConns(pool)
	db.SetMaxIdleConns(pool)
	db.SetConnMaxLifetime(0)

	if err := execWithRetry(ctx, db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		_ = db.Close()
		return nil, zerr.With(errors.Join(domain.ErrCacheOpenFailed, err), "location", location)
	}

	return &Store{
		db:             db,
		location:       location,
		acquireTimeout: opts.AcquireTimeout,
	}, nil
}

// Get returns the record for path, or nil if none is stored.
// A record whose payload is not valid JSON is deleted and reported as
// domain.ErrCacheCorrupted.
func (s *Store) Get(ctx context.Context, path string) (*domain.CacheRecord, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close() //nolint:errcheck // Returns the connection to the pool

	var (
		rec   = domain.CacheRecord{Path: path}
		mtime int64
		algo  string
	)
	err = conn.QueryRowContext(ctx,
		`SELECT size, mtime_ns, hash, hash_algorithm, payload FROM cache WHERE path = ?`, path,
	).Scan(&rec.Size, &mtime, &rec.Hash, &algo, &rec.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read cache record"), "path", path)
	}

	if !json.Valid(rec.Payload) {
		if _, delErr := conn.ExecContext(ctx, `DELETE FROM cache WHERE path = ?`, path); delErr != nil {
			return nil, zerr.With(zerr.Wrap(delErr, "failed to delete corrupted cache record"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrCacheCorrupted, "cache payload is not valid JSON"), "path", path)
	}

	rec.ModTime = time.Unix(0, mtime)
	rec.HashAlgorithm = domain.HashAlgorithm(algo)
	return &rec, nil
}

// Put inserts or replaces the record for rec.Path.
func (s *Store) Put(ctx context.Context, rec domain.CacheRecord) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck // Returns the connection to the pool

	algo := rec.HashAlgorithm
	if algo == "" {
		algo = domain.HashNone
	}

	err = execWithRetry(ctx, conn, `
		INSERT INTO cache (path, size, mtime_ns, hash, hash_algorithm, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mtime_ns = excluded.mtime_ns,
			hash = excluded.hash,
			hash_algorithm = excluded.hash_algorithm,
			payload = excluded.payload`,
		5, 10*time.Millisecond,
		rec.Path, rec.Size, rec.ModTime.UnixNano(), rec.Hash, string(algo), rec.Payload,
	)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write cache record"), "path", rec.Path)
	}
	return nil
}

// EvictMissing deletes records whose path lies outside root or no longer
// exists. The database is compacted when enough rows were removed.
// Concurrent evictions against the same file are serialized with a lock file.
func (s *Store) EvictMissing(ctx context.Context, root string) (int, error) {
	if s.location != MemoryLocation {
		lock := flock.New(s.location + ".lock")
		locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
		if err != nil {
			return 0, zerr.Wrap(err, "failed to lock cache for eviction")
		}
		if !locked {
			return 0, zerr.New("failed to lock cache for eviction")
		}
		defer lock.Unlock() //nolint:errcheck // Best effort unlock
	}

	conn, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close() //nolint:errcheck // Returns the connection to the pool

	stale, err := stalePaths(ctx, conn, root)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, zerr.Wrap(err, "failed to begin eviction")
	}
	stmt, err := tx.PrepareContext(ctx, `DELETE FROM cache WHERE path = ?`)
	if err != nil {
		_ = tx.Rollback()
		return 0, zerr.Wrap(err, "failed to prepare eviction")
	}
	for _, p := range stale {
		if _, err := stmt.ExecContext(ctx, p); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, zerr.With(zerr.Wrap(err, "failed to evict cache record"), "path", p)
		}
	}
	_ = stmt.Close()
	if err := tx.Commit(); err != nil {
		return 0, zerr.Wrap(err, "failed to commit eviction")
	}

	if len(stale) >= vacuumThreshold {
		if err := execWithRetry(ctx, conn, `VACUUM`, 5, 10*time.Millisecond); err != nil {
			return len(stale), zerr.Wrap(err, "failed to vacuum cache")
		}
	}

	return len(stale), nil
}

// Close closes every pooled connection. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// conn borrows a connection from the pool, waiting at most acquireTimeout.
func (s *Store) conn(ctx context.Context) (*sql.Conn, error) {
	acquireCtx := ctx
	if s.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, s.acquireTimeout)
		defer cancel()
	}

	conn, err := s.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, zerr.With(errors.Join(domain.ErrCachePoolExhausted, err), "timeout", s.acquireTimeout.String())
		}
		return nil, zerr.Wrap(err, "failed to acquire cache connection")
	}
	return conn, nil
}

func stalePaths(ctx context.Context, conn *sql.Conn, root string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, `SELECT path FROM cache`)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to list cache records")
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, zerr.Wrap(err, "failed to scan cache record")
		}
		if !within(root, p) {
			stale = append(stale, p)
			continue
		}
		if _, err := os.Lstat(p); err != nil {
			stale = append(stale, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, "failed to list cache records")
	}
	return stale, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execWithRetry runs a statement, backing off exponentially while the
// database is locked by another process.
func execWithRetry(
	ctx context.Context, db execer, query string, maxRetries int, baseDelay time.Duration, args ...any,
) error {
	var lastErr error
	for attempt := range maxRetries {
		_, err := db.ExecContext(ctx, query, args...)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(baseDelay * time.Duration(1<<attempt)):
		}
	}
	return lastErr
}

// Remove deletes the database at location together with its WAL, shared
// memory and lock files. It returns the number of files removed.
func Remove(location string) (int, error) {
	removed := 0
	for _, suffix := range []string{"", "-wal", "-shm", ".lock"} {
		err := os.Remove(location + suffix)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, os.ErrNotExist):
		default:
			return removed, zerr.With(zerr.Wrap(err, "failed to remove cache file"), "path", location+suffix)
		}
	}
	return removed, nil
}
