package cache

import (
	"context"
	"database/sql"
)

// DB exposes the connection pool to tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Len returns the number of stored records.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache`).Scan(&n)
	return n, err
}
