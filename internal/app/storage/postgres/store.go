package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pawansangari/dataconnect-apps/internal/app/storage"
	"github.com/pawansangari/dataconnect-apps/internal/platform/database"
)

// Store implements the storage interfaces backed by PostgreSQL. All tables
// live in one schema; every call acquires its connection from the
// credential-refreshing pool.
type Store struct {
	pool   *database.Pool
	schema string
}

var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.EnrollmentStore = (*Store)(nil)
var _ storage.Pinger = (*Store)(nil)

// New creates a Store using the provided pool and schema.
func New(pool *database.Pool, schema string) *Store {
	return &Store{pool: pool, schema: schema}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) table(name string) string {
	return database.Table(s.schema, name)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}
