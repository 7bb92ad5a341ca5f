package postgres

import (
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/pawansangari/dataconnect-apps/internal/platform/credentials"
	"github.com/pawansangari/dataconnect-apps/internal/platform/database"
	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

const testSchema = "forms_schema_app"

// newMockStore returns a Store whose pool is backed by sqlmock. Queries must
// be expected before the store is used; the pool close is verified on
// cleanup.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	open := func(driverName, _ string) (*sqlx.DB, error) {
		return sqlx.NewDb(db, driverName), nil
	}
	pool, err := database.NewPool(
		database.Config{Host: "db.example", Name: "forms", User: "app-user"},
		credentials.NewStatic("secret"), logger.NewDiscard(), database.WithOpenFunc(open),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		mock.ExpectClose()
		require.NoError(t, pool.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})
	return New(pool, testSchema), mock
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}
