package sqldb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, driverName string) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(sqlx.NewDb(db, driverName), time.Second), mock
}

func TestStore_RebindsForPostgres(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t, PqDriver)

	mock.ExpectQuery("SELECT * FROM authors WHERE id IN ($1,$2,$3) LIMIT 1").
		WithArgs(1, 2, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), []byte("Ursula")))

	rows, err := store.Query(context.Background(), "SELECT * FROM authors WHERE id IN (?,?,?) LIMIT 1", []any{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "Ursula", rows[0]["name"], "[]byte columns come back as strings")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_KeepsQuestionMarksForSQLite(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t, SQLiteDriver)

	mock.ExpectQuery("SELECT UPPER(?)").
		WithArgs("x").
		WillReturnRows(sqlmock.NewRows([]string{"UPPER(?)"}).AddRow("X"))

	rows, err := store.Query(context.Background(), "SELECT UPPER(?)", []any{"x"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"UPPER(?)": "X"}}, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_EmptyResult(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t, PqDriver)

	mock.ExpectQuery("SELECT id FROM authors").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := store.Query(context.Background(), "SELECT id FROM authors", nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestStore_QueryError(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t, PqDriver)

	queryErr := errors.New(`relation "authors" does not exist`)
	mock.ExpectQuery("SELECT * FROM authors").WillReturnError(queryErr)

	_, err := store.Query(context.Background(), "SELECT * FROM authors", nil)
	require.ErrorIs(t, err, queryErr)
}

func TestStore_RowError(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t, PqDriver)

	rowErr := errors.New("connection reset")
	mock.ExpectQuery("SELECT id FROM authors").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).RowError(1, rowErr))

	_, err := store.Query(context.Background(), "SELECT id FROM authors", nil)
	require.ErrorIs(t, err, rowErr)
}

func TestStore_Close(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t, PqDriver)
	mock.ExpectClose()

	require.NoError(t, store.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, SQLiteDriver, DriverName("sqlite3"))
	assert.Equal(t, SQLiteDriver, DriverName("sqlite"))
	assert.Equal(t, PgxDriver, DriverName("pgx"))
	assert.Equal(t, PqDriver, DriverName("postgres"))
}

func TestRegisterDriver_Idempotent(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		RegisterDriver(SQLiteDriver, nil)
	})
}
