package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

// Store runs each statement in its own pgx transaction.
type Store struct {
	pool         *pgxpool.Pool
	readOnly     bool
	maxRows      int
	queryTimeout time.Duration
}

// NewStore wraps pool. maxRows caps the rows read per statement; 0 reads all.
func NewStore(pool *pgxpool.Pool, readOnly bool, maxRows int, queryTimeout time.Duration) *Store {
	return &Store{
		pool:         pool,
		readOnly:     readOnly,
		maxRows:      maxRows,
		queryTimeout: queryTimeout,
	}
}

// Query rebinds "?" markers to $n and executes sql with args.
func (s *Store) Query(ctx context.Context, sql string, args []any) ([]map[string]any, error) {
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		AccessMode: s.accessMode(),
	})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SET LOCAL scopes the server-side timeout to this transaction.
	if s.queryTimeout > 0 {
		timeoutMS := s.queryTimeout.Milliseconds()
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%d'", timeoutMS)); err != nil {
			return nil, fmt.Errorf("setting statement timeout: %w", err)
		}
	}

	rows, err := tx.Query(ctx, sqlx.Rebind(sqlx.DOLLAR, sql), args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	results, err := rowsToMaps(rows, s.maxRows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return results, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) accessMode() pgx.TxAccessMode {
	if s.readOnly {
		return pgx.ReadOnly
	}
	return pgx.ReadWrite
}
