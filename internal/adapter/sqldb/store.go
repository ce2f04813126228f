package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store runs statements through a *sqlx.DB.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewStore(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// Open connects to dsn with the given configured driver and pings it.
func Open(ctx context.Context, driver, dsn string, timeout time.Duration) (*Store, error) {
	name := DriverName(driver)
	db, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	// An in-memory SQLite database lives in a single connection.
	if name == SQLiteDriver {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", driver, err)
	}

	return NewStore(db, timeout), nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Query rebinds "?" placeholders for the driver and returns every row as a map.
func (s *Store) Query(ctx context.Context, sql string, args []any) ([]map[string]any, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(sql), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []map[string]any
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	if results == nil {
		results = []map[string]any{}
	}
	return results, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
