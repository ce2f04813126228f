// Package sqldb adapts database/sql drivers to port.Store through sqlx.
package sqldb

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	PqDriver     = "postgres"
	PgxDriver    = "pgx"
	SQLiteDriver = "sqlite3_querylog"
)

func init() {
	RegisterDriver(PqDriver, &pq.Driver{})
	RegisterDriver(PgxDriver, stdlib.GetDefaultDriver())
	RegisterDriver(SQLiteDriver, &sqlite3.SQLiteDriver{ConnectHook: registerFuncs})
	sqlx.BindDriver(SQLiteDriver, sqlx.QUESTION)
}

// RegisterDriver registers driver under name unless the name is taken.
func RegisterDriver(name string, driver driver.Driver) {
	if slices.Contains(sql.Drivers(), name) {
		return
	}
	sql.Register(name, driver)
}

// DriverName maps a configured driver to the registered database/sql name.
func DriverName(configured string) string {
	switch configured {
	case "sqlite3", "sqlite":
		return SQLiteDriver
	default:
		return configured
	}
}

func registerFuncs(conn *sqlite3.SQLiteConn) error {
	if err := conn.RegisterFunc("sleep", sleep, false); err != nil {
		return fmt.Errorf("registering sleep: %w", err)
	}
	return nil
}

// sleep blocks for the given number of seconds and returns 0.
func sleep(seconds any) int64 {
	var d time.Duration
	switch v := seconds.(type) {
	case int64:
		d = time.Duration(v) * time.Second
	case float64:
		d = time.Duration(v * float64(time.Second))
	}
	if d > 0 {
		time.Sleep(d)
	}
	return 0
}
