// Package store opens port.Store implementations for connection specs.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guillermoBallester/querylog/internal/adapter/postgres"
	"github.com/guillermoBallester/querylog/internal/adapter/sqldb"
	"github.com/guillermoBallester/querylog/internal/core/port"
)

// Opener dispatches pgx specs to a pgx pool and every other driver to database/sql.
type Opener struct {
	Pool         postgres.PoolConfig
	ReadOnly     bool
	MaxRows      int
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

var _ port.StoreOpener = (*Opener)(nil)

func (o *Opener) Open(ctx context.Context, spec port.ConnectionSpec) (port.Store, error) {
	log := o.logger().With(slog.String("db.connection", spec.Name), slog.String("db.driver", spec.Driver))

	switch spec.Driver {
	case "", sqldb.PgxDriver:
		cfg := o.Pool
		cfg.URL = spec.DSN
		if cfg.Logger == nil {
			cfg.Logger = log
		}
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("connected to database")
		return postgres.NewStore(pool, o.ReadOnly, o.MaxRows, o.QueryTimeout), nil

	case sqldb.PqDriver, "sqlite3", "sqlite":
		s, err := sqldb.Open(ctx, spec.Driver, spec.DSN, o.QueryTimeout)
		if err != nil {
			return nil, err
		}
		log.Info("connected to database")
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported driver %q for connection %q", spec.Driver, spec.Name)
	}
}

func (o *Opener) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}
