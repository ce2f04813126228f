package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/guillermoBallester/querylog/internal/core/domain"
	"github.com/guillermoBallester/querylog/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ErrQueryFailed matches every *QueryError.
var ErrQueryFailed = errors.New("query execution failed")

// QueryError reports a statement the store failed to execute.
type QueryError struct {
	Connection string
	SQL        string
	Err        error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s on connection %q: %v", ErrQueryFailed, e.Connection, e.Err)
}

func (e *QueryError) Unwrap() []error { return []error{ErrQueryFailed, e.Err} }

// Connection executes statements against a Store and logs each one through
// the query logger currently installed in its LogSettings.
type Connection struct {
	name      string
	store     port.Store
	settings  *LogSettings
	validator port.QueryValidator
	auditor   port.QueryAuditor
	logger    *slog.Logger
	tracer    trace.Tracer
	inst      port.Instrumentation
	mask      domain.MaskType
	now       func() time.Time
}

// Option configures a Connection.
type Option func(*Connection)

// WithValidator rejects statements before they reach the store.
func WithValidator(v port.QueryValidator) Option {
	return func(c *Connection) { c.validator = v }
}

func WithAuditor(a port.QueryAuditor) Option {
	return func(c *Connection) {
		if a != nil {
			c.auditor = a
		}
	}
}

// WithLogger sets the diagnostic logger. It is unrelated to the query logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Connection) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithInstrumentation(i port.Instrumentation) Option {
	return func(c *Connection) {
		if i != nil {
			c.inst = i
		}
	}
}

// WithValueMask hides text values in log and audit output.
func WithValueMask(m domain.MaskType) Option {
	return func(c *Connection) { c.mask = m }
}

// WithClock replaces time.Now for elapsed-time measurement.
func WithClock(now func() time.Time) Option {
	return func(c *Connection) {
		if now != nil {
			c.now = now
		}
	}
}

func NewConnection(name string, store port.Store, settings *LogSettings, opts ...Option) *Connection {
	c := &Connection{
		name:     name,
		store:    store,
		settings: settings,
		auditor:  port.NoopAuditor{},
		logger:   slog.New(slog.DiscardHandler),
		tracer:   noop.NewTracerProvider().Tracer("noop"),
		inst:     port.NoopInstrumentation{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Connection) Name() string { return c.name }

// Query executes sql with values bound positionally to its "?" markers.
// On success, and only when logging is enabled, exactly one entry is handed
// to the query logger before Query returns. Failed executions are returned as
// *QueryError and produce no entry.
func (c *Connection) Query(ctx context.Context, sql string, values ...any) ([]map[string]any, error) {
	ctx, span := c.tracer.Start(ctx, "Connection.Query",
		trace.WithAttributes(
			attribute.String("db.operation.name", "query"),
			attribute.String("db.statement", sql),
			attribute.String("db.connection", c.name),
		),
	)
	defer span.End()

	if c.validator != nil {
		if err := c.validator.Validate(sql); err != nil {
			c.logger.WarnContext(ctx, "query validation rejected",
				slog.String("db.connection", c.name),
				slog.String("db.statement", sql),
				slog.String("error.type", "validation_error"),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.inst.IncrementQueryErrors(ctx)
			return nil, fmt.Errorf("validation: %w", err)
		}
	}

	start := c.now()
	rows, err := c.store.Query(ctx, sql, values)
	elapsed := c.now().Sub(start)

	c.inst.RecordQueryDuration(ctx, float64(elapsed.Microseconds())/1000)

	bound := domain.MaskValues(domain.ValuesOf(values...), c.mask)
	c.auditor.Record(ctx, port.AuditEntry{
		Connection:   c.name,
		SQL:          sql,
		Values:       literals(bound),
		RowsReturned: len(rows),
		Duration:     elapsed,
		Err:          err,
	})

	if err != nil {
		c.logger.DebugContext(ctx, "query failed",
			slog.String("db.connection", c.name),
			slog.String("db.statement", sql),
			slog.String("error.type", "execution_error"),
			slog.String("error.message", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.inst.IncrementQueryErrors(ctx)
		return nil, &QueryError{Connection: c.name, SQL: sql, Err: err}
	}

	c.inst.IncrementQueryCount(ctx)
	span.SetAttributes(attribute.Int("db.response.rows", len(rows)))

	if ql := c.settings.active(); ql != nil {
		ql.Log(ctx, domain.LogEntry{SQL: sql, Values: bound, Elapsed: elapsed}.String())
		c.inst.IncrementLogEntries(ctx)
	}

	return rows, nil
}

// Close releases the underlying store.
func (c *Connection) Close() error {
	return c.store.Close()
}

func literals(vs domain.Values) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Literal()
	}
	return out
}
