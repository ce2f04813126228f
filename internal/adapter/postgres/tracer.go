package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

type traceStartKey struct{}

// queryTracer logs every statement pgx sends, with its driver-level duration.
type queryTracer struct {
	log *slog.Logger
}

func newQueryTracer(log *slog.Logger) *queryTracer {
	return &queryTracer{log: log}
}

func (t *queryTracer) TraceQueryStart(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	t.log.LogAttrs(ctx,
		slog.LevelDebug,
		"pgx query start",
		slog.String("db.statement", data.SQL),
		slog.Int("db.args", len(data.Args)),
	)
	return context.WithValue(ctx, traceStartKey{}, time.Now())
}

func (t *queryTracer) TraceQueryEnd(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
	attrs := []slog.Attr{slog.String("db.command_tag", data.CommandTag.String())}
	if start, ok := ctx.Value(traceStartKey{}).(time.Time); ok {
		attrs = append(attrs, slog.Duration("duration", time.Since(start)))
	}
	if data.Err != nil {
		attrs = append(attrs, slog.String("error.message", data.Err.Error()))
	}
	t.log.LogAttrs(ctx, slog.LevelDebug, "pgx query end", attrs...)
}
