package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/guillermoBallester/querylog"

// Instruments holds the querylog metric instruments and implements
// port.Instrumentation.
type Instruments struct {
	QueryCount    metric.Int64Counter
	QueryDuration metric.Float64Histogram
	QueryErrors   metric.Int64Counter
	LogEntries    metric.Int64Counter
	ToolDuration  metric.Float64Histogram
}

// NewInstruments creates instruments from the global MeterProvider.
func NewInstruments() *Instruments {
	return NewInstrumentsFrom(otel.GetMeterProvider())
}

// NewInstrumentsFrom creates instruments from mp.
func NewInstrumentsFrom(mp metric.MeterProvider) *Instruments {
	return newInstrumentsFromMeter(mp.Meter(instrumentationName))
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	return NewInstrumentsFrom(noop.NewMeterProvider())
}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// The SDK hands back usable noop instruments alongside any error.
	queryCount, _ := meter.Int64Counter("querylog.query.count",
		metric.WithDescription("Statements executed successfully"),
	)
	queryDuration, _ := meter.Float64Histogram("querylog.query.duration",
		metric.WithDescription("Statement execution time in milliseconds"),
		metric.WithUnit("ms"),
	)
	queryErrors, _ := meter.Int64Counter("querylog.query.errors",
		metric.WithDescription("Statements rejected or failed"),
	)
	logEntries, _ := meter.Int64Counter("querylog.log.entries",
		metric.WithDescription("Entries handed to the query logger"),
	)
	toolDuration, _ := meter.Float64Histogram("querylog.tool.duration",
		metric.WithDescription("MCP tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return &Instruments{
		QueryCount:    queryCount,
		QueryDuration: queryDuration,
		QueryErrors:   queryErrors,
		LogEntries:    logEntries,
		ToolDuration:  toolDuration,
	}
}

func (i *Instruments) RecordQueryDuration(ctx context.Context, ms float64) {
	i.QueryDuration.Record(ctx, ms)
}

func (i *Instruments) IncrementQueryCount(ctx context.Context) {
	i.QueryCount.Add(ctx, 1)
}

func (i *Instruments) IncrementQueryErrors(ctx context.Context) {
	i.QueryErrors.Add(ctx, 1)
}

func (i *Instruments) IncrementLogEntries(ctx context.Context) {
	i.LogEntries.Add(ctx, 1)
}

func (i *Instruments) RecordToolDuration(ctx context.Context, ms float64) {
	i.ToolDuration.Record(ctx, ms)
}
