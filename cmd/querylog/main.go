package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/guillermoBallester/querylog/internal/adapter/mcp"
	"github.com/guillermoBallester/querylog/internal/adapter/postgres"
	"github.com/guillermoBallester/querylog/internal/adapter/store"
	"github.com/guillermoBallester/querylog/internal/audit"
	"github.com/guillermoBallester/querylog/internal/config"
	"github.com/guillermoBallester/querylog/internal/core/domain"
	"github.com/guillermoBallester/querylog/internal/core/port"
	"github.com/guillermoBallester/querylog/internal/core/service"
	"github.com/guillermoBallester/querylog/internal/sink"
	"github.com/guillermoBallester/querylog/internal/telemetry"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	overrides, err := parseFlags(args)
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr; stdout is reserved for MCP stdio and --sql results.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting querylog",
		slog.String("version", version),
		slog.String("log_level", cfg.LogLevel.String()),
		slog.String("default_connection", cfg.DefaultConnection),
		slog.Bool("read_only", cfg.ReadOnly),
		slog.Bool("query_log", cfg.QueryLog),
		slog.String("query_log_sink", cfg.QueryLogSink),
		slog.String("query_timeout", cfg.QueryTimeout.String()),
	)
	for _, c := range cfg.Connections {
		logger.Debug("connection configured",
			slog.String("db.connection", c.Name),
			slog.String("db.driver", c.Driver),
			slog.String("dsn", redactDSN(c.DSN)),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Telemetry
	var (
		tracer trace.Tracer         = telemetry.NoopTracer()
		inst   port.Instrumentation = telemetry.NoopInstruments()
	)
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, version)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logger.Error("telemetry shutdown", slog.String("error.message", err.Error()))
			}
		}()
		tracer = provider.Tracer()
		inst = provider.Instruments()
		logger.Info("telemetry enabled")
	}

	// Query log
	history := sink.NewBoundedMemory(cfg.QueryLogHistory)
	base, closeSink, err := newQueryLogSink(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()
	settings := service.NewLogSettings(sink.Tee(base, history), cfg.QueryLog)

	// Audit
	var auditor port.QueryAuditor = port.NoopAuditor{}
	if cfg.AuditLog != "" {
		fa, err := audit.NewFileAuditor(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer func() { _ = fa.Close() }()
		auditor = fa
		logger.Info("audit log enabled", slog.String("file", cfg.AuditLog))
	}

	// Connections
	opener := &store.Opener{
		Pool: postgres.PoolConfig{
			MaxConns:        cfg.PoolMaxConns,
			MinConns:        cfg.PoolMinConns,
			MaxConnLifetime: cfg.PoolMaxConnLifetime,
		},
		ReadOnly:     cfg.ReadOnly,
		MaxRows:      cfg.MaxRows,
		QueryTimeout: cfg.QueryTimeout,
		Logger:       logger,
	}
	manager := service.NewManager(connectionSpecs(cfg), cfg.DefaultConnection, opener, settings,
		service.WithLogger(logger),
		service.WithAuditor(auditor),
		service.WithTracer(tracer),
		service.WithInstrumentation(inst),
		service.WithValueMask(cfg.QueryLogMask),
	).WithSpecOptions(specOptions(cfg.ReadOnly))
	defer func() {
		if err := manager.Close(); err != nil {
			logger.Error("closing connections", slog.String("error.message", err.Error()))
		}
	}()

	if cfg.SQL != "" {
		return runOnce(ctx, manager, cfg.SQL, parseValues(cfg.Values), os.Stdout)
	}

	mcpServer := mcp.NewServer(version, mcp.Deps{Manager: manager, History: history}, logger, tracer, inst)
	stdioServer := mcpserver.NewStdioServer(mcpServer)

	logger.Info("serving MCP over stdio")
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// runOnce executes sql on the default connection and writes the rows as JSON.
func runOnce(ctx context.Context, manager *service.Manager, sql string, values []any, w io.Writer) error {
	conn, err := manager.GetConnection(ctx, "")
	if err != nil {
		return err
	}

	rows, err := conn.Query(ctx, sql, values...)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// newQueryLogSink builds the configured query logger. The returned func
// flushes and closes it.
func newQueryLogSink(cfg *config.Config, logger *slog.Logger) (port.QueryLogger, func(), error) {
	noop := func() {}

	switch cfg.QueryLogSink {
	case config.SinkSlog:
		return sink.NewSlog(logger, slog.LevelInfo), noop, nil

	case config.SinkZerolog:
		zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
		return sink.NewZerolog(zl, zerolog.InfoLevel), noop, nil

	case config.SinkZap:
		zl, err := zap.NewProduction()
		if err != nil {
			return nil, nil, fmt.Errorf("creating zap logger: %w", err)
		}
		return sink.NewZap(zl, zap.InfoLevel), func() { _ = zl.Sync() }, nil

	case config.SinkFile:
		w, err := sink.NewFile(cfg.QueryLogFile)
		if err != nil {
			return nil, nil, fmt.Errorf("opening query log file: %w", err)
		}
		return w, func() { _ = w.Close() }, nil

	default:
		return nil, noop, nil
	}
}

func connectionSpecs(cfg *config.Config) []port.ConnectionSpec {
	specs := make([]port.ConnectionSpec, len(cfg.Connections))
	for i, c := range cfg.Connections {
		specs[i] = port.ConnectionSpec{Name: c.Name, Driver: c.Driver, DSN: c.DSN}
	}
	return specs
}

// specOptions guards PostgreSQL connections with the read-only validator.
// The validator parses PostgreSQL grammar, so other drivers run unchecked.
func specOptions(readOnly bool) func(port.ConnectionSpec) []service.Option {
	validator := domain.NewPgQueryValidator()
	return func(spec port.ConnectionSpec) []service.Option {
		if !readOnly {
			return nil
		}
		switch spec.Driver {
		case "", "pgx", "postgres":
			return []service.Option{service.WithValidator(validator)}
		}
		return nil
	}
}
