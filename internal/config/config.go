package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guillermoBallester/querylog/internal/core/domain"
)

const (
	DefaultConnectionName = "default"

	driverList = "pgx, postgres, sqlite3"
)

// Query log sinks.
const (
	SinkSlog    = "slog"
	SinkZerolog = "zerolog"
	SinkZap     = "zap"
	SinkFile    = "file"
	SinkNone    = "none"
)

type Config struct {
	// Connections.
	DatabaseURL       string
	DatabaseDriver    string
	ConnectionsFile   string
	DefaultConnection string
	Connections       []Connection // resolved from DATABASE_URL and CONNECTIONS_FILE

	// Query log.
	QueryLog        bool
	QueryLogSink    string
	QueryLogFile    string
	QueryLogMask    domain.MaskType
	QueryLogHistory int

	// Execution.
	ReadOnly     bool
	MaxRows      int
	QueryTimeout time.Duration

	// Logging.
	LogLevel slog.Level

	// Connection pool.
	PoolMaxConns        int32         // default: 5
	PoolMinConns        int32         // default: 1
	PoolMaxConnLifetime time.Duration // default: 30m

	// Observability.
	OTelEnabled bool

	// CLI-only fields (not settable via env vars).
	AuditLog string   // path to NDJSON audit log file
	SQL      string   // one-shot statement
	Values   []string // values bound to SQL
}

// Overrides holds CLI flag values that override environment variables.
// Pointer fields distinguish "not set" from zero values.
type Overrides struct {
	DatabaseURL       *string
	DatabaseDriver    *string
	ConnectionsFile   *string
	DefaultConnection *string
	QueryLog          *bool
	QueryLogSink      *string
	QueryLogFile      *string
	QueryLogMask      *string
	ReadOnly          *bool
	MaxRows           *int
	QueryTimeout      *time.Duration
	LogLevel          *string
	OTelEnabled       bool
	AuditLog          string
	SQL               string
	Values            []string

	// Connection pool overrides.
	PoolMaxConns        *int32
	PoolMinConns        *int32
	PoolMaxConnLifetime *time.Duration
}

// Load builds a Config from environment variables, then applies CLI overrides,
// then resolves connections and validates the result.
func Load(overrides Overrides) (*Config, error) {
	cfg := defaults()

	if err := loadEnvVars(cfg); err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, err
	}
	if err := resolveConnections(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config populated with default values.
func defaults() *Config {
	return &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DatabaseDriver:      "pgx",
		QueryLog:            true,
		QueryLogSink:        SinkSlog,
		QueryLogHistory:     200,
		ReadOnly:            true,
		MaxRows:             100,
		QueryTimeout:        10 * time.Second,
		PoolMaxConns:        5,
		PoolMinConns:        1,
		PoolMaxConnLifetime: 30 * time.Minute,
	}
}

// loadEnvVars reads all supported environment variables into cfg.
func loadEnvVars(cfg *Config) error {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.DatabaseDriver = v
	}
	cfg.ConnectionsFile = os.Getenv("CONNECTIONS_FILE")
	cfg.DefaultConnection = os.Getenv("DEFAULT_CONNECTION")

	if err := parseBoolEnv("READ_ONLY", &cfg.ReadOnly); err != nil {
		return err
	}

	if v := os.Getenv("MAX_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MAX_ROWS value %q: must be a positive integer", v)
		}
		cfg.MaxRows = n
	}

	if v := os.Getenv("QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QUERY_TIMEOUT value %q: %w", v, err)
		}
		cfg.QueryTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	if err := parseBoolEnv("OTEL_ENABLED", &cfg.OTelEnabled); err != nil {
		return err
	}

	if err := loadQueryLogEnvVars(cfg); err != nil {
		return err
	}

	if err := loadPoolEnvVars(cfg); err != nil {
		return err
	}

	return nil
}

// loadQueryLogEnvVars reads the QUERY_LOG_* environment variables.
func loadQueryLogEnvVars(cfg *Config) error {
	if err := parseBoolEnv("QUERY_LOG", &cfg.QueryLog); err != nil {
		return err
	}
	if v := os.Getenv("QUERY_LOG_SINK"); v != "" {
		cfg.QueryLogSink = strings.ToLower(strings.TrimSpace(v))
	}
	cfg.QueryLogFile = os.Getenv("QUERY_LOG_FILE")

	if v := os.Getenv("QUERY_LOG_MASK"); v != "" {
		m, err := domain.ParseMaskType(v)
		if err != nil {
			return fmt.Errorf("invalid QUERY_LOG_MASK value: %w", err)
		}
		cfg.QueryLogMask = m
	}

	if v := os.Getenv("QUERY_LOG_HISTORY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid QUERY_LOG_HISTORY value %q: must be a positive integer", v)
		}
		cfg.QueryLogHistory = n
	}
	return nil
}

// loadPoolEnvVars reads connection pool environment variables.
func loadPoolEnvVars(cfg *Config) error {
	if v := os.Getenv("POOL_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid POOL_MAX_CONNS value %q: must be a positive integer", v)
		}
		cfg.PoolMaxConns = int32(n)
	}
	if v := os.Getenv("POOL_MIN_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid POOL_MIN_CONNS value %q: must be a non-negative integer", v)
		}
		cfg.PoolMinConns = int32(n)
	}
	if v := os.Getenv("POOL_MAX_CONN_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POOL_MAX_CONN_LIFETIME value %q: %w", v, err)
		}
		cfg.PoolMaxConnLifetime = d
	}
	return nil
}

func parseBoolEnv(name string, dst *bool) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", name, v, err)
	}
	*dst = b
	return nil
}

// applyOverrides applies CLI flag values on top of the env-loaded config.
func applyOverrides(cfg *Config, o Overrides) error {
	if o.DatabaseURL != nil {
		cfg.DatabaseURL = *o.DatabaseURL
	}
	if o.DatabaseDriver != nil {
		cfg.DatabaseDriver = *o.DatabaseDriver
	}
	if o.ConnectionsFile != nil {
		cfg.ConnectionsFile = *o.ConnectionsFile
	}
	if o.DefaultConnection != nil {
		cfg.DefaultConnection = *o.DefaultConnection
	}
	if o.QueryLog != nil {
		cfg.QueryLog = *o.QueryLog
	}
	if o.QueryLogSink != nil {
		cfg.QueryLogSink = strings.ToLower(strings.TrimSpace(*o.QueryLogSink))
	}
	if o.QueryLogFile != nil {
		cfg.QueryLogFile = *o.QueryLogFile
	}
	if o.QueryLogMask != nil {
		m, err := domain.ParseMaskType(*o.QueryLogMask)
		if err != nil {
			return fmt.Errorf("invalid --query-log-mask value: %w", err)
		}
		cfg.QueryLogMask = m
	}
	if o.ReadOnly != nil {
		cfg.ReadOnly = *o.ReadOnly
	}
	if o.MaxRows != nil {
		if *o.MaxRows <= 0 {
			return fmt.Errorf("invalid --max-rows value: must be a positive integer")
		}
		cfg.MaxRows = *o.MaxRows
	}
	if o.QueryTimeout != nil {
		cfg.QueryTimeout = *o.QueryTimeout
	}
	if o.LogLevel != nil {
		level, err := parseLogLevel(*o.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	if err := applyPoolOverrides(cfg, o); err != nil {
		return err
	}

	cfg.AuditLog = o.AuditLog
	cfg.SQL = o.SQL
	cfg.Values = o.Values
	cfg.OTelEnabled = cfg.OTelEnabled || o.OTelEnabled

	return nil
}

// applyPoolOverrides applies connection pool CLI flag overrides.
func applyPoolOverrides(cfg *Config, o Overrides) error {
	if o.PoolMaxConns != nil {
		if *o.PoolMaxConns <= 0 {
			return fmt.Errorf("invalid --pool-max-conns value: must be a positive integer")
		}
		cfg.PoolMaxConns = *o.PoolMaxConns
	}
	if o.PoolMinConns != nil {
		if *o.PoolMinConns < 0 {
			return fmt.Errorf("invalid --pool-min-conns value: must be a non-negative integer")
		}
		cfg.PoolMinConns = *o.PoolMinConns
	}
	if o.PoolMaxConnLifetime != nil {
		cfg.PoolMaxConnLifetime = *o.PoolMaxConnLifetime
	}
	return nil
}

// resolveConnections merges CONNECTIONS_FILE with DATABASE_URL. DATABASE_URL
// defines (or replaces) the connection called "default".
func resolveConnections(cfg *Config) error {
	byName := make(map[string]Connection)
	var fileDefault string

	if cfg.ConnectionsFile != "" {
		cf, err := LoadConnectionsFile(cfg.ConnectionsFile)
		if err != nil {
			return err
		}
		fileDefault = cf.Default
		for _, c := range cf.List() {
			byName[c.Name] = c
		}
	}

	if cfg.DatabaseURL != "" {
		byName[DefaultConnectionName] = Connection{
			Name:   DefaultConnectionName,
			Driver: cfg.DatabaseDriver,
			DSN:    cfg.DatabaseURL,
		}
	}

	if cfg.DefaultConnection == "" {
		cfg.DefaultConnection = fileDefault
	}
	if cfg.DefaultConnection == "" {
		cfg.DefaultConnection = DefaultConnectionName
	}

	cfg.Connections = cfg.Connections[:0]
	for _, c := range byName {
		cfg.Connections = append(cfg.Connections, c)
	}
	sort.Slice(cfg.Connections, func(i, j int) bool { return cfg.Connections[i].Name < cfg.Connections[j].Name })
	return nil
}

// validate checks cross-field constraints on the final config.
func validate(cfg *Config) error {
	if len(cfg.Connections) == 0 {
		return fmt.Errorf("DATABASE_URL or CONNECTIONS_FILE is required (set via env var or --database-url / --connections-file flag)")
	}

	if !validDriver(cfg.DatabaseDriver) {
		return fmt.Errorf("invalid DATABASE_DRIVER value %q: must be one of %s", cfg.DatabaseDriver, driverList)
	}

	found := false
	for _, c := range cfg.Connections {
		if c.Name == cfg.DefaultConnection {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("DEFAULT_CONNECTION %q is not a configured connection", cfg.DefaultConnection)
	}

	switch cfg.QueryLogSink {
	case SinkSlog, SinkZerolog, SinkZap, SinkNone:
	case SinkFile:
		if cfg.QueryLogFile == "" {
			return fmt.Errorf("QUERY_LOG_FILE is required when QUERY_LOG_SINK is \"file\"")
		}
	default:
		return fmt.Errorf("invalid QUERY_LOG_SINK value %q: must be slog, zerolog, zap, file, or none", cfg.QueryLogSink)
	}

	if cfg.PoolMinConns > cfg.PoolMaxConns {
		return fmt.Errorf("POOL_MIN_CONNS (%d) must not exceed POOL_MAX_CONNS (%d)", cfg.PoolMinConns, cfg.PoolMaxConns)
	}

	return nil
}

func validDriver(d string) bool {
	switch d {
	case "pgx", "postgres", "sqlite3":
		return true
	}
	return false
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
