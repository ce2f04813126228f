package main

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/guillermoBallester/querylog/internal/config"
)

// valueList collects repeated --value flags in order.
type valueList []string

func (v *valueList) String() string { return strings.Join(*v, ",") }

func (v *valueList) Set(s string) error {
	*v = append(*v, s)
	return nil
}

// parseFlags maps command-line flags onto config.Overrides. Only flags that
// were given on the command line are set.
func parseFlags(args []string) (config.Overrides, error) {
	fs := flag.NewFlagSet("querylog", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		o       config.Overrides
		values  valueList
		strs    = map[string]*string{}
		bools   = map[string]*bool{}
		maxRows = fs.Int("max-rows", 0, "maximum rows returned per statement")
		timeout = fs.Duration("query-timeout", 0, "per-statement timeout")
		maxConn = fs.Int("pool-max-conns", 0, "pgx pool maximum connections")
		minConn = fs.Int("pool-min-conns", 0, "pgx pool minimum connections")
		connTTL = fs.Duration("pool-max-conn-lifetime", 0, "pgx pool connection lifetime")
	)

	for _, name := range []string{
		"database-url", "driver", "connections-file", "default-connection",
		"query-log-sink", "query-log-file", "query-log-mask", "log-level",
	} {
		strs[name] = fs.String(name, "", "")
	}
	for _, name := range []string{"query-log", "read-only"} {
		bools[name] = fs.Bool(name, false, "")
	}

	fs.BoolVar(&o.OTelEnabled, "otel", false, "export traces and metrics over OTLP")
	fs.StringVar(&o.AuditLog, "audit-log", "", "append executed statements to this NDJSON file")
	fs.StringVar(&o.SQL, "sql", "", "run one statement on the default connection and exit")
	fs.Var(&values, "value", "value bound to the next ? in --sql (repeatable)")

	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, err
	}
	if fs.NArg() > 0 {
		return config.Overrides{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	str := func(name string) *string {
		if !set[name] {
			return nil
		}
		return strs[name]
	}
	o.DatabaseURL = str("database-url")
	o.DatabaseDriver = str("driver")
	o.ConnectionsFile = str("connections-file")
	o.DefaultConnection = str("default-connection")
	o.QueryLogSink = str("query-log-sink")
	o.QueryLogFile = str("query-log-file")
	o.QueryLogMask = str("query-log-mask")
	o.LogLevel = str("log-level")

	if set["query-log"] {
		o.QueryLog = bools["query-log"]
	}
	if set["read-only"] {
		o.ReadOnly = bools["read-only"]
	}
	if set["max-rows"] {
		o.MaxRows = maxRows
	}
	if set["query-timeout"] {
		o.QueryTimeout = timeout
	}
	if set["pool-max-conns"] {
		n := int32(*maxConn)
		o.PoolMaxConns = &n
	}
	if set["pool-min-conns"] {
		n := int32(*minConn)
		o.PoolMinConns = &n
	}
	if set["pool-max-conn-lifetime"] {
		o.PoolMaxConnLifetime = connTTL
	}

	if len(values) > 0 && o.SQL == "" {
		return config.Overrides{}, fmt.Errorf("--value requires --sql")
	}
	o.Values = values

	return o, nil
}

// parseValue turns a --value argument into a bind value. "null" is NULL,
// integers, floats and booleans keep their type, and single quotes force text.
func parseValue(s string) any {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	if strings.EqualFold(s, "null") {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func parseValues(raw []string) []any {
	out := make([]any, len(raw))
	for i, s := range raw {
		out[i] = parseValue(s)
	}
	return out
}

// redactDSN masks the password of URL-style DSNs. Other DSNs are returned as is.
func redactDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
