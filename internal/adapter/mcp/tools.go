package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/guillermoBallester/querylog/internal/core/domain"
	"github.com/guillermoBallester/querylog/internal/core/service"
	"github.com/guillermoBallester/querylog/internal/sink"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mattn/go-sqlite3"
)

const serverName = "querylog"

const defaultLogLimit = 20

// Tool descriptions
const (
	descQuery = "Execute a SQL statement on a named connection and return the rows as a JSON array of objects. " +
		"Use ? placeholders and pass the bound values in order through 'values'. " +
		"Every successful statement is written to the query log when logging is enabled."

	descQuerySQL        = "SQL statement with ? placeholders"
	descQueryValues     = "Values bound to the ? placeholders, in order. Use null for NULL."
	descQueryConnection = "Connection name (optional, defaults to the default connection)"

	descQueryLog = "Return the most recent query log entries, oldest first. " +
		"Each entry reads '<sql> -- (<values>) <seconds>'; the values part is omitted when nothing was bound."

	descQueryLogLimit = "Maximum number of entries to return (default 20)"

	descSetQueryLogging = "Turn query logging on or off for every connection. Statements still run while logging is off."

	descConnections = "List configured connection names and which one is the default."

	descDropConnection = "Close a connection. It is reopened on next use."
)

// Deps are the services the tools operate on.
type Deps struct {
	Manager *service.Manager
	// History mirrors the query log for the query_log tool. It may be nil.
	History *sink.Memory
}

func RegisterTools(s *server.MCPServer, deps Deps, logger *slog.Logger) {
	s.AddTool(
		mcp.NewTool("query",
			mcp.WithDescription(descQuery),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description(descQuerySQL),
			),
			mcp.WithArray("values",
				mcp.Description(descQueryValues),
			),
			mcp.WithString("connection",
				mcp.Description(descQueryConnection),
			),
		),
		queryHandler(deps.Manager, logger),
	)

	if deps.History != nil {
		s.AddTool(
			mcp.NewTool("query_log",
				mcp.WithDescription(descQueryLog),
				mcp.WithNumber("limit",
					mcp.Description(descQueryLogLimit),
				),
			),
			queryLogHandler(deps.History),
		)
	}

	s.AddTool(
		mcp.NewTool("set_query_logging",
			mcp.WithDescription(descSetQueryLogging),
			mcp.WithBoolean("enabled",
				mcp.Required(),
				mcp.Description("true to log statements, false to stop"),
			),
		),
		setQueryLoggingHandler(deps.Manager.Settings()),
	)

	s.AddTool(
		mcp.NewTool("list_connections",
			mcp.WithDescription(descConnections),
		),
		listConnectionsHandler(deps.Manager),
	)

	s.AddTool(
		mcp.NewTool("drop_connection",
			mcp.WithDescription(descDropConnection),
			mcp.WithString("connection",
				mcp.Description(descQueryConnection),
			),
		),
		dropConnectionHandler(deps.Manager, logger),
	)
}

func queryHandler(manager *service.Manager, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		sql, ok := args["sql"].(string)
		if !ok || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		var values []any
		if raw, present := args["values"]; present && raw != nil {
			list, ok := raw.([]any)
			if !ok {
				return mcp.NewToolResultError("values must be an array"), nil
			}
			values = bindValues(list)
		}

		name, _ := args["connection"].(string)
		conn, err := manager.GetConnection(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(sanitizeError(logger, err, "open connection")), nil
		}

		results, err := conn.Query(ctx, sql, values...)
		if err != nil {
			return mcp.NewToolResultError(sanitizeError(logger, err, "query")), nil
		}

		data, err := json.Marshal(results)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func queryLogHandler(history *sink.Memory) server.ToolHandlerFunc {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := defaultLogLimit
		if v, ok := request.GetArguments()["limit"].(float64); ok {
			if v < 1 {
				return mcp.NewToolResultError("limit must be at least 1"), nil
			}
			limit = int(v)
		}

		data, err := json.Marshal(history.Tail(limit))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func setQueryLoggingHandler(settings *service.LogSettings) server.ToolHandlerFunc {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		enabled, ok := request.GetArguments()["enabled"].(bool)
		if !ok {
			return mcp.NewToolResultError("enabled is required"), nil
		}

		settings.SetLogging(enabled)
		if enabled {
			return mcp.NewToolResultText("query logging enabled"), nil
		}
		return mcp.NewToolResultText("query logging disabled"), nil
	}
}

type connectionList struct {
	Default     string   `json:"default"`
	Connections []string `json:"connections"`
	Logging     bool     `json:"logging"`
}

func listConnectionsHandler(manager *service.Manager) server.ToolHandlerFunc {
	return func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(connectionList{
			Default:     manager.DefaultConnection(),
			Connections: manager.Names(),
			Logging:     manager.Settings().Logging(),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func dropConnectionHandler(manager *service.Manager, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, _ := request.GetArguments()["connection"].(string)
		if name == "" {
			name = manager.DefaultConnection()
		}
		if err := manager.DropConnection(name); err != nil {
			return mcp.NewToolResultError(sanitizeError(logger, err, "drop connection")), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("connection %q closed", name)), nil
	}
}

// bindValues turns decoded JSON values into driver arguments. JSON numbers
// arrive as float64; whole numbers are bound as integers.
func bindValues(list []any) []any {
	out := make([]any, len(list))
	for i, v := range list {
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			out[i] = int64(f)
			continue
		}
		out[i] = v
	}
	return out
}

// sanitizeError maps an error to a message safe to show to the caller.
// Validation and database errors pass through; anything else is logged and
// replaced with a generic message.
func sanitizeError(logger *slog.Logger, err error, op string) string {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery),
		errors.Is(err, domain.ErrNotAllowed),
		errors.Is(err, domain.ErrMultiStatement),
		errors.Is(err, domain.ErrParseFailed),
		errors.Is(err, service.ErrUnknownConnection):
		return err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("%s timed out", op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "57014" {
			return fmt.Sprintf("%s timed out", op)
		}
		return fmt.Sprintf("%s failed: %s (SQLSTATE %s)", op, pgErr.Message, pgErr.Code)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return fmt.Sprintf("%s failed: %s", op, liteErr.Error())
	}

	logger.Error("tool operation failed", slog.String("op", op), slog.String("error.message", err.Error()))
	return fmt.Sprintf("internal error during %s: check server logs", op)
}
