package port

import "context"

// QueryLogger receives one formatted entry per executed query.
type QueryLogger interface {
	Log(ctx context.Context, message string)
}

// NoopLogger discards every entry.
type NoopLogger struct{}

func (NoopLogger) Log(context.Context, string) {}
