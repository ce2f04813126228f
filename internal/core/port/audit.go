package port

import (
	"context"
	"time"
)

// AuditEntry represents a single executed statement, successful or not.
type AuditEntry struct {
	Connection   string
	SQL          string
	Values       []string // log literals, already masked
	RowsReturned int
	Duration     time.Duration
	Err          error
}

// QueryAuditor records query audit events.
type QueryAuditor interface {
	Record(ctx context.Context, entry AuditEntry)
	Close() error
}

// NoopAuditor discards all audit entries.
type NoopAuditor struct{}

func (NoopAuditor) Record(context.Context, AuditEntry) {}
func (NoopAuditor) Close() error                       { return nil }
