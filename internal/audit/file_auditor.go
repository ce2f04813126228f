// Package audit persists executed statements for later review.
package audit

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/guillermoBallester/querylog/internal/core/port"
)

// event is the NDJSON form of one audited statement.
type event struct {
	Timestamp  string   `json:"ts"`
	QueryID    string   `json:"query_id"`
	Connection string   `json:"connection"`
	SQL        string   `json:"sql"`
	Values     []string `json:"values,omitempty"`
	Rows       int      `json:"rows"`
	DurationMS float64  `json:"duration_ms"`
	Error      *string  `json:"error"`
}

// FileAuditor appends one JSON object per statement to a file.
type FileAuditor struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	now  func() time.Time
}

// NewFileAuditor opens (or creates) the file at path for append-only writing.
func NewFileAuditor(path string) (*FileAuditor, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FileAuditor{
		file: f,
		enc:  json.NewEncoder(f),
		now:  time.Now,
	}, nil
}

func (a *FileAuditor) Record(_ context.Context, entry port.AuditEntry) {
	ev := event{
		Timestamp:  a.now().UTC().Format(time.RFC3339Nano),
		QueryID:    uuid.NewString(),
		Connection: entry.Connection,
		SQL:        entry.SQL,
		Values:     entry.Values,
		Rows:       entry.RowsReturned,
		DurationMS: float64(entry.Duration.Microseconds()) / 1000,
	}
	if entry.Err != nil {
		s := entry.Err.Error()
		ev.Error = &s
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.enc.Encode(ev) // best-effort; audit I/O never fails a query
}

func (a *FileAuditor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}
