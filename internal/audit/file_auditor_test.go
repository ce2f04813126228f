package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guillermoBallester/querylog/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvents(t *testing.T, path string) []event {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	var events []event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev), "line %d: %s", len(events)+1, scanner.Text())
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestNewFileAuditor_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := NewFileAuditor("/nonexistent/dir/audit.jsonl")
	require.Error(t, err)
}

func TestFileAuditor_Record(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	fa, err := NewFileAuditor(path)
	require.NoError(t, err)
	fa.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	fa.Record(context.Background(), port.AuditEntry{
		Connection:   "main",
		SQL:          "SELECT UPPER(?);",
		Values:       []string{`'It\'s'`},
		RowsReturned: 1,
		Duration:     1500 * time.Microsecond,
	})
	require.NoError(t, fa.Close())

	events := readEvents(t, path)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "2024-03-01T12:00:00Z", ev.Timestamp)
	assert.Equal(t, "main", ev.Connection)
	assert.Equal(t, "SELECT UPPER(?);", ev.SQL)
	assert.Equal(t, []string{`'It\'s'`}, ev.Values)
	assert.Equal(t, 1, ev.Rows)
	assert.InDelta(t, 1.5, ev.DurationMS, 1e-9)
	assert.Nil(t, ev.Error)

	_, err = uuid.Parse(ev.QueryID)
	assert.NoError(t, err)
}

func TestFileAuditor_Record_WithError(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	fa, err := NewFileAuditor(path)
	require.NoError(t, err)

	fa.Record(context.Background(), port.AuditEntry{
		Connection: "main",
		SQL:        "SELECT bad",
		Err:        fmt.Errorf("syntax error"),
	})
	require.NoError(t, fa.Close())

	events := readEvents(t, path)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Error)
	assert.Equal(t, "syntax error", *events[0].Error)
	assert.Empty(t, events[0].Values)
}

func TestFileAuditor_Record_ConcurrentWrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	fa, err := NewFileAuditor(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			fa.Record(context.Background(), port.AuditEntry{
				Connection: "main",
				SQL:        fmt.Sprintf("SELECT %d", n),
			})
		}(i)
	}
	wg.Wait()
	require.NoError(t, fa.Close())

	events := readEvents(t, path)
	assert.Len(t, events, 50)

	ids := make(map[string]struct{}, len(events))
	for _, ev := range events {
		ids[ev.QueryID] = struct{}{}
	}
	assert.Len(t, ids, 50, "query IDs are unique")
}

func TestFileAuditor_Append(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	fa1, err := NewFileAuditor(path)
	require.NoError(t, err)
	fa1.Record(context.Background(), port.AuditEntry{Connection: "main", SQL: "SELECT 1"})
	require.NoError(t, fa1.Close())

	fa2, err := NewFileAuditor(path)
	require.NoError(t, err)
	fa2.Record(context.Background(), port.AuditEntry{Connection: "main", SQL: "SELECT 2"})
	require.NoError(t, fa2.Close())

	events := readEvents(t, path)
	require.Len(t, events, 2)
	assert.Equal(t, "SELECT 1", events[0].SQL)
	assert.Equal(t, "SELECT 2", events[1].SQL)
}

func TestNoopAuditor(t *testing.T) {
	t.Parallel()
	a := port.NoopAuditor{}
	a.Record(context.Background(), port.AuditEntry{Connection: "main", SQL: "SELECT 1"})
	assert.NoError(t, a.Close())
}
