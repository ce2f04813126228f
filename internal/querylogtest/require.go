package querylogtest

import (
	"strings"
	"testing"

	"github.com/guillermoBallester/querylog/internal/sink"
	"github.com/stretchr/testify/require"
)

// RequireLastEntry fails t unless the newest entry in m starts with exactly
// sql followed by an optional values block and the elapsed seconds.
func RequireLastEntry(t testing.TB, m *sink.Memory, sql string) Entry {
	t.Helper()

	line, ok := m.Last()
	require.True(t, ok, "no query log entry recorded")

	require.True(t, strings.HasPrefix(line, sql), "logged statement differs: %q", line)
	e, err := ParseEntryFor(line, sql)
	require.NoError(t, err)
	require.Regexp(t, `\d\.\d{3}$`, line)
	return e
}

// RequireNoEntries fails t if m holds any entry.
func RequireNoEntries(t testing.TB, m *sink.Memory) {
	t.Helper()
	require.Empty(t, m.Entries())
}
