package domain

import (
	"strconv"
	"strings"
	"time"
)

// LogEntry is one record of a single query execution.
type LogEntry struct {
	SQL     string
	Values  Values
	Elapsed time.Duration
}

// String renders the entry as
//
//	<sql>[ -- (<v1>,<v2>,...)] <seconds with three decimals>
//
// The SQL text is kept verbatim, trailing terminators included.
func (e LogEntry) String() string {
	var b strings.Builder
	b.Grow(len(e.SQL) + 16)
	b.WriteString(e.SQL)
	if len(e.Values) > 0 {
		b.WriteString(" -- (")
		b.WriteString(e.Values.String())
		b.WriteByte(')')
	}
	b.WriteByte(' ')
	b.WriteString(FormatElapsed(e.Elapsed))
	return b.String()
}

// FormatElapsed formats d as fractional seconds with exactly three decimals.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
