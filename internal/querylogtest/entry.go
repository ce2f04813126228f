// Package querylogtest parses query log lines back into their parts so tests
// can assert on statement text, bound values and elapsed time separately.
package querylogtest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const valuesMarker = " -- ("

var (
	ErrMalformedEntry  = errors.New("malformed query log entry")
	ErrUnbalancedQuote = errors.New("unterminated quoted value")
	ErrSQLMismatch     = errors.New("logged statement differs")

	elapsedPattern = regexp.MustCompile(`^\d+\.\d{3}$`)
	literalPattern = regexp.MustCompile(`(?s)^(?:NULL|TRUE|FALSE|NaN|[-+]Inf|-?\d+(?:\.\d+)?|X'[0-9a-f]*'|'(?:[^'\\]|\\.)*')$`)
)

// Entry is one parsed log line.
type Entry struct {
	SQL    string
	Values []string // literals as written, nil when the line has no value suffix
	// Elapsed is the seconds field exactly as printed, e.g. "0.004".
	Elapsed string
}

// Seconds returns the elapsed field as a float.
func (e Entry) Seconds() float64 {
	f, _ := strconv.ParseFloat(e.Elapsed, 64)
	return f
}

// WholeSeconds returns the integer part of the elapsed field.
func (e Entry) WholeSeconds() int {
	whole, _, _ := strings.Cut(e.Elapsed, ".")
	n, _ := strconv.Atoi(whole)
	return n
}

// RawValues returns the text between " -- (" and the closing ")".
func (e Entry) RawValues() string {
	return strings.Join(e.Values, ",")
}

// ParseEntry splits line into statement, values and elapsed time without
// knowing the statement. The values suffix starts at the first " -- (" whose
// remainder is a list of well-formed literals; a line holding the marker with
// no such remainder is malformed. When the statement is known, ParseEntryFor
// is exact.
func ParseEntry(line string) (Entry, error) {
	body, elapsed, err := splitElapsed(line)
	if err != nil {
		return Entry{}, err
	}

	var blockErr error
	for from := 0; ; {
		idx := strings.Index(body[from:], valuesMarker)
		if idx < 0 {
			break
		}
		idx += from
		values, err := parseValueBlock(body[idx:])
		if err == nil {
			return Entry{SQL: body[:idx], Values: values, Elapsed: elapsed}, nil
		}
		blockErr = err
		from = idx + 1
	}
	if blockErr != nil {
		return Entry{}, blockErr
	}
	return Entry{SQL: body, Elapsed: elapsed}, nil
}

// ParseEntryFor parses line as an entry for the statement sql. The statement
// is matched as a byte-exact prefix, so markers inside it never split the line.
func ParseEntryFor(line, sql string) (Entry, error) {
	if !strings.HasPrefix(line, sql) {
		return Entry{}, fmt.Errorf("%w: %q does not start with %q", ErrSQLMismatch, line, sql)
	}

	rest, elapsed, err := splitElapsed(line[len(sql):])
	if err != nil {
		return Entry{}, err
	}
	if rest == "" {
		return Entry{SQL: sql, Elapsed: elapsed}, nil
	}

	values, err := parseValueBlock(rest)
	if err != nil {
		return Entry{}, err
	}
	return Entry{SQL: sql, Values: values, Elapsed: elapsed}, nil
}

// MatchEntry reports whether line is a well-formed entry for sql.
func MatchEntry(line, sql string) bool {
	_, err := ParseEntryFor(line, sql)
	return err == nil
}

// splitElapsed cuts the trailing " <seconds>" token off s.
func splitElapsed(s string) (body, elapsed string, err error) {
	i := strings.LastIndexByte(s, ' ')
	if i < 0 || !elapsedPattern.MatchString(s[i+1:]) {
		return "", "", fmt.Errorf("%w: no elapsed seconds in %q", ErrMalformedEntry, s)
	}
	return s[:i], s[i+1:], nil
}

// parseValueBlock parses " -- (<literals>)".
func parseValueBlock(block string) ([]string, error) {
	if !strings.HasPrefix(block, valuesMarker) || !strings.HasSuffix(block, ")") {
		return nil, fmt.Errorf("%w: bad values block %q", ErrMalformedEntry, block)
	}
	values, err := SplitValues(block[len(valuesMarker) : len(block)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEntry, err)
	}
	for _, v := range values {
		if !literalPattern.MatchString(v) {
			return nil, fmt.Errorf("%w: bad literal %q", ErrMalformedEntry, v)
		}
	}
	return values, nil
}

// SplitValues splits a rendered value list on top-level commas. Commas inside
// single-quoted literals, including escaped quotes, do not split.
func SplitValues(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}

	var (
		out     []string
		start   int
		inQuote bool
	)
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; {
		case inQuote && c == '\\':
			i++
		case c == '\'':
			inQuote = !inQuote
		case !inQuote && c == ',':
			out = append(out, raw[start:i])
			start = i + 1
		}
	}
	if inQuote {
		return nil, fmt.Errorf("%w: %s", ErrUnbalancedQuote, raw)
	}
	return append(out, raw[start:]), nil
}

// Unquote returns the text held by a single-quoted literal.
func Unquote(literal string) (string, bool) {
	if len(literal) < 2 || literal[0] != '\'' || literal[len(literal)-1] != '\'' {
		return "", false
	}
	inner := literal[1 : len(literal)-1]

	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String(), true
}
