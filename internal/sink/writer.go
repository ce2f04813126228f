package sink

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
)

// Writer writes each entry as one line. Line breaks inside an entry, as in
// multi-line SQL, are written as the two-character sequences \n and \r, so a
// line-based reader sees one entry per line but cannot tell them apart from
// the same sequences typed into the SQL. Concurrent Log calls never interleave.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

var lineBreaks = strings.NewReplacer("\n", `\n`, "\r", `\r`)

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewFile opens (or creates) the file at path for append-only writing.
func NewFile(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Writer{w: f, closer: f}, nil
}

func (s *Writer) Log(_ context.Context, message string) {
	buf := make([]byte, 0, len(message)+1)
	buf = append(buf, lineBreaks.Replace(message)...)
	buf = append(buf, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(buf) // best-effort; a log write never fails the query
}

// Close closes the underlying file when the sink owns one.
func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
