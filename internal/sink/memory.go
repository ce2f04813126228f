// Package sink provides port.QueryLogger implementations.
package sink

import (
	"context"
	"sync"
)

// Memory keeps log entries in order of arrival.
type Memory struct {
	mu      sync.Mutex
	entries []string
	limit   int // 0 means unbounded
}

// NewMemory returns an unbounded in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// NewBoundedMemory keeps only the most recent limit entries.
func NewBoundedMemory(limit int) *Memory {
	if limit < 0 {
		limit = 0
	}
	return &Memory{limit: limit}
}

func (m *Memory) Log(_ context.Context, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, message)
	if m.limit > 0 && len(m.entries) > m.limit {
		n := copy(m.entries, m.entries[len(m.entries)-m.limit:])
		clear(m.entries[n:])
		m.entries = m.entries[:n]
	}
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
}

// Entries returns a copy of the stored entries, oldest first.
func (m *Memory) Entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out
}

// Last returns the newest entry.
func (m *Memory) Last() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return "", false
	}
	return m.entries[len(m.entries)-1], true
}

// Tail returns up to n of the newest entries, oldest first.
func (m *Memory) Tail(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]string, n)
	copy(out, m.entries[len(m.entries)-n:])
	return out
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
