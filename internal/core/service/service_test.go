package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/guillermoBallester/querylog/internal/core/port"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fake Store ---

type fakeStore struct {
	mu       sync.Mutex
	calls    int
	lastSQL  string
	lastArgs []any
	result   []map[string]any
	err      error
	closed   bool
	closeErr error
}

func (s *fakeStore) Query(_ context.Context, sql string, args []any) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastSQL = sql
	s.lastArgs = args
	return s.result, s.err
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closeErr
}

// --- fake clock ---

// stepClock advances by step on every reading.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

// --- recording auditor / instrumentation ---

type recordingAuditor struct {
	mu      sync.Mutex
	entries []port.AuditEntry
}

func (a *recordingAuditor) Record(_ context.Context, e port.AuditEntry) {
	a.mu.Lock()
	a.entries = append(a.entries, e)
	a.mu.Unlock()
}

func (a *recordingAuditor) Close() error { return nil }

type countingInstrumentation struct {
	mu         sync.Mutex
	durations  []float64
	queries    int
	errors     int
	logEntries int
}

func (i *countingInstrumentation) RecordQueryDuration(_ context.Context, ms float64) {
	i.mu.Lock()
	i.durations = append(i.durations, ms)
	i.mu.Unlock()
}

func (i *countingInstrumentation) IncrementQueryCount(context.Context) {
	i.mu.Lock()
	i.queries++
	i.mu.Unlock()
}

func (i *countingInstrumentation) IncrementQueryErrors(context.Context) {
	i.mu.Lock()
	i.errors++
	i.mu.Unlock()
}

func (i *countingInstrumentation) IncrementLogEntries(context.Context) {
	i.mu.Lock()
	i.logEntries++
	i.mu.Unlock()
}

func (i *countingInstrumentation) RecordToolDuration(context.Context, float64) {}
