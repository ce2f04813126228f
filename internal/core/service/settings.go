package service

import (
	"sync"

	"github.com/guillermoBallester/querylog/internal/core/port"
)

// LogSettings holds the active query logger and the logging switch.
// It is shared by every connection a Manager hands out; connections read it on
// each query, so swapping the logger takes effect on the next statement.
type LogSettings struct {
	mu      sync.RWMutex
	logger  port.QueryLogger
	enabled bool
}

func NewLogSettings(logger port.QueryLogger, enabled bool) *LogSettings {
	return &LogSettings{logger: logger, enabled: enabled}
}

// Logger returns the current query logger, which may be nil.
func (s *LogSettings) Logger() port.QueryLogger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

// SetLogger installs l and returns the logger it replaced.
func (s *LogSettings) SetLogger(l port.QueryLogger) port.QueryLogger {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.logger
	s.logger = l
	return prev
}

func (s *LogSettings) SetLogging(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
}

func (s *LogSettings) Logging() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// active returns the logger to emit to, or nil when nothing should be emitted.
func (s *LogSettings) active() port.QueryLogger {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.enabled {
		return nil
	}
	return s.logger
}
