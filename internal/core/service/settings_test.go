package service

import (
	"testing"

	"github.com/guillermoBallester/querylog/internal/sink"
	"github.com/stretchr/testify/assert"
)

func TestLogSettings_SetLoggerReturnsPrevious(t *testing.T) {
	first, second := sink.NewMemory(), sink.NewMemory()
	s := NewLogSettings(first, true)

	prev := s.SetLogger(second)
	assert.Same(t, first, prev)
	assert.Same(t, second, s.Logger())
}

func TestLogSettings_Active(t *testing.T) {
	m := sink.NewMemory()

	tests := []struct {
		name    string
		logger  *sink.Memory
		enabled bool
		active  bool
	}{
		{name: "enabled with logger", logger: m, enabled: true, active: true},
		{name: "disabled with logger", logger: m, enabled: false, active: false},
		{name: "enabled without logger", logger: nil, enabled: true, active: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s *LogSettings
			if tt.logger != nil {
				s = NewLogSettings(tt.logger, tt.enabled)
			} else {
				s = NewLogSettings(nil, tt.enabled)
			}
			assert.Equal(t, tt.active, s.active() != nil)
		})
	}
}

func TestLogSettings_Toggle(t *testing.T) {
	s := NewLogSettings(sink.NewMemory(), false)
	assert.False(t, s.Logging())

	s.SetLogging(true)
	assert.True(t, s.Logging())
	assert.NotNil(t, s.active())

	s.SetLogging(false)
	assert.Nil(t, s.active())
}

func TestLogSettings_NilIsInactive(t *testing.T) {
	var s *LogSettings
	assert.Nil(t, s.active())
}
