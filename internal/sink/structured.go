package sink

import (
	"context"
	"log/slog"

	"github.com/guillermoBallester/querylog/internal/core/port"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const entryMessage = "query"

// Slog writes each entry as a "query" record carrying an "entry" attribute.
type Slog struct {
	logger *slog.Logger
	level  slog.Level
}

func NewSlog(logger *slog.Logger, level slog.Level) *Slog {
	return &Slog{logger: logger, level: level}
}

func (s *Slog) Log(ctx context.Context, message string) {
	s.logger.LogAttrs(ctx, s.level, entryMessage, slog.String("entry", message))
}

type zerologSink struct {
	logger zerolog.Logger
	level  zerolog.Level
}

func NewZerolog(logger zerolog.Logger, level zerolog.Level) port.QueryLogger {
	return zerologSink{logger: logger, level: level}
}

func (z zerologSink) Log(_ context.Context, message string) {
	z.logger.WithLevel(z.level).Str("entry", message).Msg(entryMessage)
}

type zapSink struct {
	logger *zap.Logger
	level  zapcore.Level
}

func NewZap(logger *zap.Logger, level zapcore.Level) port.QueryLogger {
	return zapSink{logger: logger, level: level}
}

func (z zapSink) Log(_ context.Context, message string) {
	z.logger.Log(z.level, entryMessage, zap.String("entry", message))
}

type tee []port.QueryLogger

// Tee hands every entry to each non-nil logger in order.
func Tee(loggers ...port.QueryLogger) port.QueryLogger {
	var t tee
	for _, l := range loggers {
		if l != nil {
			t = append(t, l)
		}
	}
	return t
}

func (t tee) Log(ctx context.Context, message string) {
	for _, l := range t {
		l.Log(ctx, message)
	}
}
