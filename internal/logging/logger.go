package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type requestIDKey struct{}

// Logger provides structured logging for services
type Logger struct {
	zl zerolog.Logger
}

// New builds the root logger. Development output is human readable,
// production output is one JSON object per line.
func New(level string, production bool) Logger {
	var out io.Writer = os.Stderr
	if !production {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(out, level)
}

// NewWithWriter builds a logger writing to w.
func NewWithWriter(w io.Writer, level string) Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return Logger{zl: zerolog.New(w).Level(lvl).With().Timestamp().Logger()}
}

// Nop discards everything.
func Nop() Logger {
	return Logger{zl: zerolog.Nop()}
}

// WithRequestID stores the request ID for loggers derived with FromContext.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID extracts the request ID from a standard context
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// FromContext returns a logger tagged with the request ID carried by ctx.
func (l Logger) FromContext(ctx context.Context) Logger {
	rid := RequestID(ctx)
	if rid == "" {
		return l
	}
	return l.With("request_id", rid)
}

// With returns a child logger with an extra string field.
func (l Logger) With(key, value string) Logger {
	return Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Zerolog exposes the underlying logger for middleware.
func (l Logger) Zerolog() zerolog.Logger {
	return l.zl
}

// LogError logs an error with context
func (l Logger) LogError(operation string, err error) {
	l.zl.Error().Str("operation", operation).Err(err).Send()
}

// LogErrorf logs a formatted error with context
func (l Logger) LogErrorf(operation string, format string, args ...interface{}) {
	l.zl.Error().Str("operation", operation).Msgf(format, args...)
}

// LogInfo logs an info message with context
func (l Logger) LogInfo(operation string, message string) {
	l.zl.Info().Str("operation", operation).Msg(message)
}

// LogInfof logs a formatted info message with context
func (l Logger) LogInfof(operation string, format string, args ...interface{}) {
	l.zl.Info().Str("operation", operation).Msgf(format, args...)
}

// LogWarn logs a warning with context
func (l Logger) LogWarn(operation string, message string) {
	l.zl.Warn().Str("operation", operation).Msg(message)
}

// LogWarnf logs a formatted warning with context
func (l Logger) LogWarnf(operation string, format string, args ...interface{}) {
	l.zl.Warn().Str("operation", operation).Msgf(format, args...)
}

// LogDebugf logs a formatted debug message with context
func (l Logger) LogDebugf(operation string, format string, args ...interface{}) {
	l.zl.Debug().Str("operation", operation).Msgf(format, args...)
}
