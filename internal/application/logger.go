package application

import (
	"context"
	"log/slog"
	"sort"
)

// StructuredLogger provides structured logging with context fields.
type StructuredLogger struct {
	logger *slog.Logger
}

// NewStructuredLogger wraps logger; a nil logger falls back to slog.Default().
func NewStructuredLogger(logger *slog.Logger) *StructuredLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &StructuredLogger{logger: logger}
}

// With returns a logger that adds fields to every entry.
func (l *StructuredLogger) With(fields map[string]interface{}) *StructuredLogger {
	return &StructuredLogger{logger: l.logger.With(attrs(fields, nil)...)}
}

// LogDebug logs a debug message with context.
func (l *StructuredLogger) LogDebug(message string, fields map[string]interface{}) {
	l.log(slog.LevelDebug, message, nil, fields)
}

// LogInfo logs an informational message with context.
func (l *StructuredLogger) LogInfo(message string, fields map[string]interface{}) {
	l.log(slog.LevelInfo, message, nil, fields)
}

// LogWarn logs a warning with context.
func (l *StructuredLogger) LogWarn(message string, fields map[string]interface{}) {
	l.log(slog.LevelWarn, message, nil, fields)
}

// LogError logs an error message with context.
func (l *StructuredLogger) LogError(message string, err error, fields map[string]interface{}) {
	l.log(slog.LevelError, message, err, fields)
}

// Slog exposes the underlying logger for components that take *slog.Logger.
func (l *StructuredLogger) Slog() *slog.Logger {
	return l.logger
}

func (l *StructuredLogger) log(level slog.Level, message string, err error, fields map[string]interface{}) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, message, attrs(fields, err)...)
}

// attrs flattens fields into slog key/value pairs in a stable order.
func attrs(fields map[string]interface{}, err error) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, 2*len(keys)+2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	if err != nil {
		out = append(out, "error", err.Error())
	}
	return out
}
