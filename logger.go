package golsh

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger with helpers that keep index log records uniform.
type Logger struct {
	*slog.Logger
}

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// ParseLogFormat accepts "text" or "json" in any case.
func ParseLogFormat(s string) (LogFormat, error) {
	switch f := LogFormat(strings.ToLower(s)); f {
	case LogFormatText, LogFormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}

// NewLogger wraps handler. A nil handler logs text at info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		return NewTextLogger(slog.LevelInfo)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewLoggerTo writes records at or above level to w in the given format.
func NewLoggerTo(w io.Writer, format LogFormat, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == LogFormatJSON {
		return NewLogger(slog.NewJSONHandler(w, opts))
	}
	return NewLogger(slog.NewTextHandler(w, opts))
}

// NewJSONLogger logs JSON records to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLoggerTo(os.Stderr, LogFormatJSON, level)
}

// NewTextLogger logs key=value records to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLoggerTo(os.Stderr, LogFormatText, level)
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithParams adds the index parameters to the logger.
func (l *Logger) WithParams(p Params) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			"metric", p.Metric.String(),
			"m", p.HashCount,
			"L", p.Tables,
			"r", p.Width,
			"seed", p.Seed,
		),
	}
}

// LogBuild logs a build operation.
func (l *Logger) LogBuild(ctx context.Context, count, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"count", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"count", count,
			"dimension", dimension,
		)
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, id uint64, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"id", id,
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"id", id,
			"dimension", dimension,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, kind SearchKind, candidates, results int, err error) {
	if err != nil {
		l.WarnContext(ctx, "search failed",
			"kind", string(kind),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"kind", string(kind),
			"candidates", candidates,
			"results", results,
		)
	}
}

// LogBatch logs the outcome of a batch of queries.
func (l *Logger) LogBatch(ctx context.Context, total, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "query batch completed with failures",
			"total", total,
			"failed", failed,
			"success", total-failed,
		)
	} else {
		l.InfoContext(ctx, "query batch completed",
			"count", total,
		)
	}
}
