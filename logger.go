package binmatrix

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with binmatrix-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithShape adds rows and cols fields to the logger.
func (l *Logger) WithShape(s Shape) *Logger {
	return &Logger{
		Logger: l.Logger.With("rows", s.Rows, "cols", s.Cols),
	}
}

// LogProvision logs the creation of a new backing file.
func (l *Logger) LogProvision(ctx context.Context, length int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "provision failed",
			"bytes", length,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "provisioned matrix file",
			"bytes", length,
		)
	}
}

// LogOpen logs the outcome of opening a store.
func (l *Logger) LogOpen(ctx context.Context, width int, length int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"element_width", width,
			"bytes", length,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "store opened",
			"element_width", width,
			"bytes", length,
		)
	}
}

// LogBulk logs a bulk read or write.
func (l *Logger) LogBulk(ctx context.Context, op string, count int, err error) {
	if err != nil {
		l.WarnContext(ctx, "bulk operation failed",
			"op", op,
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "bulk operation completed",
			"op", op,
			"count", count,
		)
	}
}

// LogClose logs closing a store.
func (l *Logger) LogClose(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "store closed")
	}
}

// LogSnapshot logs an archive snapshot.
func (l *Logger) LogSnapshot(ctx context.Context, id string, uploaded, reused int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot committed",
			"manifest", id,
			"uploaded_chunks", uploaded,
			"reused_chunks", reused,
		)
	}
}

// LogRestore logs an archive restore.
func (l *Logger) LogRestore(ctx context.Context, id, dst string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"manifest", id,
			"path", dst,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "restore completed",
			"manifest", id,
			"path", dst,
		)
	}
}
