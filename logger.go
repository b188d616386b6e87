package coldb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with coldb-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithTable adds a table name field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// WithColumn adds a column index field to the logger.
func (l *Logger) WithColumn(ndx int) *Logger {
	return &Logger{
		Logger: l.Logger.With("column", ndx),
	}
}

// LogOpen logs a database open (local, memory, or remote).
func (l *Logger) LogOpen(ctx context.Context, path string, encrypted bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed", "path", path, "encrypted", encrypted, "error", err)
	} else {
		l.InfoContext(ctx, "opened", "path", path, "encrypted", encrypted)
	}
}

// LogCreateTable logs a table creation.
func (l *Logger) LogCreateTable(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create table failed", "table", name, "error", err)
	} else {
		l.DebugContext(ctx, "table created", "table", name)
	}
}

// LogAddColumn logs a column addition, including the backfilled row count.
func (l *Logger) LogAddColumn(ctx context.Context, table, column string, backfilled int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add column failed", "table", table, "column", column, "error", err)
	} else {
		l.DebugContext(ctx, "column added", "table", table, "column", column, "backfilled", backfilled)
	}
}

// LogOptimize logs a Table.Optimize pass, including how many columns were
// converted to dictionary-compressed STRING_ENUM.
func (l *Logger) LogOptimize(ctx context.Context, table string, converted int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "optimize failed", "table", table, "error", err)
	} else {
		l.InfoContext(ctx, "optimize completed", "table", table, "converted", converted)
	}
}

// LogSetIndex logs a SetIndex call.
func (l *Logger) LogSetIndex(ctx context.Context, table string, column int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "set index failed", "table", table, "column", column, "error", err)
	} else {
		l.InfoContext(ctx, "index built", "table", table, "column", column)
	}
}

// LogSync logs a Sync/flush of the underlying backend.
func (l *Logger) LogSync(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sync failed", "error", err)
	} else {
		l.DebugContext(ctx, "synced")
	}
}

// LogDecryptionFailure logs a page HMAC mismatch with no valid fallback
// generation — fatal to the current operation, not to the process.
func (l *Logger) LogDecryptionFailure(ctx context.Context, offset int64, err error) {
	l.ErrorContext(ctx, "page decryption failed", "offset", offset, "error", err)
}

// LogClose logs database shutdown.
func (l *Logger) LogClose(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed", "error", err)
	} else {
		l.InfoContext(ctx, "closed")
	}
}
