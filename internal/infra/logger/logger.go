package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init installs the global logger. format is "json" or "text"; level is
// debug, info, warn or error and defaults to info.
func Init(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a recoverable problem.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs a failure.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}
