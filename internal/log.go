package internal

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace sits below slog's debug level for per-candidate search output.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps ERROR, WARN, INFO, DEBUG and TRACE to slog levels.
// Anything else is INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ERROR":
		return slog.LevelError
	case "WARN":
		return slog.LevelWarn
	case "DEBUG":
		return slog.LevelDebug
	case "TRACE":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured logger writing text or JSON records to w
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewDefaultLogger creates a logger based on the LOG_LEVEL and LOG_FORMAT
// environment variables, writing to stderr
func NewDefaultLogger() *slog.Logger {
	return NewLogger(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}
