package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"mangaalert/internal/config"
)

// New builds a slog logger writing to w. Unknown levels fall back to info and
// unknown formats to JSON.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// Setup creates the process logger from config and installs it as the default.
func Setup(cfg *config.Config, component string) *slog.Logger {
	logger := New(os.Stdout, cfg.LogLevel, cfg.LogFormat).With("component", component)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
