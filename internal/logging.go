package internal

import (
	"log/slog"
	"os"
)

// NewLogger builds the application logger from the logging configuration,
// adjusted by the verbose and quiet flags. Verbose wins over quiet. Logs go
// to stderr so command output on stdout stays clean.
func NewLogger(cfg LogConfig, verbose, quiet bool) *slog.Logger {
	level := parseLogLevel(cfg.Level)
	if quiet {
		level = slog.LevelWarn
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == LogFormatJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
