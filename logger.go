package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a structured JSON slog.Logger writing to w.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// logOutput keeps stdout for the serial in headless mode.
func logOutput(headless bool) io.Writer {
	if headless {
		return os.Stderr
	}
	return os.Stdout
}

// parseLevel maps a config log_level onto a slog level; debug wins.
func parseLevel(name string, debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(name) {
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
