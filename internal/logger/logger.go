// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: Provides Init() for CLI output and OpenDebugLog() for the TUI's log file.

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DebugLogName is the TUI log file inside the config directory
const DebugLogName = "debug.log"

// Init configures the default slog logger writing to w.
// level: debug, info, warn, error (default: info)
// format: text, json (default: text)
func Init(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

// OpenDebugLog opens debug.log in configDir for appending, so the TUI can log
// without writing over the terminal. The caller closes the file.
func OpenDebugLog(configDir string) (*os.File, error) {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(configDir, DebugLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
