package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// ParseLevel converts a textual log level to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// NewLogger builds a logger writing to w in the given format.
func NewLogger(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch format {
	case "console", "":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	return slog.New(handler), nil
}

// SetupLogger configures the global logger. When file is non-empty, output is
// appended to that file instead of stderr; the returned closer releases it.
func SetupLogger(level, format, file string) (io.Closer, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if file != "" {
		if mkErr := os.MkdirAll(filepath.Dir(file), 0750); mkErr != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", mkErr)
		}
		f, openErr := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304
		if openErr != nil {
			return nil, fmt.Errorf("failed to open log file: %w", openErr)
		}
		w, closer = f, f
	}

	logger, err := NewLogger(w, slogLevel, format)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	slog.SetDefault(logger)

	return closer, nil
}
