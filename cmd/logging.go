package cmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/autodoist/internal/config"
)

const debugLogName = "debug.log"

func logLevel(c *config.Config) slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(c.LogLevel) {
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

func newLogger(c *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel(c)}
	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// setupLogging installs the default logger. With --debug the log is also
// appended to debug.log in the state dir. The returned func closes that file.
func setupLogging(c *config.Config, stateDir string) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closer := func() {}

	if c.Debug && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(filepath.Join(stateDir, debugLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = func() { f.Close() }
	}

	logger := newLogger(c, w)
	slog.SetDefault(logger)
	return logger, closer, nil
}
