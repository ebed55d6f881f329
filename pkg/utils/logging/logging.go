// Package logging provides the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/m-mizutani/clog"
)

var (
	mu     sync.Mutex
	logger = slog.New(clog.New(
		clog.WithWriter(os.Stderr),
		clog.WithColor(true),
		clog.WithLevel(slog.LevelInfo),
	))
)

// Default returns the current process-wide logger.
func Default() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Configure replaces the process-wide logger. With jsonFormat the output is
// machine-readable JSON; otherwise a colored console handler is used.
func Configure(w io.Writer, level slog.Level, jsonFormat bool) *slog.Logger {
	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithColor(true),
			clog.WithLevel(level),
		)
	}

	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(handler)
	return logger
}
