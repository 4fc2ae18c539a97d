package testutil

import (
	"log/slog"
	"os"
)

// NewTestLogger returns a debug-level logger writing to stderr, for tests
// where seeing the log output is useful.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// NewNullLogger returns a logger that discards everything.
func NewNullLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
