package dataapi

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide structured logger, following the
// teacher's journal package convention of routing everything through
// log/slog rather than formatted println-style logging.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
