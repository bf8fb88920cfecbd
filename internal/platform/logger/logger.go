package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Text output locally, JSON when running
// under a collector (NAMEMART_LOG_FORMAT=json).
func New() *slog.Logger {
	var handler slog.Handler
	if os.Getenv("NAMEMART_LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	return slog.New(handler)
}
