package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout. Services attach
// request_id and user_id attributes per call site rather than per logger.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
