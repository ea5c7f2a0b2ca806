// Package logging exposes the process logger used by every other package.
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

var logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
	Level:      levelFromEnv(),
	TimeFormat: time.Kitchen,
}))

// Logger returns the process logger.
func Logger() *slog.Logger {
	return logger
}

func levelFromEnv() slog.Level {
	switch os.Getenv("CODEWING_LOG") {
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
