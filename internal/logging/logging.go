// Package logging configures the process-wide slog logger from LOG_LEVEL.
package logging

import (
	"log/slog"
	"os"
)

// Init installs a text handler on stderr. The default level is error so the
// CLI output stays clean unless more verbosity is asked for.
func Init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})))
}

func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "dev", "development":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
