package logging

import (
	"log/slog"
	"testing"
)

func TestLevelFromEnv(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":       slog.LevelDebug,
		"dev":         slog.LevelDebug,
		"development": slog.LevelDebug,
		"info":        slog.LevelInfo,
		"warn":        slog.LevelWarn,
		"warning":     slog.LevelWarn,
		"error":       slog.LevelError,
		"":            slog.LevelError,
		"nonsense":    slog.LevelError,
	}
	for in, want := range cases {
		t.Setenv("LOG_LEVEL", in)
		if got := levelFromEnv(); got != want {
			t.Fatalf("LOG_LEVEL=%q: level = %v, want %v", in, got, want)
		}
	}
}
