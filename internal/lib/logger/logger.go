package logger

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// SetupLogger builds the root slog logger for the given environment.
// local logs text at debug to stdout; dev and prod log JSON to a file
// under logPath, falling back to stdout when the file cannot be opened.
func SetupLogger(env, logPath string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(jsonFileHandler(logPath, slog.LevelDebug))
	default:
		return slog.New(jsonFileHandler(logPath, slog.LevelInfo))
	}
}

func jsonFileHandler(logPath string, level slog.Level) slog.Handler {
	file := filepath.Join(logPath, "zapdesk.log")
	out, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
}
