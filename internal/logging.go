package internal

import (
	"io"
	"log"
	"log/slog"
)

// ParseLevel maps a configured level name to a slog level. Unknown names
// select info.
func ParseLevel(level string) slog.Level {
	switch level {
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

// InitLogging installs a text handler on w as the default logger and returns
// it. Plain log output goes to the same writer.
func InitLogging(level string, w io.Writer) *slog.Logger {
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}
