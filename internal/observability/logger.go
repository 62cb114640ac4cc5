package observability

import (
	"log/slog"
	"os"
)

// LogSettings selects the handler format and level for the service logger.
type LogSettings struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// NewLogger builds the service-wide slog logger.
func NewLogger(s LogSettings) *slog.Logger {
	var level slog.Level
	switch s.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if s.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
