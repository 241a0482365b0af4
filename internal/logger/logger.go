package logger

import (
	"log/slog"
	"os"
)

// New creates a JSON slog.Logger writing to stdout at level.
func New(level slog.Leveler) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("service", "storefront"))
}
