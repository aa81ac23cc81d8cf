package logbase

import (
	"context"
	"log/slog"
	"os"
)

// Fatal logs msg at error level and terminates the process.
func Fatal(log *slog.Logger, msg string, attrs ...slog.Attr) {
	log.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
	os.Exit(1)
}
