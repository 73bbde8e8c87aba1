package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger that tags records with the request id carried in ctx.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(&RequestIDHandler{Handler: handler})
}

func InitLogger() {
	slog.SetDefault(New(os.Stdout, slog.LevelInfo))
}
