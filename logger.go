package treecode

import (
	"io"
	"log/slog"
	"os"
)

// NewTextLogger returns a human-readable logger writing to w at the given
// level. A nil w writes to stderr.
func NewTextLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
