package logger

import (
	"io"
	"log/slog"
	"strings"
)

// NewDiagnostic returns a text slog.Logger writing to w at the named level
// ("debug", "info", "warn", "error"). Unknown names fall back to info.
func NewDiagnostic(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
