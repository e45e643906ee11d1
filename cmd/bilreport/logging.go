package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func newLogger(out *os.File, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(out), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor || !isatty.IsTerminal(out.Fd()),
	}))
}

// logLevel applies --quiet and --verbose over the configured level.
func logLevel(verbose, quiet bool, configured string) slog.Level {
	switch {
	case quiet:
		return slog.LevelWarn
	case verbose:
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(configured)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
