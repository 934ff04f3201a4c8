package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/term"

	"github.com/elee1766/rune/src/config"
)

// newLogger logs to stderr through tint and, when the file can be opened,
// as JSON to logFile. The returned func closes the file.
func newLogger(logLevel, logFile string) (*slog.Logger, func()) {
	level := parseLogLevel(logLevel)
	color := term.IsTerminal(int(os.Stderr.Fd()))

	if logFile == "" {
		logFile = config.DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return slog.New(newHandler(level, os.Stderr, color, nil)), func() {}
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(newHandler(level, os.Stderr, color, nil)), func() {}
	}
	return slog.New(newHandler(level, os.Stderr, color, file)), func() { file.Close() }
}

// newHandler builds the console handler and, with a non-nil file, fans out
// to a JSON handler that records info and above even when the console is
// quieter.
func newHandler(level slog.Level, console io.Writer, color bool, file io.Writer) slog.Handler {
	consoleHandler := tint.NewHandler(console, &tint.Options{
		Level:   level,
		NoColor: !color,
	})
	if file == nil {
		return consoleHandler
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: min(level, slog.LevelInfo),
	})
	return slogmulti.Fanout(consoleHandler, fileHandler)
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
