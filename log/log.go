package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrorPrinter is where user-facing errors and warnings are written.
type ErrorPrinter interface {
	Ln(v ...interface{})
	F(format string, v ...interface{})
}

type StderrErrorPrinter struct{}

func (p *StderrErrorPrinter) Ln(v ...interface{}) {
	fmt.Fprintln(os.Stderr, v...)
}

func (p *StderrErrorPrinter) F(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
}

// WriterErrorPrinter prints to an arbitrary writer. Mostly for tests.
type WriterErrorPrinter struct {
	W io.Writer
}

func (p *WriterErrorPrinter) Ln(v ...interface{}) {
	fmt.Fprintln(p.W, v...)
}

func (p *WriterErrorPrinter) F(format string, v ...interface{}) {
	fmt.Fprintf(p.W, format, v...)
}

// ParseLevel maps a level name to a slog level. Unknown names map to info,
// and ok is false.
func ParseLevel(name string) (level slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Init installs a text slog handler on w as the default logger. Diagnostics
// (corporate actions, cross-year closes, file loading) are logged through
// slog; results go to stdout separately.
func Init(w io.Writer, levelName string) *slog.Logger {
	level, ok := ParseLevel(levelName)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if !ok {
		logger.Warn("invalid log level, defaulting to info", "configuredLevel", levelName)
	}
	return logger
}
