package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the handler, level and optional rotating log file.
type Options struct {
	Level      string
	Format     string // auto, text or json
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Console    *os.File // defaults to stdout
}

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions builds the process logger. Output goes to the console and,
// when File is set, also to a rotating file.
func NewWithOptions(opts Options) *slog.Logger {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	var out io.Writer = console
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 5),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 30),
			Compress:   true,
		}
		out = io.MultiWriter(console, rotator)
	}

	handlerOpts := &slog.HandlerOptions{Level: levelFromString(opts.Level)}
	if useJSON(opts.Format, opts.File != "", console) {
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func useJSON(format string, toFile bool, console *os.File) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return true
	case "text", "console":
		return false
	}
	if toFile {
		return true
	}
	fd := console.Fd()
	return !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

func orDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
