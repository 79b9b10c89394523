package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level represents a log level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format represents the log output format.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level Level

	// Format is the output format (text or json).
	Format Format

	// Output is the writer to send logs to. Defaults to os.Stderr.
	Output io.Writer

	// File, when set, receives a JSON copy of every record at Level or above.
	File string

	// AddSource adds source file and line to log entries.
	AddSource bool
}

// DefaultConfig returns the console defaults: warnings and errors, as text, on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelWarn,
		Format: FormatText,
		Output: os.Stderr,
	}
}

// New creates a new slog.Logger with the given configuration.
// When cfg.File is set the returned closer must be called to flush it;
// otherwise it is a no-op.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	default:
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	if cfg.File == "" {
		return slog.New(handler), nopCloser{}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	fileHandler := slog.NewJSONHandler(f, opts)
	return slog.New(NewMultiHandler(handler, fileHandler)), f, nil
}

// Nop returns a no-op logger that discards all output.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel parses a log level string, ignoring case.
// Valid values: "debug", "info", "warn" (or "warning"), "error".
// Returns LevelWarn for the empty string and LevelInfo for anything unrecognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "", "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat parses a log format string, ignoring case.
// Returns FormatText if the string is not recognized.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
