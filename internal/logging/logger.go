// Package logging builds the zerolog loggers used across empsearch and carries trace IDs
// through context.Context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Output formats accepted by Config.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

const (
	logDirPerm  = 0o750
	logFilePerm = 0o600
)

// Config describes where and how a logger writes.
type Config struct {
	// Level is a zerolog level name. Unparseable values fall back to warn.
	Level string
	// Format is FormatConsole or FormatJSON.
	Format string
	// File, when set, receives log output instead of Output.
	File string
	// Output is the writer used when File is empty. Defaults to os.Stderr.
	Output io.Writer
}

// LogPathResult is the outcome of NewLoggerWithPath.
type LogPathResult struct {
	Logger         zerolog.Logger
	UsingFile      bool
	FilePath       string
	FallbackUsed   bool
	FallbackReason string

	closeOnce sync.Once
	file      *os.File
}

// Close releases the log file, if one was opened. It is safe to call more than once.
func (r *LogPathResult) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.file != nil {
			err = r.file.Close()
		}
	})
	return err
}

// ParseLevel parses a level name, returning zerolog.WarnLevel for empty or unknown input.
func ParseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.WarnLevel
	}
	return lvl
}

// New returns a logger writing to cfg.Output. cfg.File is ignored.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	return build(out, cfg)
}

// NewLoggerWithPath returns a logger for cfg, writing to cfg.File when it can be opened and
// falling back to cfg.Output otherwise.
func NewLoggerWithPath(cfg Config) *LogPathResult {
	result := &LogPathResult{}
	if cfg.File == "" {
		result.Logger = New(cfg)
		return result
	}

	f, err := openLogFile(cfg.File)
	if err != nil {
		result.FallbackUsed = true
		result.FallbackReason = err.Error()
		result.Logger = New(cfg)
		return result
	}

	result.file = f
	result.UsingFile = true
	result.FilePath = cfg.File
	// File output is always JSON.
	fileCfg := cfg
	fileCfg.Format = FormatJSON
	result.Logger = build(f, fileCfg)
	return result
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), logDirPerm); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePerm)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

func build(out io.Writer, cfg Config) zerolog.Logger {
	if !strings.EqualFold(cfg.Format, FormatJSON) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		Hook(TracingHook{}).
		With().
		Timestamp().
		Logger()
}

// ComponentLogger returns logger tagged with component.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// FromContext returns the logger stored in ctx by zerolog.Logger.WithContext, or a disabled
// logger when there is none.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// PrintLogPathMessage tells the user where log output went.
func PrintLogPathMessage(w io.Writer, path string) {
	_, _ = fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning tells the user the log file could not be used.
func PrintFallbackWarning(w io.Writer, reason string) {
	_, _ = fmt.Fprintf(w, "Warning: could not open log file, logging to stderr (%s)\n", reason)
}
