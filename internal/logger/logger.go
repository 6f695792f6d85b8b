// Package logger sets up structured logging for the CLI commands. The
// monitor TUI owns the terminal, so its diagnostics go to a rotating file
// instead of stderr.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters, lumberjack semantics
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the logging destination for a command
type Config struct {
	Dir        string // base directory; "" means stderr
	Path       string // explicit file path overrides Dir
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Writer returns the destination for a command's log output. With a Dir
// or Path configured the writer rotates via lumberjack; otherwise it is
// stderr and Close is a no-op.
func (c Config) Writer(name string) io.WriteCloser {
	path := c.Path
	if path == "" && c.Dir != "" {
		path = filepath.Join(c.Dir, name+".log")
	}
	if path == "" {
		return nopCloser{os.Stderr}
	}
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

// New builds a slog.Logger for a command plus the closer for its
// destination
func New(name string, cfg Config) (*slog.Logger, io.Closer) {
	w := cfg.Writer(name)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level})
	return slog.New(handler), w
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
