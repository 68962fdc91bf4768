// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the diagnostic logger.
//
// The TUI owns the terminal, so logs go to a file by default. Passing "-"
// as the destination writes to stderr instead.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Stderr is the destination value that selects standard error.
const Stderr = "-"

// Options configures New.
type Options struct {
	Level string // zerolog level name; empty selects info
	File  string // log file path, or Stderr
}

// Logger is a zerolog logger plus the file it writes to, if any.
type Logger struct {
	zerolog.Logger
	closer io.Closer
}

// New creates a logger for opts. The file is opened in append mode and its
// parent directory created with 0700.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var (
		out    io.Writer
		closer io.Closer
	)
	switch opts.File {
	case "", Stderr:
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	default:
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = f, f
	}

	return &Logger{
		Logger: zerolog.New(out).Level(level).With().Timestamp().Logger(),
		closer: closer,
	}, nil
}

// NewWriter creates a logger writing JSON lines to w.
func NewWriter(w io.Writer, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: zerolog.New(w).Level(lvl).With().Timestamp().Logger()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Close closes the underlying log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLevel parses a level name case-insensitively. Empty selects info.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
