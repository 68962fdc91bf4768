// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plain provides the line-mode chat surface and REPL used when the
// full-screen TUI is unavailable or unwanted.
package plain

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"github.com/jeranaias/routinechat/internal/conversation"
	"github.com/jeranaias/routinechat/internal/util"
)

// Label prefixes for each entry class.
const (
	userLabel = "you › "
	aiLabel   = "advisor › "
)

// =============================================================================
// LINE-MODE SURFACE
// =============================================================================

// Surface writes entries as lines to an io.Writer.
//
// On a terminal the most recent entry is rewritten in place when its text
// changes, so the placeholder turns into the reply. Elsewhere the new text
// is printed as its own line.
type Surface struct {
	mu      sync.Mutex
	out     *termenv.Output
	tty     bool
	width   int
	inputOn bool

	last      *entry // most recently printed entry
	lastLines int    // terminal lines occupied by last
}

// SurfaceOption configures a Surface.
type SurfaceOption func(*Surface)

// WithTerminal enables in-place rewriting and screen clearing.
func WithTerminal(tty bool) SurfaceOption {
	return func(s *Surface) { s.tty = tty }
}

// WithWidth sets the wrap width used to count rewritten lines.
func WithWidth(width int) SurfaceOption {
	return func(s *Surface) { s.width = width }
}

// NewSurface creates a surface writing to w.
func NewSurface(w io.Writer, opts ...SurfaceOption) *Surface {
	s := &Surface{inputOn: true}
	for _, opt := range opts {
		opt(s)
	}
	if s.tty {
		s.out = termenv.NewOutput(w)
	} else {
		s.out = termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
	}
	return s
}

type entry struct {
	surface *Surface
	class   conversation.EntryClass
	text    string
}

// SetText replaces the entry's text.
func (e *entry) SetText(text string) {
	s := e.surface
	s.mu.Lock()
	defer s.mu.Unlock()

	e.text = util.SanitizeText(text)
	if s.tty && s.last == e {
		for i := 0; i < s.lastLines; i++ {
			s.out.CursorPrevLine(1)
			s.out.ClearLine()
		}
	}
	s.print(e)
}

// AppendEntry prints a new entry.
func (s *Surface) AppendEntry(class conversation.EntryClass, text string) conversation.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &entry{surface: s, class: class, text: util.SanitizeText(text)}
	s.print(e)
	return e
}

// ClearAll clears the screen on a terminal. Elsewhere earlier lines stay.
func (s *Surface) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tty {
		s.out.ClearScreen()
		s.out.MoveCursor(1, 1)
	}
	s.last = nil
	s.lastLines = 0
}

// ScrollToLatest is a no-op; the terminal follows its output.
func (s *Surface) ScrollToLatest() {}

// SetInputEnabled records whether the REPL may prompt.
func (s *Surface) SetInputEnabled(enabled bool) {
	s.mu.Lock()
	s.inputOn = enabled
	s.mu.Unlock()
}

// InputEnabled reports whether the REPL may prompt.
func (s *Surface) InputEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputOn
}

// print writes e and remembers it as the latest entry. Caller holds mu.
func (s *Surface) print(e *entry) {
	fmt.Fprintln(s.out, s.label(e.class)+e.text)
	s.last = e
	s.lastLines = s.countLines(util.StringWidth(labelText(e.class)), e.text)
}

func labelText(class conversation.EntryClass) string {
	if class == conversation.ClassUser {
		return userLabel
	}
	return aiLabel
}

func (s *Surface) label(class conversation.EntryClass) string {
	if !s.tty {
		return labelText(class)
	}
	color := "#FBBF24"
	if class == conversation.ClassUser {
		color = "#FB7185"
	}
	return s.out.String(labelText(class)).Foreground(s.out.Color(color)).Bold().String()
}

// countLines estimates how many terminal rows text occupies after a label.
func (s *Surface) countLines(labelWidth int, text string) int {
	lines := 0
	for i, line := range strings.Split(text, "\n") {
		w := util.StringWidth(line)
		if i == 0 {
			w += labelWidth
		}
		if s.width <= 0 || w <= s.width {
			lines++
			continue
		}
		lines += (w + s.width - 1) / s.width
	}
	return lines
}
