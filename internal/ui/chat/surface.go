// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	"github.com/jeranaias/routinechat/internal/conversation"
	"github.com/jeranaias/routinechat/internal/util"
)

// =============================================================================
// RENDER SURFACE
// =============================================================================

// Surface is the TUI's conversation.Surface. The controller writes to it and
// the Bubble Tea model reads it back when rendering.
//
// Surface must be used as a pointer so Bubble Tea's model copies share it.
type Surface struct {
	mu sync.Mutex

	entries      []*Entry
	inputEnabled bool

	// Set by writes, consumed by the model on the next Update.
	dirty           bool
	scrollRequested bool
}

// NewSurface creates an empty surface with input enabled.
func NewSurface() *Surface {
	return &Surface{inputEnabled: true}
}

// Entry is one rendered entry. Text is stored sanitized.
type Entry struct {
	surface *Surface
	class   conversation.EntryClass
	text    string
}

// SetText replaces the entry's text.
func (e *Entry) SetText(text string) {
	e.surface.mu.Lock()
	defer e.surface.mu.Unlock()
	e.text = util.SanitizeText(text)
	e.surface.dirty = true
}

// Class returns the entry's style class.
func (e *Entry) Class() conversation.EntryClass {
	return e.class
}

// Text returns the entry's current text.
func (e *Entry) Text() string {
	e.surface.mu.Lock()
	defer e.surface.mu.Unlock()
	return e.text
}

// AppendEntry adds an entry at the bottom.
func (s *Surface) AppendEntry(class conversation.EntryClass, text string) conversation.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &Entry{surface: s, class: class, text: util.SanitizeText(text)}
	s.entries = append(s.entries, e)
	s.dirty = true
	return e
}

// ClearAll removes every entry.
func (s *Surface) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.dirty = true
}

// ScrollToLatest asks the viewport to show the newest entry.
func (s *Surface) ScrollToLatest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollRequested = true
}

// SetInputEnabled enables or disables the text input.
func (s *Surface) SetInputEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputEnabled = enabled
	s.dirty = true
}

// InputEnabled reports whether the input accepts typing.
func (s *Surface) InputEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputEnabled
}

// Entries returns a snapshot of the current entries.
func (s *Surface) Entries() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// takeChanges reports and resets the pending dirty and scroll flags.
func (s *Surface) takeChanges() (dirty, scroll bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dirty, scroll = s.dirty, s.scrollRequested
	s.dirty, s.scrollRequested = false, false
	return dirty, scroll
}
