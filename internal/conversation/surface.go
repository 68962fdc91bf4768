// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

// EntryClass tags a rendered entry with its visual style.
type EntryClass string

const (
	ClassUser EntryClass = "user"
	ClassAI   EntryClass = "ai"
)

// String returns the class name.
func (c EntryClass) String() string {
	return string(c)
}

// Entry is a handle to a rendered entry whose text can be replaced later.
type Entry interface {
	SetText(text string)
}

// Surface is where a Controller renders the conversation.
//
// Implementations must display text literally. Escape sequences and control
// characters are never interpreted.
type Surface interface {
	// AppendEntry adds a new entry at the bottom and returns its handle.
	AppendEntry(class EntryClass, text string) Entry

	// ClearAll removes every entry.
	ClearAll()

	// ScrollToLatest makes the newest entry visible.
	ScrollToLatest()

	// SetInputEnabled enables or disables the input and send controls.
	SetInputEnabled(enabled bool)
}
