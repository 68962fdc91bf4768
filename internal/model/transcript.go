// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrSystemRole is returned when a system message is appended to a transcript.
	ErrSystemRole = errors.New("system messages are not stored in the transcript")

	// ErrInvalidRole is returned for messages with an unknown role.
	ErrInvalidRole = errors.New("invalid message role")
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered, append-only history of one conversation.
//
// The system instruction is never part of the transcript; it is prepended
// when a request is built. Appends may come from a command goroutine while
// the UI goroutine reads, so access is guarded by a RWMutex.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		messages: make([]Message, 0, 16),
	}
}

// Append adds msg to the end of the transcript.
func (t *Transcript) Append(msg Message) error {
	if msg.Role == RoleSystem {
		return ErrSystemRole
	}
	if !msg.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, msg.Role)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	return nil
}

// Snapshot returns a copy of all messages in creation order.
func (t *Transcript) Snapshot() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of stored messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message, if any.
func (t *Transcript) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// IsEmpty returns true if there are no messages.
func (t *Transcript) IsEmpty() bool {
	return t.Len() == 0
}
