// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
//
// # Key Types
//
//   - Role: Message role enumeration (system, user, assistant)
//   - Message: Immutable role/content value with an ID and timestamp
//   - Transcript: Append-only, goroutine-safe conversation history
//
// # Usage
//
//	tr := model.NewTranscript()
//	_ = tr.Append(model.NewUserMessage("Which serum suits dry skin?"))
//	for _, msg := range tr.Snapshot() {
//	    fmt.Println(msg.Role, msg.Content)
//	}
package model
