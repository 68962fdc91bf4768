// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation drives one chat session.
//
// A Controller owns the transcript, the session name and an explicit
// Idle/AwaitingReply state machine. It renders through a Surface and talks
// to the remote worker through an Exchanger.
//
// A submit cycle is split in three so a UI event loop never blocks:
//
//	turn, err := ctrl.Begin(text)      // UI goroutine: validate, render
//	reply, err := ctrl.Run(turn)       // any goroutine: network call
//	ctrl.Complete(turn, reply, err)    // UI goroutine: settle
//
// Submit runs all three synchronously for line-mode callers.
package conversation
