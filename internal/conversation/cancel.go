// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"sync"
)

// =============================================================================
// IN-FLIGHT CANCELLATION
// =============================================================================

// cancelManager holds the cancel function of the turn in flight.
// Run executes on a command goroutine while Reset and Close arrive from the
// UI goroutine, so access is mutex guarded.
type cancelManager struct {
	mu         sync.Mutex
	turnID     string
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set stores fn for turnID, cancelling whatever was stored before.
func (cm *cancelManager) set(turnID string, fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.turnID = turnID
	cm.cancelFunc = fn
}

// cancel aborts the stored turn, if any. Safe to call repeatedly.
func (cm *cancelManager) cancel() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
		cm.turnID = ""
	}
}

// release drops the cancel function for turnID once it has settled.
// The context is still cancelled to free its resources.
func (cm *cancelManager) release(turnID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.turnID != turnID || cm.cancelFunc == nil {
		return
	}
	cm.cancelFunc()
	cm.cancelFunc = nil
	cm.turnID = ""
}

// active reports whether a turn is in flight.
func (cm *cancelManager) active() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.cancelFunc != nil
}
