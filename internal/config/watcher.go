// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of events editors emit on save.
const DefaultWatchDebounce = 200 * time.Millisecond

// =============================================================================
// CONFIG FILE WATCHER
// =============================================================================

// Watcher reloads a config file whenever it changes on disk.
//
// The parent directory is watched rather than the file itself so that
// editors which save by rename-over-original keep triggering reloads.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	onChange func(*Config)
	onError  func(error)

	mu      sync.Mutex
	pending bool
	last    time.Time
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a watcher for path. onChange receives every config
// that loads and validates; onError receives load and watch failures.
// Either callback may be nil.
func NewWatcher(path string, onChange func(*Config), onError func(error)) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     absPath,
		debounce: DefaultWatchDebounce,
		watcher:  fsw,
		onChange: onChange,
		onError:  onError,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// WithDebounce sets the quiet period before a reload.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Path returns the watched config file.
func (w *Watcher) Path() string {
	return w.path
}

// Watch starts watching in the background.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.processEvents()
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.done
	}
	return err
}

// processEvents filters events for the config file and debounces reloads.
func (w *Watcher) processEvents() {
	defer close(w.done)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				w.pending = true
				w.last = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(fmt.Errorf("config watcher: %w", err))

		case <-ticker.C:
			w.mu.Lock()
			due := w.pending && time.Since(w.last) >= w.debounce
			if due {
				w.pending = false
			}
			w.mu.Unlock()
			if due {
				w.reload()
			}
		}
	}
}

// reload loads the file and hands the result to the callbacks.
// A file that fails to load or validate leaves the previous config active.
func (w *Watcher) reload() {
	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.reportError(err)
		return
	}
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
