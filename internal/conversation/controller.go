// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/routinechat/internal/cloud"
	"github.com/jeranaias/routinechat/internal/model"
	"github.com/jeranaias/routinechat/internal/names"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultGreeting is rendered when a session mounts or resets.
	DefaultGreeting = "👋 Hello! Ask me about foundations, skincare, haircare, or personalized routines."

	// PlaceholderText marks the pending reply entry.
	PlaceholderText = "…thinking…"

	// ErrorText replaces the placeholder when an exchange fails.
	ErrorText = "Sorry — there was an error contacting the API."
)

// =============================================================================
// STATE
// =============================================================================

// State is the controller's position in the submit cycle.
type State int

const (
	StateIdle          State = iota // Accepting submissions
	StateAwaitingReply              // One exchange in flight
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReply:
		return "awaiting_reply"
	default:
		return "unknown"
	}
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Exchanger performs one remote exchange. *cloud.Client satisfies it.
type Exchanger interface {
	Send(ctx context.Context, transcript *model.Transcript, userText string) (string, error)
}

// Options configures a Controller.
type Options struct {
	Exchanger Exchanger
	Surface   Surface
	Logger    zerolog.Logger

	// Greeting overrides DefaultGreeting.
	Greeting string

	// KeepHistory leaves earlier turns on the surface instead of clearing
	// it on every submission.
	KeepHistory bool
}

// Turn is one submit cycle, created by Begin and settled by Complete.
type Turn struct {
	ID       string
	Display  string // text shown in the user entry
	Outgoing string // text sent to the worker, name-annotated

	placeholder Entry
	transcript  *model.Transcript
	ctx         context.Context
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns one chat session.
type Controller struct {
	mu sync.Mutex

	exchanger   Exchanger
	surface     Surface
	logger      zerolog.Logger
	greeting    string
	keepHistory bool

	state       State
	closed      bool
	sessionID   string
	sessionName string
	transcript  *model.Transcript
	current     *Turn

	baseCtx    context.Context
	baseCancel context.CancelFunc
	cancels    *cancelManager
}

// New creates a Controller in the Idle state with an empty transcript.
// Call Mount to render the greeting.
func New(opts Options) *Controller {
	greeting := opts.Greeting
	if greeting == "" {
		greeting = DefaultGreeting
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())
	sessionID := uuid.NewString()

	return &Controller{
		exchanger:   opts.Exchanger,
		surface:     opts.Surface,
		logger:      opts.Logger.With().Str("component", "conversation").Str("session", sessionID).Logger(),
		greeting:    greeting,
		keepHistory: opts.KeepHistory,
		state:       StateIdle,
		sessionID:   sessionID,
		transcript:  model.NewTranscript(),
		baseCtx:     baseCtx,
		baseCancel:  baseCancel,
		cancels:     newCancelManager(),
	}
}

// Mount renders the greeting entry.
func (c *Controller) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.surface.AppendEntry(ClassAI, c.greeting)
	c.surface.SetInputEnabled(true)
	c.surface.ScrollToLatest()
}

// Begin validates text and moves Idle → AwaitingReply.
//
// Empty input returns ErrEmptyInput and a pending reply returns ErrBusy;
// neither changes state or the surface. On success the surface shows the
// user entry and a placeholder, and the returned Turn is ready for Run.
func (c *Controller) Begin(text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.state != StateIdle {
		return nil, ErrBusy
	}
	c.state = StateAwaitingReply

	// Composed and decomposed spellings of an introduction match alike;
	// the text itself is displayed and sent as typed.
	if name, ok := names.Extract(norm.NFC.String(text)); ok {
		c.sessionName = name
	}

	c.surface.SetInputEnabled(false)
	if !c.keepHistory {
		c.surface.ClearAll()
	}
	c.surface.AppendEntry(ClassUser, text)
	placeholder := c.surface.AppendEntry(ClassAI, PlaceholderText)
	c.surface.ScrollToLatest()

	ctx, cancel := context.WithCancel(c.baseCtx)
	turn := &Turn{
		ID:          uuid.NewString(),
		Display:     text,
		Outgoing:    names.Annotate(text, c.sessionName),
		placeholder: placeholder,
		transcript:  c.transcript,
		ctx:         ctx,
	}
	c.current = turn
	c.cancels.set(turn.ID, cancel)

	c.logger.Debug().Str("turn", turn.ID).Bool("named", c.sessionName != "").Msg("turn started")
	return turn, nil
}

// Run performs the exchange for turn. It does not touch the surface and may
// be called from any goroutine. The call is aborted when ctx is done or the
// turn is discarded by Reset or Close.
func (c *Controller) Run(ctx context.Context, turn *Turn) (string, error) {
	if turn == nil {
		return "", ErrStaleTurn
	}
	if err := turn.ctx.Err(); err != nil {
		return "", ErrStaleTurn
	}

	runCtx, cancel := context.WithCancel(turn.ctx)
	defer cancel()
	if ctx != nil {
		stop := context.AfterFunc(ctx, cancel)
		defer stop()
	}

	return c.exchanger.Send(runCtx, turn.transcript, turn.Outgoing)
}

// Complete settles turn and moves AwaitingReply → Idle.
//
// Completions for a turn that is no longer current are ignored. It reports
// whether the completion was applied.
func (c *Controller) Complete(turn *Turn, reply string, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if turn == nil || c.current != turn {
		if turn != nil {
			c.logger.Debug().Str("turn", turn.ID).Msg("ignoring stale completion")
		}
		return false
	}

	switch {
	case err == nil:
		turn.placeholder.SetText(reply)
		c.logger.Debug().Str("turn", turn.ID).Int("reply_len", len(reply)).Msg("turn completed")
	case cloud.IsCanceled(err) || errors.Is(err, ErrStaleTurn):
		turn.placeholder.SetText(ErrorText)
		c.logger.Info().Str("turn", turn.ID).Msg("turn canceled")
	default:
		turn.placeholder.SetText(ErrorText)
		c.logFailure(turn, err)
	}

	c.cancels.release(turn.ID)
	c.current = nil
	c.state = StateIdle
	c.surface.SetInputEnabled(true)
	c.surface.ScrollToLatest()
	return true
}

// Submit runs a whole submit cycle synchronously and returns the reply.
// A failed exchange still returns the error after the surface shows
// ErrorText.
func (c *Controller) Submit(ctx context.Context, text string) (string, error) {
	turn, err := c.Begin(text)
	if err != nil {
		return "", err
	}
	reply, err := c.Run(ctx, turn)
	c.Complete(turn, reply, err)
	return reply, err
}

// Reset cancels any in-flight exchange, discards the transcript and session
// name, and renders a fresh greeting.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.cancels.cancel()
	c.current = nil
	c.state = StateIdle
	c.transcript = model.NewTranscript()
	c.sessionName = ""

	c.surface.ClearAll()
	c.surface.AppendEntry(ClassAI, c.greeting)
	c.surface.SetInputEnabled(true)
	c.surface.ScrollToLatest()

	c.logger.Info().Msg("session reset")
}

// Close cancels any in-flight exchange. Later submissions return ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancels.cancel()
	c.baseCancel()
	c.current = nil
	c.state = StateIdle
}

// SetKeepHistory switches between clearing and keeping earlier turns.
func (c *Controller) SetKeepHistory(keep bool) {
	c.mu.Lock()
	c.keepHistory = keep
	c.mu.Unlock()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the session identifier.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// SessionName returns the extracted name, or "" when none is known.
func (c *Controller) SessionName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionName
}

// Transcript returns the current transcript.
func (c *Controller) Transcript() *model.Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript
}

// InFlight reports whether an exchange is running.
func (c *Controller) InFlight() bool {
	return c.cancels.active()
}

// logFailure records the operator-visible detail the user never sees.
func (c *Controller) logFailure(turn *Turn, err error) {
	event := c.logger.Error().Str("turn", turn.ID).Err(err)

	var remoteErr *cloud.RemoteError
	var malformedErr *cloud.MalformedResponseError
	var transportErr *cloud.TransportError
	switch {
	case errors.As(err, &remoteErr):
		event = event.Str("kind", "remote").Int("status", remoteErr.Status)
	case errors.As(err, &malformedErr):
		event = event.Str("kind", "malformed")
	case errors.As(err, &transportErr):
		event = event.Str("kind", "transport")
	}
	event.Msg("exchange failed")
}
