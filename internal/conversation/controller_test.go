// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/routinechat/internal/cloud"
	"github.com/jeranaias/routinechat/internal/model"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeEntry struct {
	class EntryClass
	text  string
}

func (e *fakeEntry) SetText(text string) { e.text = text }

type fakeSurface struct {
	entries      []*fakeEntry
	inputEnabled bool
	clears       int
	scrolls      int
}

func (s *fakeSurface) AppendEntry(class EntryClass, text string) Entry {
	e := &fakeEntry{class: class, text: text}
	s.entries = append(s.entries, e)
	return e
}

func (s *fakeSurface) ClearAll()                    { s.entries = nil; s.clears++ }
func (s *fakeSurface) ScrollToLatest()              { s.scrolls++ }
func (s *fakeSurface) SetInputEnabled(enabled bool) { s.inputEnabled = enabled }

func (s *fakeSurface) texts() []string {
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.text)
	}
	return out
}

// stubExchanger records outgoing texts and replies via a function.
type stubExchanger struct {
	mu    sync.Mutex
	sent  []string
	reply func(ctx context.Context, text string) (string, error)
}

func (x *stubExchanger) Send(ctx context.Context, tr *model.Transcript, text string) (string, error) {
	x.mu.Lock()
	x.sent = append(x.sent, text)
	x.mu.Unlock()
	if err := tr.Append(model.NewUserMessage(text)); err != nil {
		return "", err
	}
	reply, err := x.reply(ctx, text)
	if err != nil {
		return "", err
	}
	return reply, tr.Append(model.NewAssistantMessage(reply))
}

func (x *stubExchanger) lastSent() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.sent) == 0 {
		return ""
	}
	return x.sent[len(x.sent)-1]
}

func echoExchanger() *stubExchanger {
	return &stubExchanger{reply: func(_ context.Context, text string) (string, error) {
		return "echo: " + text, nil
	}}
}

// blockingExchanger waits until released or canceled.
func blockingExchanger(release <-chan struct{}) *stubExchanger {
	return &stubExchanger{reply: func(ctx context.Context, _ string) (string, error) {
		select {
		case <-release:
			return "late reply", nil
		case <-ctx.Done():
			return "", &cloud.TransportError{Err: ctx.Err()}
		}
	}}
}

func newTestController(x Exchanger, opts ...func(*Options)) (*Controller, *fakeSurface) {
	surface := &fakeSurface{}
	o := Options{Exchanger: x, Surface: surface, Logger: zerolog.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	ctrl := New(o)
	ctrl.Mount()
	return ctrl, surface
}

// =============================================================================
// SUBMIT CYCLE
// =============================================================================

func TestMount_RendersGreeting(t *testing.T) {
	_, surface := newTestController(echoExchanger())

	require.Len(t, surface.entries, 1)
	assert.Equal(t, ClassAI, surface.entries[0].class)
	assert.Equal(t, DefaultGreeting, surface.entries[0].text)
	assert.True(t, surface.inputEnabled)
}

func TestBegin_RendersUserAndPlaceholder(t *testing.T) {
	ctrl, surface := newTestController(echoExchanger())

	turn, err := ctrl.Begin("  Which serum for dry skin?  ")
	require.NoError(t, err)

	assert.Equal(t, StateAwaitingReply, ctrl.State())
	assert.False(t, surface.inputEnabled)
	assert.Equal(t, 1, surface.clears)

	require.Len(t, surface.entries, 2)
	assert.Equal(t, ClassUser, surface.entries[0].class)
	assert.Equal(t, "Which serum for dry skin?", surface.entries[0].text)
	assert.Equal(t, ClassAI, surface.entries[1].class)
	assert.Equal(t, PlaceholderText, surface.entries[1].text)

	assert.Equal(t, "Which serum for dry skin?", turn.Display)
	assert.Equal(t, 0, ctrl.Transcript().Len(), "nothing is sent before Run")
}

func TestBegin_EmptyInputChangesNothing(t *testing.T) {
	for _, input := range []string{"", " ", "\t\n  "} {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			ctrl, surface := newTestController(echoExchanger())
			before := surface.texts()

			turn, err := ctrl.Begin(input)
			assert.ErrorIs(t, err, ErrEmptyInput)
			assert.Nil(t, turn)
			assert.Equal(t, StateIdle, ctrl.State())
			assert.Equal(t, before, surface.texts())
			assert.Equal(t, 0, surface.clears)
			assert.True(t, surface.inputEnabled)
		})
	}
}

func TestBegin_RejectsReentrantSubmission(t *testing.T) {
	ctrl, surface := newTestController(echoExchanger())

	_, err := ctrl.Begin("first")
	require.NoError(t, err)
	before := surface.texts()

	_, err = ctrl.Begin("second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, before, surface.texts())
	assert.Equal(t, StateAwaitingReply, ctrl.State())
}

func TestSubmit_Success(t *testing.T) {
	x := &stubExchanger{reply: func(context.Context, string) (string, error) {
		return "Try the X serum", nil
	}}
	ctrl, surface := newTestController(x)

	reply, err := ctrl.Submit(context.Background(), "Which serum?")
	require.NoError(t, err)
	assert.Equal(t, "Try the X serum", reply)

	assert.Equal(t, []string{"Which serum?", "Try the X serum"}, surface.texts())
	assert.Equal(t, StateIdle, ctrl.State())
	assert.True(t, surface.inputEnabled)

	snap := ctrl.Transcript().Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, model.RoleUser, snap[0].Role)
	assert.Equal(t, model.RoleAssistant, snap[1].Role)
}

func TestSubmit_ClearsPreviousTurn(t *testing.T) {
	ctrl, surface := newTestController(echoExchanger())

	_, err := ctrl.Submit(context.Background(), "one")
	require.NoError(t, err)
	_, err = ctrl.Submit(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, []string{"two", "echo: two"}, surface.texts())
	assert.Equal(t, 4, ctrl.Transcript().Len(), "history is still replayed")
}

func TestSubmit_KeepHistory(t *testing.T) {
	ctrl, surface := newTestController(echoExchanger(), func(o *Options) { o.KeepHistory = true })

	_, err := ctrl.Submit(context.Background(), "one")
	require.NoError(t, err)
	_, err = ctrl.Submit(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, []string{DefaultGreeting, "one", "echo: one", "two", "echo: two"}, surface.texts())
	assert.Equal(t, 0, surface.clears)
}

func TestSubmit_RemoteErrorShowsErrorText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	ctrl, surface := newTestController(cloud.NewClient(server.URL))

	_, err := ctrl.Submit(context.Background(), "hello")

	var remoteErr *cloud.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, []string{"hello", ErrorText}, surface.texts())
	assert.True(t, surface.inputEnabled)
	assert.Equal(t, StateIdle, ctrl.State())

	// The conversation continues after a failure.
	assert.Equal(t, 1, ctrl.Transcript().Len())
	_, err = ctrl.Begin("again")
	assert.NoError(t, err)
}

func TestSubmit_MalformedShowsErrorText(t *testing.T) {
	x := &stubExchanger{reply: func(context.Context, string) (string, error) {
		return "", &cloud.MalformedResponseError{Reason: "no assistant response returned"}
	}}
	ctrl, surface := newTestController(x)

	_, err := ctrl.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, ErrorText, surface.entries[1].text)
	assert.True(t, surface.inputEnabled)
}

// =============================================================================
// SESSION NAME
// =============================================================================

func TestSessionName_AnnotatesOutgoingText(t *testing.T) {
	x := echoExchanger()
	ctrl, surface := newTestController(x)

	_, err := ctrl.Submit(context.Background(), "Hi, my name is Sam")
	require.NoError(t, err)
	assert.Equal(t, "Sam", ctrl.SessionName())
	assert.Equal(t, "Hi, my name is Sam (from Sam)", x.lastSent())
	assert.Equal(t, "Hi, my name is Sam", surface.entries[0].text, "display text is not annotated")

	_, err = ctrl.Submit(context.Background(), "best mascara?")
	require.NoError(t, err)
	assert.Equal(t, "best mascara? (from Sam)", x.lastSent())

	_, err = ctrl.Submit(context.Background(), "actually I'm Lee")
	require.NoError(t, err)
	assert.Equal(t, "Lee", ctrl.SessionName(), "later matches overwrite")

	_, err = ctrl.Submit(context.Background(), "thanks")
	require.NoError(t, err)
	assert.Equal(t, "Lee", ctrl.SessionName(), "non-matches never clear")
}

func TestSessionName_UnnamedSendsLiteralText(t *testing.T) {
	x := echoExchanger()
	ctrl, _ := newTestController(x)

	_, err := ctrl.Submit(context.Background(), "no name here")
	require.NoError(t, err)
	assert.Equal(t, "no name here", x.lastSent())
	assert.Empty(t, ctrl.SessionName())
}

func TestSubmit_SendsTextAsTyped(t *testing.T) {
	x := echoExchanger()
	ctrl, surface := newTestController(x)

	decomposed := "Cafe\u0301 serum?"
	_, err := ctrl.Submit(context.Background(), "  "+decomposed+"\n")
	require.NoError(t, err)

	assert.Equal(t, []byte(decomposed), []byte(x.lastSent()))
	assert.Equal(t, decomposed, surface.entries[0].text)

	last, ok := ctrl.Transcript().Last()
	require.True(t, ok)
	assert.Equal(t, "echo: "+decomposed, last.Content)
}

func TestSessionName_ComposedAndDecomposedMatchAlike(t *testing.T) {
	composed, _ := newTestController(echoExchanger())
	decomposed, _ := newTestController(echoExchanger())

	_, err := composed.Submit(context.Background(), "I'm Ren\u00e9e")
	require.NoError(t, err)
	_, err = decomposed.Submit(context.Background(), "I'm Rene\u0301e")
	require.NoError(t, err)

	assert.NotEmpty(t, composed.SessionName())
	assert.Equal(t, composed.SessionName(), decomposed.SessionName())
}

// =============================================================================
// CANCELLATION & LIFECYCLE
// =============================================================================

func TestReset_CancelsInFlightAndIgnoresLateCompletion(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	ctrl, surface := newTestController(blockingExchanger(release))

	turn, err := ctrl.Begin("hello")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Run(context.Background(), turn)
		done <- err
	}()

	require.Eventually(t, ctrl.InFlight, time.Second, 5*time.Millisecond)
	ctrl.Reset()

	select {
	case err := <-done:
		assert.True(t, cloud.IsCanceled(err), "expected cancellation, got %v", err)
		assert.False(t, ctrl.Complete(turn, "", err), "stale completion must be ignored")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Reset")
	}

	assert.Equal(t, StateIdle, ctrl.State())
	assert.Equal(t, []string{DefaultGreeting}, surface.texts())
	assert.True(t, surface.inputEnabled)
	assert.Equal(t, 0, ctrl.Transcript().Len())
	assert.Empty(t, ctrl.SessionName())
}

func TestRun_CallerContextCancels(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	ctrl, surface := newTestController(blockingExchanger(release))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ctrl.Submit(ctx, "hello")
	require.Error(t, err)
	assert.True(t, cloud.IsCanceled(err) || errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, ErrorText, surface.entries[1].text)
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestClose_RejectsFurtherSubmissions(t *testing.T) {
	ctrl, _ := newTestController(echoExchanger())
	ctrl.Close()
	ctrl.Close()

	_, err := ctrl.Begin("hello")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClose_CancelsInFlight(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	ctrl, _ := newTestController(blockingExchanger(release))

	turn, err := ctrl.Begin("hello")
	require.NoError(t, err)
	ctrl.Close()

	_, err = ctrl.Run(context.Background(), turn)
	assert.ErrorIs(t, err, ErrStaleTurn)
	assert.False(t, ctrl.Complete(turn, "x", nil))
}

func TestSetKeepHistory(t *testing.T) {
	ctrl, surface := newTestController(echoExchanger())
	ctrl.SetKeepHistory(true)

	_, err := ctrl.Submit(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, 0, surface.clears)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting_reply", StateAwaitingReply.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestNew_CustomGreeting(t *testing.T) {
	_, surface := newTestController(echoExchanger(), func(o *Options) { o.Greeting = "hi there" })
	assert.Equal(t, []string{"hi there"}, surface.texts())
}
