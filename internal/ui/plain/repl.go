// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/jeranaias/routinechat/internal/conversation"
	"github.com/jeranaias/routinechat/internal/util"
)

// =============================================================================
// LINE READER
// =============================================================================

// LineReader reads one line of input. *LinerReader satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// LinerReader provides line editing and input history via liner.
type LinerReader struct {
	line        *liner.State
	historyFile string
}

// NewLinerReader creates a reader, loading history from historyFile when
// it is non-empty.
func NewLinerReader(historyFile string) *LinerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &LinerReader{line: line, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

// Prompt reads a line and records non-empty input in the history.
func (r *LinerReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with 0600 permissions and restores the terminal.
func (r *LinerReader) Close() error {
	if r.historyFile != "" {
		// A failed save keeps the previous history file.
		_ = util.AtomicWrite(r.historyFile, 0600, func(w io.Writer) error {
			_, err := r.line.WriteHistory(w)
			return err
		})
	}
	return r.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// DefaultPrompt is shown before each line of input.
const DefaultPrompt = "> "

// REPL runs a line-mode chat session.
//
// Interactive commands:
//
//	/new, /reset   start a new chat
//	/help          show commands
//	/quit, /exit   leave (Ctrl+D works too)
type REPL struct {
	ctrl   *conversation.Controller
	reader LineReader
	out    io.Writer
	prompt string
	logger zerolog.Logger
}

// NewREPL creates a REPL. Informational output goes to out.
func NewREPL(ctrl *conversation.Controller, reader LineReader, out io.Writer, logger zerolog.Logger) *REPL {
	return &REPL{
		ctrl:   ctrl,
		reader: reader,
		out:    out,
		prompt: DefaultPrompt,
		logger: logger.With().Str("component", "repl").Logger(),
	}
}

// Run mounts the session and reads lines until EOF, Ctrl+C at the prompt,
// /quit or ctx is done. Ctrl+C during a pending reply cancels only that
// reply.
func (r *REPL) Run(ctx context.Context) error {
	defer r.ctrl.Close()
	r.ctrl.Mount()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		input, err := r.reader.Prompt(r.prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		switch strings.ToLower(input) {
		case "":
			continue
		case "/quit", "/exit", "/q":
			return nil
		case "/new", "/reset":
			r.ctrl.Reset()
			continue
		case "/help", "/h":
			r.printHelp()
			continue
		}

		r.submit(ctx, input)
	}
}

// submit runs one exchange; SIGINT cancels it.
func (r *REPL) submit(ctx context.Context, input string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if _, err := r.ctrl.Submit(turnCtx, input); err != nil {
		// The surface already shows the generic error text.
		r.logger.Debug().Err(err).Msg("submission failed")
	}
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  /new     start a new chat")
	fmt.Fprintln(r.out, "  /help    show this help")
	fmt.Fprintln(r.out, "  /quit    leave (or Ctrl+D)")
}
