// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/routinechat/internal/conversation"
	"github.com/jeranaias/routinechat/internal/ui/plain"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var transcript bool

	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask a single question and print the reply",
		Long: "Sends one question to the chat worker and prints the reply to stdout.\n" +
			`Use "-" to read the question from stdin.`,
		Example: `  routinechat ask "I'm Maya, which foundation suits oily skin?"
  echo "night routine for dry hair" | routinechat ask -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, args, transcript)
		},
	}

	cmd.Flags().BoolVar(&transcript, "transcript", false, "echo the chat as it happens to stderr")
	return cmd
}

func runAsk(cmd *cobra.Command, opts *rootOptions, args []string, transcript bool) error {
	question, err := readQuestion(cmd, args)
	if err != nil {
		return err
	}

	s, err := opts.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var echo io.Writer = io.Discard
	if transcript {
		echo = cmd.ErrOrStderr()
	}
	ctrl := s.newController(plain.NewSurface(echo))
	defer ctrl.Close()
	ctrl.Mount()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	reply, err := ctrl.Submit(ctx, question)
	switch {
	case errors.Is(err, conversation.ErrEmptyInput):
		return &UsageError{Message: "question is empty"}
	case err != nil:
		return NewCommandError("ask", "send", "no reply from the chat worker", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}

// readQuestion joins args into the question, or reads stdin for "-".
func readQuestion(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read question from stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}
