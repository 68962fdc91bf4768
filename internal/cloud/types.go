// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"github.com/jeranaias/routinechat/internal/model"
)

// ChatMessage is the wire form of a single message.
type ChatMessage struct {
	Role    string `json:"role"`    // "system", "user" or "assistant"
	Content string `json:"content"` // The message content
}

// NewChatMessage converts a transcript message to its wire form.
func NewChatMessage(msg model.Message) ChatMessage {
	return ChatMessage{Role: msg.Role.String(), Content: msg.Content}
}

// ChatRequest is the body POSTed to the worker endpoint.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// ChatResponse is the subset of the completion response the widget reads.
// Any other fields sent by the worker are ignored.
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GetContent returns the content of the first choice, or empty string if none.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}
