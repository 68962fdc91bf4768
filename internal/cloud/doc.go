// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the client for the remote chat-completion worker.
//
// The worker accepts {"messages":[...]} and answers with a completion whose
// reply lives at choices[0].message.content. This package builds that
// payload from a transcript, performs one POST and records the exchange.
//
// # Key Types
//
//   - Client: HTTP client for the worker, single attempt, no retry
//   - ChatMessage / ChatRequest / ChatResponse: wire types
//   - TransportError, RemoteError, MalformedResponseError: failure kinds
//
// # Usage
//
//	client := cloud.NewClient(cloud.DefaultEndpoint).WithLogger(logger)
//	reply, err := client.Send(ctx, transcript, "Which primer for oily skin?")
//
// Send appends the user message before the request and the assistant
// message after a well-formed reply; nothing else writes those roles.
package cloud
