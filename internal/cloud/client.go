// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/routinechat/internal/model"
)

// Configuration constants for the worker endpoint.
const (
	// DefaultEndpoint is the worker URL the widget talks to.
	DefaultEndpoint = "https://chatbot-for-loreal.glatch.workers.dev"

	// DefaultTimeout is the default timeout for a single exchange.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	userAgent = "routinechat/1.0"
)

// DefaultSystemPrompt constrains the assistant to L'Oréal products and routines.
const DefaultSystemPrompt = `You are a helpful, cheerful assistant that ONLY answers questions about L'Oréal products, routines, and product recommendations. Limit responses to factual information about L'Oréal brands, product usage, recommended routines, suitable skin/hair types, shade/finish guidance, and comparable L'Oréal alternatives. If a question is outside this scope, politely reply: "Sorry! I'm not sure about that. I can only help with L'Oréal products, routines, and recommendations." Allow for a bit of vagueness in user questions and do not require full sentences, and just answer to the best of your ability, but ask 1–2 short clarifying follow-up questions at the end of the response when necessary to provide better assistance. Do not provide medical or emergency advice.`

// sharedTransport pools connections for all clients in the process.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        10,
	MaxIdleConnsPerHost: 2,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// Client sends the conversation to the worker endpoint.
//
// A Client performs exactly one HTTP request per Send. It never retries.
type Client struct {
	mu           sync.RWMutex
	endpoint     string
	systemPrompt string

	httpClient *http.Client
	limiter    *rate.Limiter // nil means unpaced
	logger     zerolog.Logger
}

// NewClient creates a client for endpoint. An empty endpoint selects
// DefaultEndpoint.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:     strings.TrimSpace(endpoint),
		systemPrompt: DefaultSystemPrompt,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: sharedTransport,
		},
		logger: zerolog.Nop(),
	}
}

// WithSystemPrompt sets the instruction prepended to every request.
func (c *Client) WithSystemPrompt(prompt string) *Client {
	c.mu.Lock()
	c.systemPrompt = prompt
	c.mu.Unlock()
	return c
}

// WithTimeout sets the request timeout. Zero leaves the transport default.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithLogger sets the diagnostic logger.
func (c *Client) WithLogger(logger zerolog.Logger) *Client {
	c.logger = logger.With().Str("component", "cloud").Logger()
	return c
}

// WithRateLimit paces outgoing requests to perMinute. Zero or less disables
// pacing. Paced requests wait; they are never dropped or retried.
func (c *Client) WithRateLimit(perMinute int) *Client {
	if perMinute <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	return c
}

// Reconfigure swaps the endpoint and system prompt used by later requests.
// Empty values keep the current setting.
func (c *Client) Reconfigure(endpoint, prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		c.endpoint = endpoint
	}
	if prompt != "" {
		c.systemPrompt = prompt
	}
}

// Endpoint returns the current endpoint URL.
func (c *Client) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// SystemPrompt returns the current system instruction.
func (c *Client) SystemPrompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.systemPrompt
}

// BuildRequest returns the outgoing payload for transcript: the system
// instruction followed by every stored message in creation order.
func (c *Client) BuildRequest(transcript *model.Transcript) ChatRequest {
	snapshot := transcript.Snapshot()

	messages := make([]ChatMessage, 0, len(snapshot)+1)
	messages = append(messages, NewChatMessage(model.NewSystemMessage(c.SystemPrompt())))
	for _, msg := range snapshot {
		messages = append(messages, NewChatMessage(msg))
	}
	return ChatRequest{Messages: messages}
}

// Send appends userText to transcript, performs one exchange with the
// worker and appends the assistant reply on success.
//
// Errors are *TransportError, *RemoteError or *MalformedResponseError, or
// ErrPacing when ctx ends while waiting for the rate limiter; no request is
// sent in that case. On failure the transcript keeps the user message and
// gains no reply.
func (c *Client) Send(ctx context.Context, transcript *model.Transcript, userText string) (string, error) {
	if err := transcript.Append(model.NewUserMessage(userText)); err != nil {
		return "", fmt.Errorf("failed to record user message: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %w", ErrPacing, err)
		}
	}

	reply, err := c.doRequest(ctx, c.BuildRequest(transcript))
	if err != nil {
		return "", err
	}

	if err := transcript.Append(model.NewAssistantMessage(reply)); err != nil {
		return "", fmt.Errorf("failed to record assistant message: %w", err)
	}
	return reply, nil
}

// doRequest performs a single POST and extracts the reply text.
func (c *Client) doRequest(ctx context.Context, reqBody ChatRequest) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.Endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logRequest(req, len(reqBody.Messages))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Dur("duration", time.Since(start)).Msg("api request failed")
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	c.logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RemoteError{Status: resp.StatusCode, Body: string(body)}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &MalformedResponseError{Reason: "invalid JSON", Err: err}
	}

	content := chatResp.GetContent()
	if content == "" {
		return "", &MalformedResponseError{Reason: "no assistant response returned"}
	}
	return content, nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// logRequest logs an outgoing request without its body.
func (c *Client) logRequest(req *http.Request, messages int) {
	c.logger.Debug().
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Int("messages", messages).
		Msg("api request")
}

// logResponse logs status and latency only.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("api response")
}
