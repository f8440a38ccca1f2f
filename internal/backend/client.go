// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/tetsu-tui/internal/log"
	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/stream"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Readiness probe cadence and ceiling.
const (
	readyProbeInterval = 250 * time.Millisecond
	readyTimeout       = 15 * time.Second
)

// errBodyLimit bounds how much of an error response body is kept for
// display.
const errBodyLimit = 512

// Config holds the client's connection settings and the per-request
// parameters forwarded with every chat request.
type Config struct {
	BaseURL      string
	Model        string
	Provider     string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
	APIKey       string
	ContextMode  string

	// Timeout applies to control requests only; streaming requests run
	// until the stream ends or the context is cancelled.
	Timeout time.Duration
}

// DefaultConfig returns settings for a locally supervised backend.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:3344",
		Model:   "claude-sonnet-4-5-20250929",
		Timeout: 30 * time.Second,
	}
}

// =============================================================================
// WIRE SHAPES
// =============================================================================

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages     []wireMessage `json:"messages"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider,omitempty"`
	Temperature  float64       `json:"temperature,omitempty"`
	MaxTokens    int           `json:"max_tokens,omitempty"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	APIKey       string        `json:"api_key,omitempty"`
	ContextMode  string        `json:"context_mode,omitempty"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the backend API. Safe for concurrent use.
type Client struct {
	config Config
	http   *http.Client // control requests, bounded timeout
	stream *http.Client // chat streams, no timeout
}

// NewClient creates a client for the given configuration. Zero-value
// fields fall back to DefaultConfig.
func NewClient(config Config) *Client {
	def := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.Model == "" {
		config.Model = def.Model
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		stream: &http.Client{},
	}
}

// Config returns the client's configuration.
func (c *Client) Config() Config {
	return c.config
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + path
}

// buildRequest assembles the chat body from the message log and the
// configured model parameters.
func (c *Client) buildRequest(msgs []*model.Message) ChatRequest {
	wire := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		wire = append(wire, wireMessage{Role: m.Role.String(), Content: m.Content})
	}
	return ChatRequest{
		Messages:     wire,
		Model:        c.config.Model,
		Provider:     c.config.Provider,
		Temperature:  c.config.Temperature,
		MaxTokens:    c.config.MaxTokens,
		SystemPrompt: c.config.SystemPrompt,
		APIKey:       c.config.APIKey,
		ContextMode:  c.config.ContextMode,
	}
}

// =============================================================================
// READINESS
// =============================================================================

// WaitReady polls the backend until it answers, the ceiling elapses, or
// ctx is cancelled. Used at startup while the backend process is still
// coming up.
func (c *Client) WaitReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	ticker := time.NewTicker(readyProbeInterval)
	defer ticker.Stop()

	for {
		if c.probe(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return &TransportError{Op: "wait for backend", Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}

func (c *Client) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/api/health"), nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// =============================================================================
// CHAT
// =============================================================================

// Stream is one in-flight chat response. Close releases the connection;
// always call it, including after Next returns an error.
type Stream struct {
	*stream.Reader
	body io.ReadCloser
}

// Close closes the underlying response body.
func (s *Stream) Close() error {
	return s.body.Close()
}

// ChatStream sends the message log and returns the event stream. The
// request runs until the stream ends or ctx is cancelled; cancelling ctx
// surfaces context.Canceled from Next.
func (c *Client) ChatStream(ctx context.Context, msgs []*model.Message) (*Stream, error) {
	body, err := json.Marshal(c.buildRequest(msgs))
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/chat"), bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: "create chat request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "send chat request", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		resp.Body.Close()
		return nil, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	return &Stream{Reader: stream.NewReader(resp.Body), body: resp.Body}, nil
}

// Complete runs a chat request to completion off-screen and returns the
// concatenated content. Used for title generation and summaries. An error
// event in the stream fails the call.
func (c *Client) Complete(ctx context.Context, msgs []*model.Message) (string, error) {
	st, err := c.ChatStream(ctx, msgs)
	if err != nil {
		return "", err
	}
	defer st.Close()

	var sb strings.Builder
	for {
		ev, err := st.Next()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", &TransportError{Op: "read completion", Err: err}
		}
		switch ev.Type {
		case stream.EventContent:
			sb.WriteString(ev.Content)
		case stream.EventError:
			return "", fmt.Errorf("completion failed: %s", ev.Content)
		}
	}
}

// =============================================================================
// CONTROL
// =============================================================================

// postJSON issues a control POST with an optional JSON body.
func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), body)
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// fireAndForget issues a control POST and swallows every failure.
func (c *Client) fireAndForget(ctx context.Context, path string) {
	resp, err := c.postJSON(ctx, path, nil)
	if err != nil {
		log.Debug("backend: %s: %v", path, err)
		return
	}
	resp.Body.Close()
}

// Cancel aborts the in-flight generation on the backend side. Best
// effort; the local stream is torn down separately via its context.
func (c *Client) Cancel(ctx context.Context) {
	c.fireAndForget(ctx, "/api/cancel")
}

// Reset clears the backend's session state.
func (c *Client) Reset(ctx context.Context) {
	c.fireAndForget(ctx, "/api/reset")
}

// Approve accepts the pending tool action at index.
func (c *Client) Approve(ctx context.Context, index int) error {
	return c.gate(ctx, "/api/approve", index)
}

// Reject declines the pending tool action at index.
func (c *Client) Reject(ctx context.Context, index int) error {
	return c.gate(ctx, "/api/reject", index)
}

func (c *Client) gate(ctx context.Context, path string, index int) error {
	resp, err := c.postJSON(ctx, path, map[string]int{"index": index})
	if err != nil {
		return &TransportError{Op: "post " + path, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}
	return nil
}

// =============================================================================
// FILES
// =============================================================================

// ReadFile fetches a workspace file's contents via the backend, used to
// expand @file mentions before sending.
func (c *Client) ReadFile(ctx context.Context, path string) (string, error) {
	resp, err := c.postJSON(ctx, "/api/files/read", map[string]string{"path": path})
	if err != nil {
		return "", &TransportError{Op: "read file", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return "", &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	var out struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode file response: %w", err)
	}
	return out.Content, nil
}
