// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the backend's newline-delimited event protocol.
package stream

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventType discriminates the kinds of protocol events.
type EventType string

const (
	// EventContent carries a text delta of the assistant response.
	EventContent EventType = "content"
	// EventToolCall announces a tool invocation with its argument preview.
	EventToolCall EventType = "tool_call"
	// EventToolResult resolves the most recently opened tool call.
	EventToolResult EventType = "tool_result"
	// EventUsage carries a cumulative token usage delta.
	EventUsage EventType = "usage"
	// EventError relays an upstream error; Content holds the message.
	EventError EventType = "error"
	// EventDone signals the end of the response.
	EventDone EventType = "done"
)

// Usage is the wire shape of a usage delta.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Event is one decoded protocol event. The set of kinds is closed; dispatch
// sites switch exhaustively on Type.
type Event struct {
	Type EventType

	// Content is the text delta for content events and the message for
	// error events.
	Content string

	// Name and Args identify a tool call; Name and Result a tool result.
	// Both args and result arrive pre-truncated by the server.
	Name   string
	Args   string
	Result string

	// Usage is the delta carried by usage events.
	Usage Usage
}
