// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// TOKEN USAGE
// =============================================================================

// TokenUsage holds cumulative token counters for a conversation.
// Counters only ever grow; usage events carry deltas that are added in.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Add accumulates a usage delta into the counters.
func (u *TokenUsage) Add(delta TokenUsage) {
	u.Prompt += delta.Prompt
	u.Completion += delta.Completion
	u.Total += delta.Total
}

// IsZero reports whether no usage has been recorded.
func (u TokenUsage) IsZero() bool {
	return u.Prompt == 0 && u.Completion == 0 && u.Total == 0
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"-"`

	// Content
	Content string `json:"content"`

	// Usage attributed to the turn that produced this message, if any.
	Usage *TokenUsage `json:"usage,omitempty"`

	// TimestampMS carries the timestamp over the wire as epoch milliseconds.
	TimestampMS int64 `json:"timestamp"`
}

// NewMessage creates a new message with a generated ID and the current time.
func NewMessage(role Role, content string) *Message {
	now := time.Now()
	return &Message{
		ID:          uuid.NewString(),
		Role:        role,
		Content:     content,
		Timestamp:   now,
		TimestampMS: now.UnixMilli(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) *Message {
	return NewMessage(RoleAssistant, content)
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// SyncTimestamp rebuilds the time.Time field after JSON decoding.
func (m *Message) SyncTimestamp() {
	if m.TimestampMS > 0 {
		m.Timestamp = time.UnixMilli(m.TimestampMS)
	}
}

// Preview returns a bounded single-line preview of the message content.
func (m *Message) Preview(maxLen int) string {
	return Preview(m.Content, maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	cp := *m
	if m.Usage != nil {
		usage := *m.Usage
		cp.Usage = &usage
	}
	return &cp
}
