// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strconv"
	"sync"
	"time"
)

// TitleMaxLen is the maximum rune length of an auto-derived conversation title.
const TitleMaxLen = 40

// PinMaxLen is the maximum rune length of a pinned excerpt.
const PinMaxLen = 200

// =============================================================================
// PINNED EXCERPT
// =============================================================================

// PinnedExcerpt is a bounded snippet of content pinned to a conversation.
// Purely informational; duplicates are allowed.
type PinnedExcerpt struct {
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"-"`
	TimestampMS int64     `json:"timestamp"`
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat conversation with history and metadata.
//
// The message log is append-only except for the explicit truncation performed
// by regeneration and summarization. Exactly one conversation is current in a
// client session; all mutation happens on the event-loop goroutine.
type Conversation struct {
	// Identity. The ID is the creation-time Unix-milli timestamp.
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	CreatedAtMS int64 `json:"created_at"`
	UpdatedAtMS int64 `json:"updated_at"`

	// Messages
	Messages []*Message `json:"messages"`

	// Cumulative token usage reported by the backend.
	Tokens TokenUsage `json:"tokens"`

	// Pinned excerpts
	Pinned []PinnedExcerpt `json:"pinned"`

	// ForkedFrom is the parent conversation ID, or "" for a root.
	ForkedFrom string `json:"forked_from,omitempty"`
}

var (
	idMu   sync.Mutex
	lastID int64
)

// newConversationID returns the creation-time Unix-milli timestamp as a
// string, bumped forward when two conversations are created within the same
// millisecond (fork immediately after new, for example).
func newConversationID(now time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()
	ms := now.UnixMilli()
	if ms <= lastID {
		ms = lastID + 1
	}
	lastID = ms
	return strconv.FormatInt(ms, 10)
}

// NewConversation creates a new empty root conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:          newConversationID(now),
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedAtMS: now.UnixMilli(),
		UpdatedAtMS: now.UnixMilli(),
		Messages:    make([]*Message, 0),
		Pinned:      make([]PinnedExcerpt, 0),
	}
}

// SyncTimestamps rebuilds the time.Time fields after JSON decoding.
func (c *Conversation) SyncTimestamps() {
	if c.CreatedAtMS > 0 {
		c.CreatedAt = time.UnixMilli(c.CreatedAtMS)
	}
	if c.UpdatedAtMS > 0 {
		c.UpdatedAt = time.UnixMilli(c.UpdatedAtMS)
	}
	for _, msg := range c.Messages {
		msg.SyncTimestamp()
	}
	for i := range c.Pinned {
		if c.Pinned[i].TimestampMS > 0 {
			c.Pinned[i].Timestamp = time.UnixMilli(c.Pinned[i].TimestampMS)
		}
	}
}

// touch updates the modification timestamp.
func (c *Conversation) touch() {
	c.UpdatedAt = time.Now()
	c.UpdatedAtMS = c.UpdatedAt.UnixMilli()
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append pushes a message to the end of the log. The log is never reordered.
// The title is derived from the first user message if not already set.
func (c *Conversation) Append(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.touch()
	c.updateTitle()
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// LastUserMessage returns the most recent user message, or nil.
func (c *Conversation) LastUserMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i]
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// PopTrailingAssistants removes consecutive trailing assistant messages so
// the log ends on the last user message, and returns that user message.
// Returns nil (and leaves the log untouched) if no user message exists.
func (c *Conversation) PopTrailingAssistants() *Message {
	end := len(c.Messages)
	for end > 0 && c.Messages[end-1].Role != RoleUser {
		end--
	}
	if end == 0 {
		return nil
	}
	c.Messages = c.Messages[:end]
	c.touch()
	return c.Messages[end-1]
}

// ReplaceWithSummary replaces the entire message log with exactly two
// entries: a system message holding the summary and an assistant message
// presenting it to the user.
func (c *Conversation) ReplaceWithSummary(summary string) {
	c.Messages = []*Message{
		NewSystemMessage(summary),
		NewAssistantMessage("Here's a summary of our conversation so far:\n\n" + summary),
	}
	c.touch()
}

// CompactWithSummary replaces all but the most recent keepRecent messages
// with a synthetic system message containing the summary. Used by the
// automatic context compaction trigger.
func (c *Conversation) CompactWithSummary(summary string, keepRecent int) {
	if keepRecent < 0 {
		keepRecent = 0
	}
	if keepRecent > len(c.Messages) {
		keepRecent = len(c.Messages)
	}
	recent := c.Messages[len(c.Messages)-keepRecent:]

	compacted := make([]*Message, 0, keepRecent+1)
	compacted = append(compacted, NewSystemMessage("Summary of earlier conversation: "+summary))
	compacted = append(compacted, recent...)
	c.Messages = compacted
	c.touch()
}

// =============================================================================
// PINNED EXCERPTS
// =============================================================================

// Pin appends a bounded excerpt to the pinned list.
func (c *Conversation) Pin(content string) {
	now := time.Now()
	c.Pinned = append(c.Pinned, PinnedExcerpt{
		Content:     TruncateRunes(content, PinMaxLen),
		Timestamp:   now,
		TimestampMS: now.UnixMilli(),
	})
	c.touch()
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle derives a title from the first user message if not set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			c.Title = msg.Preview(TitleMaxLen)
			return
		}
	}
}

// SetTitle sets the conversation title. Async title generation may overwrite
// the derived title at any time after the first exchange.
func (c *Conversation) SetTitle(title string) {
	c.Title = Preview(title, TitleMaxLen)
	c.touch()
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "new chat"
}

// =============================================================================
// FORKING
// =============================================================================

// ForkAt derives a new conversation from a deep-copied prefix of this one,
// inclusive of uptoIndex. Pass len(Messages)-1 (or use Fork) for the whole
// log. The pinned list starts empty; token usage is carried over. The source
// is never mutated.
func (c *Conversation) ForkAt(uptoIndex int) *Conversation {
	if uptoIndex < 0 || uptoIndex >= len(c.Messages) {
		uptoIndex = len(c.Messages) - 1
	}

	child := NewConversation()
	child.ForkedFrom = c.ID
	child.Title = c.Title
	child.Tokens = c.Tokens
	for _, msg := range c.Messages[:uptoIndex+1] {
		child.Messages = append(child.Messages, msg.Clone())
	}
	return child
}

// Fork derives a new conversation from the entire message log.
func (c *Conversation) Fork() *Conversation {
	return c.ForkAt(len(c.Messages) - 1)
}

// Clone returns a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:          c.ID,
		Title:       c.Title,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		CreatedAtMS: c.CreatedAtMS,
		UpdatedAtMS: c.UpdatedAtMS,
		Tokens:      c.Tokens,
		ForkedFrom:  c.ForkedFrom,
		Messages:    make([]*Message, len(c.Messages)),
		Pinned:      append([]PinnedExcerpt(nil), c.Pinned...),
	}
	for i, msg := range c.Messages {
		clone.Messages[i] = msg.Clone()
	}
	return clone
}

// =============================================================================
// METADATA
// =============================================================================

// Preview returns a short preview of the conversation.
func (c *Conversation) Preview() string {
	if len(c.Messages) == 0 {
		return "empty conversation"
	}
	first := c.LastUserMessage()
	if first == nil {
		first = c.Messages[0]
	}
	return first.Preview(80)
}

// Meta holds lightweight metadata for listing.
type Meta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ForkedFrom   string    `json:"forked_from,omitempty"`
	Preview      string    `json:"preview"`
}

// GetMeta returns metadata about the conversation.
func (c *Conversation) GetMeta() Meta {
	return Meta{
		ID:           c.ID,
		Title:        c.GetTitle(),
		MessageCount: len(c.Messages),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		ForkedFrom:   c.ForkedFrom,
		Preview:      c.Preview(),
	}
}
