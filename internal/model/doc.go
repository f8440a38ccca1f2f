// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations, messages, usage accounting and fork
// lineage.
//
// # Key Types
//
//   - Conversation: ordered message log with usage, pins and fork lineage
//   - Message: single message with role, content and timestamp
//   - TokenUsage: cumulative prompt/completion/total counters
//   - PinnedExcerpt: bounded excerpt pinned to a conversation
//   - Role: message role enumeration (user, assistant, system)
//
// # Usage
//
// Create a new conversation and append a message:
//
//	conv := model.NewConversation()
//	conv.Append(model.NewUserMessage("Hello!"))
//
// Fork a prefix of an existing conversation:
//
//	child := conv.ForkAt(2)
package model
