// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the conversation map, the current-conversation
// pointer, and the recoverable trash ring.
//
// All state lives in memory; a kv.Store, when available, mirrors it to
// disk under three stable keys. Persistence failure degrades to
// in-memory-only operation and is never raised to the caller.
//
// # Key Types
//
//   - Store: conversation map plus current pointer and trash ring
//   - TreeNode: one node of the fork lineage forest
//
// # Usage
//
//	s := store.New(db) // db may be nil for memory-only operation
//	s.Append(model.NewUserMessage("hello"))
//	child := s.Fork(s.Current().ID, -1)
package store
