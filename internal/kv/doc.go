// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kv provides a small SQLite-backed key-value store.
//
// Conversation history, the current-conversation pointer, and the trash
// ring are each persisted as JSON blobs under stable keys. SQLite gives us
// atomic writes and a single on-disk file without a server process.
//
// # Key Types
//
//   - Store: the open database handle
//   - ErrNotFound: returned by Get for absent keys
//
// # Usage
//
//	db, err := kv.Open(filepath.Join(dataDir, "tetsu.db"))
//	defer db.Close()
//	err = db.Put("current_conversation", []byte(id))
package kv
