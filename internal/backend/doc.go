// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the tetsu backend process.
//
// The backend exposes a small JSON API: a streaming chat endpoint whose
// response body is the newline-delimited event protocol decoded by
// internal/stream, fire-and-forget control endpoints (cancel, reset),
// tool gating endpoints (approve, reject), and file helpers used to
// enrich prompts.
//
// # Key Types
//
//   - Client: the API client; safe for concurrent use
//   - Stream: one in-flight chat response
//   - TransportError, UpstreamError: the two failure classes
//
// # Usage
//
//	c := backend.NewClient(cfg)
//	if err := c.WaitReady(ctx); err != nil { ... }
//	st, err := c.ChatStream(ctx, conv.Messages)
//	defer st.Close()
//	for {
//	    ev, err := st.Next()
//	    ...
//	}
package backend
