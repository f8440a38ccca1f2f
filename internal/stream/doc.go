// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the backend's newline-delimited event protocol.
//
// Each event arrives as a line of the form "data: {json}". The JSON payload
// carries a "type" discriminator (content, tool_call, tool_result, usage,
// error, done) plus kind-specific fields. A literal "[DONE]" payload ends
// the stream, distinct from the structural done event; both are recognized.
//
// The parser is a push parser fed raw chunks as they arrive off the wire.
// A partial line at the end of a chunk is buffered and prefixed to the next
// chunk before re-splitting, so the decoded event sequence is independent of
// how the transport happened to chop the bytes. Malformed JSON lines are
// skipped silently; the server is allowed to emit keep-alive or unrelated
// lines.
//
// # Key Types
//
//   - Event: one decoded protocol event (closed set of kinds)
//   - Parser: chunk-fed push parser with O(one line) buffering
//   - Reader: io.Reader adapter that drives a Parser
package stream
