// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates one request/response cycle against the
// backend: it appends the user message, consumes the event stream,
// accumulates the reply, correlates tool calls, meters token usage, and
// finalizes the assistant message back into the store.
//
// The controller owns the streaming state machine:
//
//	IDLE -> SENDING -> STREAMING -> FINALIZING -> IDLE
//
// with an ERROR branch from SENDING/STREAMING and a CANCELLED branch from
// STREAMING only. At most one turn is in flight per controller; re-entrant
// sends are rejected with ErrBusy.
//
// # Key Types
//
//   - Controller: the state machine
//   - Sink: the UI-facing event listener
//   - Backend: the transport contract the controller depends on
//
// # Usage
//
//	ctrl := session.NewController(st, session.Adapt(client), budget, sink)
//	go ctrl.Send(ctx, "explain this function")
package session
