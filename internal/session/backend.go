// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	"github.com/jeranaias/tetsu-tui/internal/backend"
	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/stream"
)

// =============================================================================
// TRANSPORT CONTRACT
// =============================================================================

// EventStream is one in-flight streamed response.
type EventStream interface {
	// Next returns the next event, io.EOF at end of stream, or the
	// transport's error. A cancelled request surfaces context.Canceled.
	Next() (stream.Event, error)
	Close() error
}

// Backend is the transport the controller depends on. The controller is
// transport-agnostic; anything that can speak the event vocabulary can
// implement it.
type Backend interface {
	ChatStream(ctx context.Context, msgs []*model.Message) (EventStream, error)
	Complete(ctx context.Context, msgs []*model.Message) (string, error)
	Cancel(ctx context.Context)
}

// Adapt wraps the concrete HTTP client in the Backend contract.
func Adapt(c *backend.Client) Backend {
	return httpBackend{c}
}

type httpBackend struct {
	client *backend.Client
}

func (b httpBackend) ChatStream(ctx context.Context, msgs []*model.Message) (EventStream, error) {
	st, err := b.client.ChatStream(ctx, msgs)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (b httpBackend) Complete(ctx context.Context, msgs []*model.Message) (string, error) {
	return b.client.Complete(ctx, msgs)
}

func (b httpBackend) Cancel(ctx context.Context) {
	b.client.Cancel(ctx)
}
