// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"context"
	"errors"
	"sync"
)

// =============================================================================
// REVIEW QUEUE
// =============================================================================

// ErrNoPending is returned when a decision names an index with no
// pending edit.
var ErrNoPending = errors.New("diff: no pending edit at index")

// Gate forwards an approve or reject decision to the backend, which is
// what actually applies or discards the change. backend.Client satisfies
// it.
type Gate interface {
	Approve(ctx context.Context, index int) error
	Reject(ctx context.Context, index int) error
}

// Pending is one proposed edit awaiting a decision. Index is the
// backend's identifier for the pending action.
type Pending struct {
	Index int
	Edit  *Edit
}

// Queue tracks the edits proposed during a streaming turn. Decisions are
// non-blocking for the stream: the model keeps streaming while the user
// reviews, and the backend holds the actual file operation until a
// decision arrives.
type Queue struct {
	gate Gate

	mu      sync.Mutex
	pending map[int]*Pending
}

// NewQueue creates an empty review queue over the given gate.
func NewQueue(gate Gate) *Queue {
	return &Queue{
		gate:    gate,
		pending: make(map[int]*Pending),
	}
}

// Add registers a proposed edit under the backend's index.
func (q *Queue) Add(index int, edit *Edit) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[index] = &Pending{Index: index, Edit: edit}
}

// Pending returns the undecided edits. Order is not guaranteed; callers
// sort for display.
func (q *Queue) Pending() []*Pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Pending, 0, len(q.pending))
	for _, p := range q.pending {
		out = append(out, p)
	}
	return out
}

// Len returns the number of undecided edits.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Approve accepts the edit at index and removes it from the queue. The
// entry is kept when the backend call fails so the user can retry.
func (q *Queue) Approve(ctx context.Context, index int) error {
	return q.decide(ctx, index, q.gate.Approve)
}

// Reject declines the edit at index and removes it from the queue.
func (q *Queue) Reject(ctx context.Context, index int) error {
	return q.decide(ctx, index, q.gate.Reject)
}

func (q *Queue) decide(ctx context.Context, index int, send func(context.Context, int) error) error {
	q.mu.Lock()
	_, ok := q.pending[index]
	q.mu.Unlock()
	if !ok {
		return ErrNoPending
	}

	if err := send(ctx, index); err != nil {
		return err
	}

	q.mu.Lock()
	delete(q.pending, index)
	q.mu.Unlock()
	return nil
}

// Clear drops every pending edit, for conversation resets.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = make(map[int]*Pending)
}
