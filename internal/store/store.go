// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/jeranaias/tetsu-tui/internal/kv"
	"github.com/jeranaias/tetsu-tui/internal/log"
	"github.com/jeranaias/tetsu-tui/internal/model"
)

// =============================================================================
// PERSISTENCE KEYS
// =============================================================================

const (
	keyConversations = "conversations"
	keyCurrent       = "current_conversation"
	keyTrash         = "trash"
)

// TrashCap bounds the trash ring; the oldest deletion is dropped when a
// new one would exceed it.
const TrashCap = 20

// SummarizeMinMessages is the minimum conversation length before a manual
// summary is offered.
const SummarizeMinMessages = 4

// ErrUnknownConversation is returned when an operation names an id that is
// neither live nor in the trash.
var ErrUnknownConversation = errors.New("store: unknown conversation")

// =============================================================================
// STORE
// =============================================================================

// Store holds every conversation in memory and mirrors them to a kv.Store
// when one is available. Exactly one conversation is current at a time.
// All methods must be called from the event-loop goroutine.
type Store struct {
	db *kv.Store // nil means memory-only

	conversations map[string]*model.Conversation
	currentID     string
	trash         []*model.Conversation
}

// New creates a store backed by db and restores any persisted state. Pass
// a nil db for memory-only operation. When nothing is restored (first run,
// corrupt state, unreadable db) the store starts with one fresh
// conversation.
func New(db *kv.Store) *Store {
	s := &Store{
		db:            db,
		conversations: make(map[string]*model.Conversation),
	}
	s.load()
	if s.currentID == "" || s.conversations[s.currentID] == nil {
		conv := model.NewConversation()
		s.conversations[conv.ID] = conv
		s.currentID = conv.ID
	}
	return s
}

// Current returns the current conversation. Never nil.
func (s *Store) Current() *model.Conversation {
	return s.conversations[s.currentID]
}

// Get returns the live conversation with the given id, or nil.
func (s *Store) Get(id string) *model.Conversation {
	return s.conversations[id]
}

// Count returns the number of live conversations.
func (s *Store) Count() int {
	return len(s.conversations)
}

// Append appends msg to the current conversation.
func (s *Store) Append(msg *model.Message) {
	s.Current().Append(msg)
}

// NewConversation persists the current conversation if it has messages,
// then creates a fresh one and makes it current.
func (s *Store) NewConversation() *model.Conversation {
	conv := model.NewConversation()
	s.conversations[conv.ID] = conv
	s.currentID = conv.ID
	s.Save()
	return conv
}

// LoadConversation makes the conversation with the given id current.
// An unknown id falls back to a fresh conversation.
func (s *Store) LoadConversation(id string) *model.Conversation {
	if conv, ok := s.conversations[id]; ok {
		s.currentID = id
		s.Save()
		return conv
	}
	log.Debug("store: load of unknown conversation %s, starting fresh", id)
	return s.NewConversation()
}

// DeleteConversation moves the conversation into the trash ring. When the
// current conversation is deleted, the most recently created survivor
// becomes current; with no survivors a fresh conversation is created.
func (s *Store) DeleteConversation(id string) error {
	conv, ok := s.conversations[id]
	if !ok {
		return ErrUnknownConversation
	}
	delete(s.conversations, id)

	s.trash = append(s.trash, conv)
	if len(s.trash) > TrashCap {
		s.trash = s.trash[len(s.trash)-TrashCap:]
	}

	if s.currentID == id {
		if next := s.mostRecentlyCreated(); next != nil {
			s.currentID = next.ID
		} else {
			fresh := model.NewConversation()
			s.conversations[fresh.ID] = fresh
			s.currentID = fresh.ID
		}
	}

	s.Save()
	return nil
}

// Trash returns the trashed conversations, most recent deletion last.
func (s *Store) Trash() []*model.Conversation {
	return s.trash
}

// Restore moves a trashed conversation back into the live map and makes
// it current.
func (s *Store) Restore(id string) error {
	for i, conv := range s.trash {
		if conv.ID == id {
			s.trash = append(s.trash[:i], s.trash[i+1:]...)
			s.conversations[conv.ID] = conv
			s.currentID = conv.ID
			s.Save()
			return nil
		}
	}
	return ErrUnknownConversation
}

// RegenerateTarget pops trailing assistant messages from the current
// conversation and returns the user message to re-issue, or nil when the
// log has no trailing user message. Callers must not invoke this while a
// stream is in flight.
func (s *Store) RegenerateTarget() *model.Message {
	return s.Current().PopTrailingAssistants()
}

// CanSummarize reports whether the current conversation is long enough to
// offer a manual summary.
func (s *Store) CanSummarize() bool {
	return len(s.Current().Messages) >= SummarizeMinMessages
}

// ApplySummary replaces the current conversation's log with the two-entry
// summary form.
func (s *Store) ApplySummary(summary string) {
	s.Current().ReplaceWithSummary(summary)
	s.Save()
}

// Compact collapses all but the keepRecent most recent messages of the
// current conversation into a synthetic system summary.
func (s *Store) Compact(summary string, keepRecent int) {
	s.Current().CompactWithSummary(summary, keepRecent)
	s.Save()
}

// List returns metadata for every live conversation, creation time
// descending.
func (s *Store) List() []model.Meta {
	metas := make([]model.Meta, 0, len(s.conversations))
	for _, conv := range s.conversations {
		metas = append(metas, conv.GetMeta())
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas
}

func (s *Store) mostRecentlyCreated() *model.Conversation {
	var best *model.Conversation
	for _, conv := range s.conversations {
		if best == nil || conv.CreatedAt.After(best.CreatedAt) {
			best = conv
		}
	}
	return best
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Save writes the conversation map, the current pointer, and the trash
// ring to the kv store. Failures are logged and swallowed; the session
// continues in memory.
func (s *Store) Save() {
	if s.db == nil {
		return
	}

	convs, err := json.Marshal(s.conversations)
	if err != nil {
		log.Warn("store: marshal conversations: %v", err)
		return
	}
	trash, err := json.Marshal(s.trash)
	if err != nil {
		log.Warn("store: marshal trash: %v", err)
		return
	}

	if err := s.db.Put(keyConversations, convs); err != nil {
		log.Warn("store: persist conversations: %v", err)
		return
	}
	if err := s.db.Put(keyCurrent, []byte(s.currentID)); err != nil {
		log.Warn("store: persist current pointer: %v", err)
	}
	if err := s.db.Put(keyTrash, trash); err != nil {
		log.Warn("store: persist trash: %v", err)
	}
}

// load restores persisted state. Any failure leaves the store empty; the
// caller starts fresh.
func (s *Store) load() {
	if s.db == nil {
		return
	}

	raw, err := s.db.Get(keyConversations)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Warn("store: read conversations: %v", err)
		}
		return
	}
	var convs map[string]*model.Conversation
	if err := json.Unmarshal(raw, &convs); err != nil {
		log.Warn("store: decode conversations: %v", err)
		return
	}
	for _, conv := range convs {
		conv.SyncTimestamps()
	}
	s.conversations = convs
	if s.conversations == nil {
		s.conversations = make(map[string]*model.Conversation)
	}

	if cur, err := s.db.Get(keyCurrent); err == nil {
		s.currentID = string(cur)
	}

	if raw, err := s.db.Get(keyTrash); err == nil {
		var trash []*model.Conversation
		if err := json.Unmarshal(raw, &trash); err == nil {
			for _, conv := range trash {
				conv.SyncTimestamps()
			}
			s.trash = trash
		} else {
			log.Warn("store: decode trash: %v", err)
		}
	}
}
