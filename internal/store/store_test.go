// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jeranaias/tetsu-tui/internal/kv"
	"github.com/jeranaias/tetsu-tui/internal/model"
)

func openTestKV(t *testing.T, path string) *kv.Store {
	t.Helper()
	db, err := kv.Open(path)
	if err != nil {
		t.Fatalf("kv.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewStartsWithFreshConversation(t *testing.T) {
	s := New(nil)

	conv := s.Current()
	if conv == nil {
		t.Fatal("Current returned nil")
	}
	if len(conv.Messages) != 0 {
		t.Errorf("fresh conversation has %d messages", len(conv.Messages))
	}
	if conv.ForkedFrom != "" {
		t.Errorf("fresh conversation has parent %q", conv.ForkedFrom)
	}
}

func TestAppendSetsTitleFromFirstUserMessage(t *testing.T) {
	s := New(nil)

	s.Append(model.NewUserMessage("hello"))

	if got := s.Current().GetTitle(); got != "hello" {
		t.Errorf("title = %q, want %q", got, "hello")
	}
	if n := len(s.Current().Messages); n != 1 {
		t.Errorf("message count = %d, want 1", n)
	}
}

func TestNewConversationKeepsOldOne(t *testing.T) {
	s := New(nil)
	s.Append(model.NewUserMessage("first chat"))
	oldID := s.Current().ID

	fresh := s.NewConversation()

	if s.Current().ID != fresh.ID {
		t.Error("new conversation should be current")
	}
	if s.Get(oldID) == nil {
		t.Error("previous conversation should remain in the store")
	}
	if s.Count() != 2 {
		t.Errorf("Count = %d, want 2", s.Count())
	}
}

func TestLoadConversation(t *testing.T) {
	s := New(nil)
	s.Append(model.NewUserMessage("original"))
	origID := s.Current().ID
	s.NewConversation()

	conv := s.LoadConversation(origID)
	if conv.ID != origID || s.Current().ID != origID {
		t.Error("LoadConversation did not switch current")
	}
}

func TestLoadUnknownFallsBackToFresh(t *testing.T) {
	s := New(nil)
	before := s.Count()

	conv := s.LoadConversation("no-such-id")

	if conv == nil || len(conv.Messages) != 0 {
		t.Errorf("fallback conversation = %+v", conv)
	}
	if s.Count() != before+1 {
		t.Errorf("Count = %d, want %d", s.Count(), before+1)
	}
}

func TestDeleteSwitchesToMostRecentlyCreated(t *testing.T) {
	s := New(nil)
	first := s.Current().ID
	second := s.NewConversation().ID
	third := s.NewConversation().ID

	// Deleting the current (third) conversation promotes the second,
	// which is the most recently created survivor.
	if err := s.DeleteConversation(third); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if s.Current().ID != second {
		t.Errorf("current = %s, want %s", s.Current().ID, second)
	}
	if s.Get(first) == nil {
		t.Error("first conversation should survive")
	}
}

func TestDeleteLastCreatesFresh(t *testing.T) {
	s := New(nil)
	only := s.Current().ID
	s.Append(model.NewUserMessage("soon gone"))

	if err := s.DeleteConversation(only); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}

	if s.Current().ID == only {
		t.Error("deleted conversation is still current")
	}
	if len(s.Current().Messages) != 0 {
		t.Error("replacement conversation should be empty")
	}
}

func TestDeleteUnknown(t *testing.T) {
	s := New(nil)
	if err := s.DeleteConversation("nope"); !errors.Is(err, ErrUnknownConversation) {
		t.Errorf("err = %v, want ErrUnknownConversation", err)
	}
}

func TestTrashRestores(t *testing.T) {
	s := New(nil)
	s.Append(model.NewUserMessage("keep me"))
	id := s.Current().ID
	s.NewConversation()

	if err := s.DeleteConversation(id); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if len(s.Trash()) != 1 {
		t.Fatalf("trash size = %d, want 1", len(s.Trash()))
	}

	if err := s.Restore(id); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if s.Current().ID != id {
		t.Error("restored conversation should be current")
	}
	if len(s.Trash()) != 0 {
		t.Error("trash should be empty after restore")
	}
	if got := s.Current().Messages[0].Content; got != "keep me" {
		t.Errorf("restored content = %q", got)
	}
}

func TestTrashRingBounded(t *testing.T) {
	s := New(nil)
	var ids []string
	for i := 0; i < TrashCap+5; i++ {
		conv := s.NewConversation()
		conv.Append(model.NewUserMessage(fmt.Sprintf("chat %d", i)))
		ids = append(ids, conv.ID)
	}
	for _, id := range ids {
		if err := s.DeleteConversation(id); err != nil {
			t.Fatalf("DeleteConversation(%s): %v", id, err)
		}
	}

	if len(s.Trash()) != TrashCap {
		t.Errorf("trash size = %d, want %d", len(s.Trash()), TrashCap)
	}
	// Oldest deletions were dropped; the survivors are the most recent.
	first := s.Trash()[0]
	if first.ID != ids[5] {
		t.Errorf("oldest surviving trash entry = %s, want %s", first.ID, ids[5])
	}
}

func TestRegenerateTarget(t *testing.T) {
	s := New(nil)
	s.Append(model.NewUserMessage("question"))
	s.Append(model.NewAssistantMessage("answer one"))
	s.Append(model.NewAssistantMessage("answer two"))

	target := s.RegenerateTarget()
	if target == nil || target.Content != "question" {
		t.Fatalf("target = %+v", target)
	}
	// Consecutive trailing assistants are all popped; the user message stays.
	if n := len(s.Current().Messages); n != 1 {
		t.Errorf("message count = %d, want 1", n)
	}
}

func TestRegenerateTargetEmptyLog(t *testing.T) {
	s := New(nil)
	if target := s.RegenerateTarget(); target != nil {
		t.Errorf("target = %+v, want nil", target)
	}
}

func TestCanSummarize(t *testing.T) {
	s := New(nil)
	for i := 0; i < 3; i++ {
		s.Append(model.NewUserMessage("m"))
	}
	if s.CanSummarize() {
		t.Error("3 messages should not be summarizable")
	}
	s.Append(model.NewAssistantMessage("m"))
	if !s.CanSummarize() {
		t.Error("4 messages should be summarizable")
	}
}

func TestApplySummary(t *testing.T) {
	s := New(nil)
	for i := 0; i < 4; i++ {
		s.Append(model.NewUserMessage("m"))
	}

	s.ApplySummary("we discussed things")

	msgs := s.Current().Messages
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2", len(msgs))
	}
	if msgs[0].Role != model.RoleSystem || msgs[0].Content != "we discussed things" {
		t.Errorf("system message = %+v", msgs[0])
	}
	if msgs[1].Role != model.RoleAssistant {
		t.Errorf("presentation role = %s", msgs[1].Role)
	}
}

func TestCompactKeepsRecent(t *testing.T) {
	s := New(nil)
	for i := 0; i < 8; i++ {
		s.Append(model.NewUserMessage(fmt.Sprintf("msg %d", i)))
	}

	s.Compact("earlier chatter", 4)

	msgs := s.Current().Messages
	if len(msgs) != 5 {
		t.Fatalf("message count = %d, want 5", len(msgs))
	}
	if msgs[0].Role != model.RoleSystem {
		t.Errorf("first message role = %s, want system", msgs[0].Role)
	}
	if msgs[1].Content != "msg 4" || msgs[4].Content != "msg 7" {
		t.Errorf("recent window = %q .. %q", msgs[1].Content, msgs[4].Content)
	}
}

func TestListOrderedByCreationDesc(t *testing.T) {
	s := New(nil)
	s.NewConversation()
	s.NewConversation()

	metas := s.List()
	if len(metas) != 3 {
		t.Fatalf("List len = %d, want 3", len(metas))
	}
	for i := 1; i < len(metas); i++ {
		if metas[i].CreatedAt.After(metas[i-1].CreatedAt) {
			t.Errorf("List not ordered by creation descending at %d", i)
		}
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tetsu.db")

	db := openTestKV(t, path)
	s := New(db)
	s.Append(model.NewUserMessage("persisted question"))
	s.Append(model.NewAssistantMessage("persisted answer"))
	s.Current().Tokens.Add(model.TokenUsage{Prompt: 10, Completion: 20, Total: 30})
	id := s.Current().ID
	s.Save()
	db.Close()

	db2 := openTestKV(t, path)
	s2 := New(db2)

	if s2.Current().ID != id {
		t.Fatalf("current = %s, want %s", s2.Current().ID, id)
	}
	msgs := s2.Current().Messages
	if len(msgs) != 2 || msgs[0].Content != "persisted question" {
		t.Errorf("messages = %+v", msgs)
	}
	if s2.Current().Tokens.Total != 30 {
		t.Errorf("tokens = %+v", s2.Current().Tokens)
	}
	if s2.Current().CreatedAt.IsZero() {
		t.Error("timestamps not rebuilt on load")
	}
}

func TestPersistenceTrashRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tetsu.db")

	db := openTestKV(t, path)
	s := New(db)
	s.Append(model.NewUserMessage("doomed"))
	id := s.Current().ID
	s.NewConversation()
	if err := s.DeleteConversation(id); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	db.Close()

	db2 := openTestKV(t, path)
	s2 := New(db2)

	if len(s2.Trash()) != 1 || s2.Trash()[0].ID != id {
		t.Fatalf("trash = %+v", s2.Trash())
	}
	if err := s2.Restore(id); err != nil {
		t.Errorf("Restore after reload: %v", err)
	}
}

func TestNilDBIsMemoryOnly(t *testing.T) {
	s := New(nil)
	s.Append(model.NewUserMessage("ephemeral"))
	s.Save() // must be a no-op, not a panic
}
