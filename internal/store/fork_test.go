// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"testing"

	"github.com/jeranaias/tetsu-tui/internal/model"
)

func seedConversation(s *Store, n int) *model.Conversation {
	conv := s.Current()
	for i := 0; i < n; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		conv.Append(model.NewMessage(role, "msg"))
	}
	return conv
}

func TestForkWholeLog(t *testing.T) {
	s := New(nil)
	src := seedConversation(s, 4)
	src.Tokens.Add(model.TokenUsage{Prompt: 5, Completion: 5, Total: 10})
	src.Pin("important bit")

	child, err := s.Fork(src.ID, -1)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}

	if s.Current().ID != child.ID {
		t.Error("fork should become current")
	}
	if child.ForkedFrom != src.ID {
		t.Errorf("ForkedFrom = %q, want %q", child.ForkedFrom, src.ID)
	}
	if len(child.Messages) != 4 {
		t.Errorf("child messages = %d, want 4", len(child.Messages))
	}
	if child.Tokens.Total != 10 {
		t.Errorf("child tokens = %+v", child.Tokens)
	}
	if len(child.Pinned) != 0 {
		t.Error("pinned list should reset on fork")
	}
	if child.ID == src.ID {
		t.Error("child must get a fresh id")
	}
}

func TestForkPrefixDeepCopies(t *testing.T) {
	s := New(nil)
	src := seedConversation(s, 4)

	child, err := s.Fork(src.ID, 1)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}

	if len(child.Messages) != 2 {
		t.Fatalf("child messages = %d, want 2", len(child.Messages))
	}
	// Mutating the child must never reach the source.
	child.Messages[0].Content = "mutated"
	if src.Messages[0].Content == "mutated" {
		t.Error("fork shares message memory with source")
	}
	if len(src.Messages) != 4 {
		t.Errorf("source messages = %d, want 4", len(src.Messages))
	}
}

func TestForkUnknownSource(t *testing.T) {
	s := New(nil)
	if _, err := s.Fork("ghost", -1); !errors.Is(err, ErrUnknownConversation) {
		t.Errorf("err = %v, want ErrUnknownConversation", err)
	}
}

func TestTreeForest(t *testing.T) {
	s := New(nil)
	rootA := s.Current()
	seedConversation(s, 2)

	childA1, err := s.Fork(rootA.ID, -1)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	childA2, err := s.Fork(rootA.ID, -1)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	grandchild, err := s.Fork(childA1.ID, -1)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	rootB := s.NewConversation()

	roots := s.Tree()
	if len(roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(roots))
	}
	// Roots ordered creation descending: rootB first.
	if roots[0].Conversation.ID != rootB.ID || roots[1].Conversation.ID != rootA.ID {
		t.Errorf("root order = %s, %s", roots[0].Conversation.ID, roots[1].Conversation.ID)
	}

	kids := roots[1].Children
	if len(kids) != 2 {
		t.Fatalf("rootA children = %d, want 2", len(kids))
	}
	// Siblings ordered creation descending: childA2 before childA1.
	if kids[0].Conversation.ID != childA2.ID || kids[1].Conversation.ID != childA1.ID {
		t.Errorf("sibling order = %s, %s", kids[0].Conversation.ID, kids[1].Conversation.ID)
	}
	if len(kids[1].Children) != 1 || kids[1].Children[0].Conversation.ID != grandchild.ID {
		t.Errorf("grandchild missing under childA1")
	}
}

func TestTreeOrphanPromotedToRoot(t *testing.T) {
	s := New(nil)
	root := s.Current()
	seedConversation(s, 2)
	child, err := s.Fork(root.ID, -1)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}

	// Delete the parent: the child's pointer now dangles.
	if err := s.DeleteConversation(root.ID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}

	roots := s.Tree()
	found := false
	for _, r := range roots {
		if r.Conversation.ID == child.ID {
			found = true
		}
	}
	if !found {
		t.Error("orphaned fork should be promoted to a root")
	}
}
