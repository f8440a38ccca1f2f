// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"sort"

	"github.com/jeranaias/tetsu-tui/internal/model"
)

// =============================================================================
// FORKING
// =============================================================================

// Fork derives a new conversation from a deep-copied prefix of the source,
// inclusive of uptoIndex (pass -1 for the entire log), registers it, and
// makes it current. The source is never mutated. Returns
// ErrUnknownConversation when id names no live conversation.
func (s *Store) Fork(id string, uptoIndex int) (*model.Conversation, error) {
	src, ok := s.conversations[id]
	if !ok {
		return nil, ErrUnknownConversation
	}

	child := src.ForkAt(uptoIndex)
	s.conversations[child.ID] = child
	s.currentID = child.ID
	s.Save()
	return child, nil
}

// =============================================================================
// LINEAGE
// =============================================================================

// TreeNode is one node of the fork lineage forest.
type TreeNode struct {
	Conversation *model.Conversation
	Children     []*TreeNode
}

// Tree rebuilds the lineage forest by scanning every live conversation's
// parent pointer. A conversation whose parent is missing (deleted, or never
// persisted) is promoted to a root. Roots and siblings are ordered by
// creation time descending.
func (s *Store) Tree() []*TreeNode {
	nodes := make(map[string]*TreeNode, len(s.conversations))
	for id, conv := range s.conversations {
		nodes[id] = &TreeNode{Conversation: conv}
	}

	var roots []*TreeNode
	for id, node := range nodes {
		parent := s.conversations[id].ForkedFrom
		if parent == "" || nodes[parent] == nil {
			roots = append(roots, node)
			continue
		}
		nodes[parent].Children = append(nodes[parent].Children, node)
	}

	var sortLevel func(level []*TreeNode)
	sortLevel = func(level []*TreeNode) {
		sort.Slice(level, func(i, j int) bool {
			return level[i].Conversation.CreatedAt.After(level[j].Conversation.CreatedAt)
		})
		for _, n := range level {
			sortLevel(n.Children)
		}
	}
	sortLevel(roots)
	return roots
}
