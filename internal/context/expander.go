// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/tetsu-tui/internal/log"
)

// =============================================================================
// EXPANDER
// =============================================================================

// FileReader fetches a workspace file's contents. backend.Client
// satisfies it.
type FileReader interface {
	ReadFile(ctx context.Context, path string) (string, error)
}

// Expander resolves @file mentions into attached file contents.
type Expander struct {
	reader FileReader
}

// NewExpander creates an expander that reads files through reader.
func NewExpander(reader FileReader) *Expander {
	return &Expander{reader: reader}
}

// Result is the outcome of expanding one input message.
type Result struct {
	// Original is the input as typed.
	Original string

	// Expanded is what gets sent: the cleaned message followed by an
	// attachment block per resolved file. Equal to Original when no
	// mention resolved.
	Expanded string

	// Clean is the input with resolved mentions replaced by their bare
	// paths, for display.
	Clean string

	// Mentions holds every parsed mention, resolved or failed.
	Mentions []Mention
}

// Failed returns the mentions that could not be fetched.
func (r *Result) Failed() []Mention {
	var failed []Mention
	for _, m := range r.Mentions {
		if m.Err != nil {
			failed = append(failed, m)
		}
	}
	return failed
}

// Expand parses input and fetches every mentioned file. A mention that
// fails to fetch is left in the message text untouched; the failure is
// recorded on the mention and logged, never fatal.
func (e *Expander) Expand(ctx context.Context, input string) Result {
	result := Result{Original: input, Expanded: input, Clean: input}

	mentions := ParseMentions(input)
	if len(mentions) == 0 {
		return result
	}

	for i := range mentions {
		content, err := e.reader.ReadFile(ctx, mentions[i].Path)
		if err != nil {
			mentions[i].Err = err
			log.Debug("context: fetch %s: %v", mentions[i].Path, err)
			continue
		}
		mentions[i].Content = content
	}
	result.Mentions = mentions

	// Rewrite the message back to front so offsets stay valid.
	clean := input
	for i := len(mentions) - 1; i >= 0; i-- {
		m := mentions[i]
		if m.Err != nil {
			continue
		}
		clean = clean[:m.Start] + m.Path + clean[m.End:]
	}
	result.Clean = clean

	var attachments strings.Builder
	for _, m := range mentions {
		if m.Err != nil {
			continue
		}
		fmt.Fprintf(&attachments, "\n\n--- %s ---\n%s", m.Path, m.Content)
	}
	if attachments.Len() == 0 {
		return result
	}
	result.Expanded = clean + attachments.String()
	return result
}
