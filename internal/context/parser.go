// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import (
	"regexp"
	"strings"
)

// =============================================================================
// MENTIONS
// =============================================================================

// Mention is one parsed @file reference in user input.
type Mention struct {
	// Raw is the original text, e.g. "@file:src/main.go".
	Raw string

	// Path is the workspace-relative file path.
	Path string

	// Start and End are byte offsets of Raw in the input.
	Start int
	End   int

	// Content is populated after fetching.
	Content string

	// Err records a fetch failure; the mention is then left in place.
	Err error
}

// filePattern matches @file:path with an optional quoted form for paths
// containing spaces: @file:"my dir/notes.md".
var filePattern = regexp.MustCompile(`@file:(?:"([^"]+)"|([^\s]+))`)

// ParseMentions extracts every @file mention from input, in order of
// appearance.
func ParseMentions(input string) []Mention {
	matches := filePattern.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return nil
	}

	mentions := make([]Mention, 0, len(matches))
	for _, m := range matches {
		start, end := m[0], m[1]
		var path string
		if m[2] >= 0 {
			path = input[m[2]:m[3]]
		} else {
			// Trailing sentence punctuation is not part of a bare path.
			path = input[m[4]:m[5]]
			trimmed := strings.TrimRight(path, ".,;:!?)")
			end -= len(path) - len(trimmed)
			path = trimmed
		}
		if path == "" {
			continue
		}
		mentions = append(mentions, Mention{
			Raw:   input[start:end],
			Path:  path,
			Start: start,
			End:   end,
		})
	}
	return mentions
}

// HasMentions reports whether input contains at least one mention.
func HasMentions(input string) bool {
	return filePattern.MatchString(input)
}
