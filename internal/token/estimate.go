// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package token

import (
	"unicode/utf8"

	"github.com/jeranaias/tetsu-tui/internal/model"
)

// charsPerToken is the rough ratio of characters to tokens for English
// prose and source code alike. Good enough for budget decisions.
const charsPerToken = 4

// Estimate approximates the token count of text. Pure and deterministic;
// empty input yields 0. Rounds up so short strings never estimate to zero.
func Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}

// EstimateMessages sums Estimate over the content of every message. Nil
// entries are skipped.
func EstimateMessages(msgs []*model.Message) int {
	total := 0
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		total += Estimate(msg.Content)
	}
	return total
}
