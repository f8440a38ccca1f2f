// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	// Rendering through a style must preserve the content.
	for name, render := range map[string]string{
		"user":      theme.UserBubble.Render("hello"),
		"assistant": theme.AssistantBubble.Render("hello"),
		"system":    theme.SystemBubble.Render("hello"),
		"status":    theme.StatusBar.Render("hello"),
	} {
		if !containsText(render, "hello") {
			t.Errorf("%s style dropped content: %q", name, render)
		}
	}
}

func containsText(rendered, text string) bool {
	// ANSI sequences may interleave, but the plain text survives for
	// the simple styles used here.
	found := 0
	for _, r := range rendered {
		if found < len(text) && byte(r) == text[found] {
			found++
		}
	}
	return found == len(text)
}

func TestAdaptiveColorsDefined(t *testing.T) {
	colors := map[string]struct{ Light, Dark string }{
		"Purple":      {Purple.Light, Purple.Dark},
		"Cyan":        {Cyan.Light, Cyan.Dark},
		"Emerald":     {Emerald.Light, Emerald.Dark},
		"Rose":        {Rose.Light, Rose.Dark},
		"Amber":       {Amber.Light, Amber.Dark},
		"TextPrimary": {TextPrimary.Light, TextPrimary.Dark},
	}
	for name, c := range colors {
		if c.Light == "" || c.Dark == "" {
			t.Errorf("%s is missing a variant: light=%q dark=%q", name, c.Light, c.Dark)
		}
	}
}
