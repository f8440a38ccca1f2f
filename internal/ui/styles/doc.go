// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the tetsu TUI.
//
// All colors use Lip Gloss AdaptiveColor so they pick the right shade
// for light and dark terminals. The Theme struct bundles the styled
// components; views take a *Theme rather than defining styles of their
// own.
//
// # Key Types
//
//   - Theme: every styled component the views render with
//
// # Usage
//
//	theme := styles.NewTheme()
//	fmt.Println(theme.UserBubble.Render("hello"))
package styles
