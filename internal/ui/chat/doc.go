// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view for the tetsu TUI.

The package implements a Bubble Tea model wired to the session
controller. The controller reports progress through a Sink; UISink
bridges those callbacks into Bubble Tea messages over a channel so the
update loop stays single threaded.

# Key Components

## Model (model.go)

The central Bubble Tea model: viewport with the rendered conversation,
the input textarea, spinner, status bar data, and the overlay modes
(conversation list, fork picker, pending-edit review, help).

## Update Loop (update.go)

Keyboard handling per mode, window resizing, and translation of sink
messages into view state. Streaming deltas re-render the transcript
from the full accumulator; the sink rate-limits delta delivery so the
terminal is not redrawn for every token.

## View (view.go)

Layout composition: header, transcript viewport, spinner line, input
box, shortcut hints, and the status bar. Overlays render centered over
the transcript.

## Commands (commands.go)

Slash commands typed into the input (/new, /fork, /summarize, ...)
mirroring the plain-REPL command set.

# Usage

	m := chat.New(chat.Options{
	    Theme:  styles.NewTheme(),
	    Config: cfg,
	    Store:  st,
	    Client: client,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
	    log.Error("tui: %v", err)
	}
*/
package chat
