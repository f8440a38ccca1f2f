// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// model.go - Bubble Tea model for the chat view.

package chat

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tetsu-tui/internal/backend"
	"github.com/jeranaias/tetsu-tui/internal/config"
	"github.com/jeranaias/tetsu-tui/internal/diff"
	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/session"
	"github.com/jeranaias/tetsu-tui/internal/store"
	"github.com/jeranaias/tetsu-tui/internal/token"
	"github.com/jeranaias/tetsu-tui/internal/ui/components"
	"github.com/jeranaias/tetsu-tui/internal/ui/styles"
)

// =============================================================================
// MODES
// =============================================================================

// viewMode selects what the main area shows.
type viewMode int

const (
	modeChat viewMode = iota
	modeList          // conversation picker
	modeFork          // fork source picker
	modeDiff          // pending edit review
	modeHelp
)

// =============================================================================
// MODEL
// =============================================================================

// Options wires the chat model to the application services.
type Options struct {
	Theme  *styles.Theme
	Config *config.Config
	Store  *store.Store
	Client *backend.Client
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	theme  *styles.Theme
	cfg    *config.Config
	store  *store.Store
	client *backend.Client
	ctrl   *session.Controller
	budget *token.Budget
	sink   *UISink
	queue  *diff.Queue

	keys     KeyMap
	viewport viewport.Model
	textarea textarea.Model
	spinner  components.Spinner
	renderer *components.MessageRenderer

	mode    viewMode
	list    components.ConversationList
	pending *diff.Pending

	state     session.State
	streaming string // accumulator while a reply streams
	partial   string // retained content after a failed turn
	lastErr   error
	toolNotes   []string
	toolNotePos map[int]int // tool index -> position in toolNotes
	usage     model.TokenUsage
	warning   string

	width  int
	height int
	ready  bool
}

// New creates the chat model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	ta := textarea.New()
	ta.Placeholder = "Message (@file:path attaches a file, / for commands)"
	ta.Prompt = "> "
	ta.SetHeight(3)
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.Focus()

	sink := NewUISink()
	budget := token.NewBudget(opts.Config.Chat.ContextLimit)
	ctrl := session.NewController(opts.Store, session.Adapt(opts.Client), budget, sink)

	m := Model{
		theme:    theme,
		cfg:      opts.Config,
		store:    opts.Store,
		client:   opts.Client,
		ctrl:     ctrl,
		budget:   budget,
		sink:     sink,
		queue:    diff.NewQueue(opts.Client),
		keys:     DefaultKeyMap(),
		textarea: ta,
		spinner:  components.NewSpinner(theme),
		state:    session.StateIdle,
	}
	m.usage = opts.Store.Current().Tokens
	return m
}

// Init starts the sink listener and cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.sink.Wait())
}

// Controller exposes the session controller, for shutdown waits.
func (m Model) Controller() *session.Controller {
	return m.ctrl
}

// streamingActive reports whether a turn is in flight.
func (m *Model) streamingActive() bool {
	switch m.state {
	case session.StateSending, session.StateStreaming, session.StateFinalizing:
		return true
	}
	return false
}

// resetTurnState clears per-turn display state before a new send.
func (m *Model) resetTurnState() {
	m.streaming = ""
	m.partial = ""
	m.lastErr = nil
	m.toolNotes = nil
	m.toolNotePos = nil
	m.warning = ""
}
