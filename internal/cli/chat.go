// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Plain-terminal interactive chat for the tetsu CLI.
//
// Handles "tetsu chat", a readline-style REPL wired to the session
// controller. The TUI offers the same operations with a richer surface;
// this mode works over ssh and in terminals where the TUI cannot run.
//
// Slash commands:
//
//	/help                 Show commands
//	/new                  Start a new conversation
//	/list                 List conversations
//	/switch ID            Switch to a conversation
//	/fork [N]             Fork the current conversation (first N messages)
//	/tree                 Show the conversation fork tree
//	/delete [ID]          Move a conversation to trash
//	/restore ID           Restore a conversation from trash
//	/summarize            Compact the conversation into a summary
//	/regen                Regenerate the last assistant reply
//	/model [NAME]         Show or switch the model
//	/status               Show session status
//	/export [FORMAT]      Export the conversation (markdown, json)
//	/quit                 Exit

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/tetsu-tui/internal/backend"
	"github.com/jeranaias/tetsu-tui/internal/config"
	ctxmention "github.com/jeranaias/tetsu-tui/internal/context"
	"github.com/jeranaias/tetsu-tui/internal/export"
	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/session"
	"github.com/jeranaias/tetsu-tui/internal/store"
	"github.com/jeranaias/tetsu-tui/internal/token"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history loaded from the config
// directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with history navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// TERMINAL SINK
// =============================================================================

// termSink prints controller notifications to the terminal. Deltas are
// append-only for plain text, so each notification prints only the
// suffix past what was already written.
type termSink struct {
	session.NopSink

	mu      sync.Mutex
	printed int
	usage   model.TokenUsage
}

func (s *termSink) AssistantDelta(acc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(acc) > s.printed {
		fmt.Print(acc[s.printed:])
		s.printed = len(acc)
	}
}

func (s *termSink) ToolStarted(index int, name, args string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Printf("\n%s %s\n", InfoStyle.Render("[tool]"), name)
}

func (s *termSink) UsageUpdated(usage model.TokenUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = usage
}

func (s *termSink) BudgetWarning(level token.Level, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Println(WarningStyle.Render(
		fmt.Sprintf("[context %d%% full, consider /summarize]", percent)))
}

func (s *termSink) Finished(msg *model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.printed > 0 {
		fmt.Println()
	}
	s.printed = 0
}

func (s *termSink) Failed(err error, partial string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.printed > 0 {
		fmt.Println()
	}
	s.printed = 0
	fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
}

func (s *termSink) Cancelled(partial string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.printed > 0 {
		fmt.Println()
	}
	s.printed = 0
	fmt.Println(WarningStyle.Render("[Cancelled]"))
}

// =============================================================================
// SESSION STATE
// =============================================================================

// chatEnv bundles everything the REPL and its slash commands touch.
type chatEnv struct {
	cfg    *config.Config
	client *backend.Client
	store  *store.Store
	ctrl   *session.Controller
	sink   *termSink

	startTime time.Time
}

// newController builds a controller for the current client settings.
func (e *chatEnv) newController() {
	budget := token.NewBudget(e.cfg.Chat.ContextLimit)
	e.ctrl = session.NewController(e.store, session.Adapt(e.client), budget, e.sink)
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the interactive chat REPL.
func HandleChat(args Args) error {
	if !IsTTY() {
		return &UsageError{Command: "chat", Reason: "interactive chat requires a terminal (use 'tetsu ask' for piped input)"}
	}

	cfg := loadConfig(args)
	client := backend.NewClient(BackendConfig(cfg))

	waitCtx, cancelWait := context.WithCancel(context.Background())
	defer cancelWait()
	if err := client.WaitReady(waitCtx); err != nil {
		return err
	}

	env := &chatEnv{
		cfg:       cfg,
		client:    client,
		store:     OpenStore(cfg),
		sink:      &termSink{},
		startTime: time.Now(),
	}
	env.newController()
	defer env.ctrl.Wait()

	input := NewChatCLI()
	defer input.Close()

	if !args.Quiet {
		fmt.Println(TitleStyle.Render("tetsu chat"))
		fmt.Println(InfoStyle.Render(fmt.Sprintf("model %s via %s", cfg.Chat.Model, cfg.Backend.URL)))
		fmt.Println(InfoStyle.Render("type /help for commands, Ctrl+C cancels a running reply"))
		fmt.Println()
	}

	// First Ctrl+C during a reply cancels the stream. At the prompt,
	// liner reports ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			env.ctrl.Cancel()
		}
	}()

	for {
		text, err := input.ReadInput(PromptStyle.Render("tetsu> "))
		if err != nil {
			// Ctrl+C at the prompt or EOF (Ctrl+D) exits.
			fmt.Println()
			printExitSummary(env)
			return nil
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			keepGoing, err := handleSlashCommand(text, env)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				printExitSummary(env)
				return nil
			}
			continue
		}

		if strings.EqualFold(text, "exit") || strings.EqualFold(text, "quit") {
			printExitSummary(env)
			return nil
		}

		sendMessage(env, text)
	}
}

// sendMessage expands mentions and runs one turn, printing as it
// streams.
func sendMessage(env *chatEnv, text string) {
	ctx := context.Background()

	if ctxmention.HasMentions(text) {
		result := ctxmention.NewExpander(env.client).Expand(ctx, text)
		for _, m := range result.Failed() {
			fmt.Fprintf(os.Stderr, "%s could not read %s: %v\n",
				WarningStyle.Render("Warning:"), m.Path, m.Err)
		}
		text = result.Expanded
	}

	if err := env.ctrl.Send(ctx, text); err != nil {
		if errors.Is(err, session.ErrBusy) {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("[A reply is still streaming]"))
			return
		}
		// Stream failures were already reported through the sink.
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const chatHelpText = `Commands:
  /help             Show this help
  /new              Start a new conversation
  /list             List conversations
  /switch ID        Switch to a conversation
  /fork [N]         Fork current conversation, keeping the first N messages
  /tree             Show the conversation fork tree
  /delete [ID]      Move a conversation to trash
  /restore ID       Restore a conversation from trash
  /summarize        Compact the conversation into a summary
  /regen            Regenerate the last assistant reply
  /model [NAME]     Show or switch the model
  /status           Show session status
  /export [FORMAT]  Export conversation (markdown, json)
  /quit             Exit

Reference files inline with @file:path; tetsu attaches their contents.`

// handleSlashCommand executes a slash command. Returns false when the
// REPL should exit.
func handleSlashCommand(input string, env *chatEnv) (bool, error) {
	fields := strings.Fields(input)
	cmd := fields[0]
	rest := fields[1:]
	ctx := context.Background()

	// Conversation mutation waits for the in-flight turn.
	switch cmd {
	case "/new", "/clear", "/switch", "/fork", "/delete", "/rm", "/restore":
		if env.ctrl.Streaming() {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("[A reply is still streaming, cancel it first]"))
			return true, nil
		}
	}

	switch cmd {
	case "/help", "/h":
		fmt.Println(chatHelpText)

	case "/quit", "/q", "/exit":
		return false, nil

	case "/new", "/clear":
		conv := env.store.NewConversation()
		env.store.Save()
		fmt.Println(InfoStyle.Render("started conversation " + conv.ID))

	case "/list", "/ls":
		printConversationList(env.store)

	case "/switch":
		if len(rest) == 0 {
			return true, &UsageError{Command: "/switch", Reason: "conversation ID required"}
		}
		conv := env.store.LoadConversation(rest[0])
		env.store.Save()
		fmt.Println(InfoStyle.Render(fmt.Sprintf("switched to %s (%d messages)", conv.ID, len(conv.Messages))))

	case "/fork":
		upto := -1
		if len(rest) > 0 {
			n, err := strconv.Atoi(rest[0])
			if err != nil || n < 0 {
				return true, &UsageError{Command: "/fork", Reason: "N must be a non-negative message count"}
			}
			upto = n
		}
		current := env.store.Current()
		child, err := env.store.Fork(current.ID, upto)
		if err != nil {
			return true, err
		}
		env.store.Save()
		fmt.Println(InfoStyle.Render(fmt.Sprintf("forked into %s (%d messages)", child.ID, len(child.Messages))))

	case "/tree":
		printTree(env.store.Tree(), 0)

	case "/delete", "/rm":
		id := env.store.Current().ID
		if len(rest) > 0 {
			id = rest[0]
		}
		if err := env.store.DeleteConversation(id); err != nil {
			return true, err
		}
		env.store.Save()
		fmt.Println(InfoStyle.Render("moved " + id + " to trash (/restore " + id + " to undo)"))

	case "/restore":
		if len(rest) == 0 {
			return true, &UsageError{Command: "/restore", Reason: "conversation ID required"}
		}
		if err := env.store.Restore(rest[0]); err != nil {
			return true, err
		}
		env.store.Save()
		fmt.Println(InfoStyle.Render("restored " + rest[0]))

	case "/summarize":
		fmt.Println(InfoStyle.Render("summarizing..."))
		if err := env.ctrl.Summarize(ctx); err != nil {
			return true, err
		}
		fmt.Println(SuccessStyle.Render("conversation compacted"))

	case "/regen":
		if err := env.ctrl.Regenerate(ctx); err != nil {
			return true, err
		}

	case "/model":
		if len(rest) == 0 {
			fmt.Println(InfoStyle.Render("model: " + env.cfg.Chat.Model))
			break
		}
		env.cfg.Chat.Model = rest[0]
		env.client = backend.NewClient(BackendConfig(env.cfg))
		env.newController()
		fmt.Println(InfoStyle.Render("model set to " + rest[0]))

	case "/status":
		printChatStatus(env)

	case "/export":
		format := "markdown"
		if len(rest) > 0 {
			format = rest[0]
		}
		path, err := export.ToFile(env.store.Current(), format, export.DefaultOptions())
		if err != nil {
			return true, err
		}
		fmt.Println(SuccessStyle.Render("exported to " + path))

	default:
		return true, fmt.Errorf("unknown command %s (try /help)", cmd)
	}

	return true, nil
}

// =============================================================================
// DISPLAY HELPERS
// =============================================================================

func printConversationList(st *store.Store) {
	current := st.Current().ID
	for _, meta := range st.List() {
		marker := "  "
		if meta.ID == current {
			marker = SuccessStyle.Render("* ")
		}
		title := meta.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s%s  %s %s\n",
			marker,
			DimStyle.Render(meta.ID),
			ValueStyle.Render(title),
			DimStyle.Render(fmt.Sprintf("(%d messages)", meta.MessageCount)))
	}
}

func printTree(nodes []*store.TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		title := node.Conversation.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s%s %s\n", indent, DimStyle.Render(node.Conversation.ID), ValueStyle.Render(title))
		printTree(node.Children, depth+1)
	}
}

func printChatStatus(env *chatEnv) {
	conv := env.store.Current()
	budget := token.NewBudget(env.cfg.Chat.ContextLimit)

	fmt.Println(LabelStyle.Render("Model") + ValueStyle.Render(env.cfg.Chat.Model))
	fmt.Println(LabelStyle.Render("Backend") + ValueStyle.Render(env.cfg.Backend.URL))
	fmt.Println(LabelStyle.Render("Conversation") + ValueStyle.Render(conv.ID))
	fmt.Println(LabelStyle.Render("Messages") + ValueStyle.Render(strconv.Itoa(len(conv.Messages))))
	fmt.Println(LabelStyle.Render("Tokens") + ValueStyle.Render(formatTokens(conv.Tokens.Total)))

	pct := budget.PercentUsed(conv)
	line := fmt.Sprintf("%d%% of %s", pct, formatTokens(env.cfg.Chat.ContextLimit))
	switch budget.Level(conv) {
	case token.LevelHard:
		line = ErrorStyle.Render(line + " (over hard threshold)")
	case token.LevelSoft:
		line = WarningStyle.Render(line + " (approaching limit)")
	default:
		line = ValueStyle.Render(line)
	}
	fmt.Println(LabelStyle.Render("Context") + line)
	fmt.Println(LabelStyle.Render("Uptime") + ValueStyle.Render(formatDuration(time.Since(env.startTime))))
}

func printExitSummary(env *chatEnv) {
	env.store.Save()
	if env.sink.usage.Total == 0 {
		return
	}
	fmt.Println(InfoStyle.Render(fmt.Sprintf("session: %s tokens over %s",
		formatTokens(env.sink.usage.Total), formatDuration(time.Since(env.startTime)))))
}
