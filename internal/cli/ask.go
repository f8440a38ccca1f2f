// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question handler for the tetsu CLI.
//
// Handles "tetsu ask", which sends a single question to the backend and
// streams the reply to stdout.
//
// Examples:
//
//	tetsu ask "What does this error mean?"
//	tetsu ask "Review this:" --file main.go
//	tetsu ask 'summarize @file:internal/store/store.go'
//	echo "why?" | tetsu ask

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jeranaias/tetsu-tui/internal/backend"
	ctxmention "github.com/jeranaias/tetsu-tui/internal/context"
	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/stream"
)

// maxInlineFileSize bounds --file content (50KB).
const maxInlineFileSize = 50 * 1024

// HandleAsk sends a single question and streams the reply.
func HandleAsk(args Args) error {
	query := strings.TrimSpace(args.Query)

	// Piped stdin becomes the question, or extra context under a query.
	if !IsTTY() {
		piped, err := io.ReadAll(io.LimitReader(os.Stdin, maxInlineFileSize))
		if err == nil && len(piped) > 0 {
			if query == "" {
				query = strings.TrimSpace(string(piped))
			} else {
				query = query + "\n\n" + string(piped)
			}
		}
	}

	if query == "" {
		return &UsageError{Command: "ask", Reason: "no question given"}
	}

	cfg := loadConfig(args)
	client := backend.NewClient(BackendConfig(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := client.WaitReady(ctx); err != nil {
		return err
	}

	if args.File != "" {
		content, err := readLocalFile(args.File)
		if err != nil {
			return err
		}
		query = fmt.Sprintf("%s\n\n--- %s ---\n%s", query, args.File, content)
	}

	// Resolve @file: mentions through the backend.
	if ctxmention.HasMentions(query) {
		result := ctxmention.NewExpander(client).Expand(ctx, query)
		for _, m := range result.Failed() {
			fmt.Fprintf(os.Stderr, "%s could not read %s: %v\n",
				WarningStyle.Render("Warning:"), m.Path, m.Err)
		}
		query = result.Expanded
	}

	msgs := []*model.Message{model.NewUserMessage(query)}

	// A TTY gets the reply rendered as markdown once complete; piped
	// output streams raw text as it arrives.
	render := IsStdoutTTY() && !args.Plain && !args.JSON
	reply, err := streamReply(ctx, client, msgs, !render)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[Cancelled]"))
			return nil
		}
		return err
	}

	if render {
		fmt.Print(renderMarkdown(reply, cfg.UI.Theme))
	}
	return nil
}

// streamReply drains a chat stream, optionally echoing deltas as they
// arrive, and returns the full reply.
func streamReply(ctx context.Context, client *backend.Client, msgs []*model.Message, echo bool) (string, error) {
	s, err := client.ChatStream(ctx, msgs)
	if err != nil {
		return "", err
	}
	defer s.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	var acc strings.Builder
	for {
		ev, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return acc.String(), err
		}
		switch ev.Type {
		case stream.EventContent:
			acc.WriteString(ev.Content)
			if echo {
				out.WriteString(ev.Content)
				out.Flush()
			}
		case stream.EventToolCall:
			fmt.Fprintf(os.Stderr, "%s %s\n", InfoStyle.Render("[tool]"), ev.Name)
		case stream.EventError:
			return acc.String(), fmt.Errorf("backend: %s", ev.Content)
		case stream.EventDone:
			if echo {
				out.WriteString("\n")
			}
			return acc.String(), nil
		}
	}
	if echo {
		out.WriteString("\n")
	}
	return acc.String(), nil
}

// readLocalFile reads a file for --file inclusion, bounded by
// maxInlineFileSize.
func readLocalFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxInlineFileSize {
		return "", fmt.Errorf("file %s is too large to include (%d bytes, limit %d)",
			path, info.Size(), maxInlineFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
