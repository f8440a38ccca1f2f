// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the backend's newline-delimited event protocol.
package stream

import (
	"bytes"
	"encoding/json"

	"github.com/jeranaias/tetsu-tui/internal/log"
)

// =============================================================================
// PROTOCOL CONSTANTS
// =============================================================================

// Marker is the fixed prefix carrying an event payload.
const Marker = "data: "

// Terminator is the literal payload that ends the stream.
const Terminator = "[DONE]"

// =============================================================================
// PUSH PARSER
// =============================================================================

// Parser decodes raw transport chunks into protocol events.
//
// Feed may be called with arbitrarily chopped chunks; a trailing partial
// line is buffered until the next chunk completes it. Buffered state is
// bounded by the length of one line. After the terminator has been seen the
// parser is done and ignores further input.
type Parser struct {
	partial []byte
	done    bool
}

// NewParser creates a parser in the streaming state.
func NewParser() *Parser {
	return &Parser{}
}

// Done reports whether the terminator has been seen.
func (p *Parser) Done() bool {
	return p.done
}

// Feed consumes one raw chunk and returns the events completed by it.
// Never emits for a partial trailing line.
func (p *Parser) Feed(chunk []byte) []Event {
	if p.done || len(chunk) == 0 {
		return nil
	}

	data := chunk
	if len(p.partial) > 0 {
		data = append(p.partial, chunk...)
		p.partial = nil
	}

	var events []Event
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := data[:idx]
		data = data[idx+1:]

		ev, ok := p.parseLine(line)
		if !ok {
			continue
		}
		events = append(events, ev)
		if p.done {
			return events
		}
	}

	if len(data) > 0 {
		p.partial = append([]byte(nil), data...)
	}
	return events
}

// Flush decodes any buffered final line. Call once when the transport
// closes without a trailing newline.
func (p *Parser) Flush() []Event {
	if p.done || len(p.partial) == 0 {
		return nil
	}
	line := p.partial
	p.partial = nil
	if ev, ok := p.parseLine(line); ok {
		return []Event{ev}
	}
	return nil
}

// parseLine decodes a single complete line into an event.
// Returns ok=false for lines that carry no event: blank lines, lines
// without the marker, and malformed payloads. Skipping is deliberate
// protocol tolerance, not an error.
func (p *Parser) parseLine(line []byte) (Event, bool) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 || !bytes.HasPrefix(line, []byte(Marker)) {
		return Event{}, false
	}
	payload := line[len(Marker):]

	if bytes.Equal(bytes.TrimSpace(payload), []byte(Terminator)) {
		p.done = true
		return Event{Type: EventDone}, true
	}

	var wire struct {
		Type    string `json:"type"`
		Content string `json:"content"`
		Name    string `json:"name"`
		Args    string `json:"args"`
		Result  string `json:"result"`
		Usage   Usage  `json:"usage"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		log.Debug("stream: skipping malformed line: %v", err)
		return Event{}, false
	}

	switch EventType(wire.Type) {
	case EventContent:
		return Event{Type: EventContent, Content: wire.Content}, true
	case EventToolCall:
		return Event{Type: EventToolCall, Name: wire.Name, Args: wire.Args}, true
	case EventToolResult:
		return Event{Type: EventToolResult, Name: wire.Name, Result: wire.Result}, true
	case EventUsage:
		return Event{Type: EventUsage, Usage: wire.Usage}, true
	case EventError:
		return Event{Type: EventError, Content: wire.Content}, true
	case EventDone:
		return Event{Type: EventDone}, true
	default:
		// Unknown kinds are skipped the same way malformed lines are.
		log.Debug("stream: skipping unknown event type %q", wire.Type)
		return Event{}, false
	}
}
