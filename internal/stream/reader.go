// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the backend's newline-delimited event protocol.
package stream

import (
	"io"
)

// readBufSize is the transport read size. Chunk boundaries are arbitrary;
// the parser reassembles lines regardless.
const readBufSize = 4096

// =============================================================================
// READER
// =============================================================================

// Reader drives a Parser from an io.Reader (typically an HTTP response
// body) and yields events one at a time.
type Reader struct {
	src     io.Reader
	parser  *Parser
	buf     []byte
	pending []Event
	err     error
	eof     bool
}

// NewReader creates a reader over src.
func NewReader(src io.Reader) *Reader {
	return &Reader{
		src:    src,
		parser: NewParser(),
		buf:    make([]byte, readBufSize),
	}
}

// Next returns the next event. Returns io.EOF after the terminator or when
// the transport closes cleanly. Any other error is the transport's; a
// cancelled request surfaces here as the context error wrapped by net/http.
// Events decoded before a transport failure are delivered before the error.
func (r *Reader) Next() (Event, error) {
	for {
		if len(r.pending) > 0 {
			ev := r.pending[0]
			r.pending = r.pending[1:]
			return ev, nil
		}
		if r.err != nil {
			return Event{}, r.err
		}
		if r.parser.Done() || r.eof {
			return Event{}, io.EOF
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			r.pending = r.parser.Feed(r.buf[:n])
		}
		if err != nil {
			r.eof = true
			if err == io.EOF {
				// A final line without trailing newline still counts.
				r.pending = append(r.pending, r.parser.Flush()...)
			} else {
				r.err = err
			}
		}
	}
}
