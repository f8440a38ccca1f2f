// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling for tetsu CLI commands.
//
// Handlers return errors instead of printing and swallowing them; the
// dispatcher in main decides how to display them and what exit code to
// use.

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/tetsu-tui/internal/backend"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitGeneralError indicates a general error.
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments.
	ExitUsageError = 2
	// ExitConfigError indicates a configuration problem.
	ExitConfigError = 3
	// ExitBackendError indicates the backend was unreachable or failed.
	ExitBackendError = 4
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError represents invalid command usage.
type UsageError struct {
	Command string
	Reason  string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: %s: %s", e.Command, e.Reason)
}

// ExitCodeFor maps an error to a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}
	var transport *backend.TransportError
	var upstream *backend.UpstreamError
	if errors.As(err, &transport) || errors.As(err, &upstream) {
		return ExitBackendError
	}
	return ExitGeneralError
}

// PrintError writes a styled error to stderr with a hint for the common
// unreachable-backend case.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)

	var transport *backend.TransportError
	if errors.As(err, &transport) {
		fmt.Fprintln(os.Stderr, InfoStyle.Render(
			"Is the backend running? Check the URL with 'tetsu status' or set TETSU_BACKEND_URL."))
	}
}
