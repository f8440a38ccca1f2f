// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversations to shareable files.
//
// Two formats are supported: Markdown with YAML frontmatter for reading,
// and JSON for re-importing or tooling.
//
// # Usage
//
//	path, err := export.ToFile(conv, "markdown", nil)
package export
