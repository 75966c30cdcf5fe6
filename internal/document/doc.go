// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document parses triage documents into addressable CVE blocks.
//
// A triage document is plain text. Every block starts with an identifier line
// (CVE-YYYY-NNNN at column zero) and runs until the next identifier line or
// the end of the text. The identifier line may carry an action, and further
// action lines may follow it.
//
// # Key Types
//
//   - Document: immutable parse of a text snapshot
//   - Block: one identifier line plus its following lines
//   - ActionLine: tagged result of parsing one line (add, edit, ignore, skip, unembargo)
//   - Buffer: mutable text with a cursor, safe for concurrent use
//   - Flag: a value that is representable but invalid (skip, untriaged, ...)
//
// # Usage
//
//	doc := document.Parse(text)
//	bounds, err := doc.CurrentBlockBounds(cursor)
//	if errors.Is(err, document.ErrNoRecordFound) {
//	    // cursor is above the first identifier line
//	}
//
//	if line, ok := doc.ActionLineAt(cursor); ok && line.Kind == document.ActionAdd {
//	    fmt.Println(line.Priority, line.Packages)
//	}
package document
