// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package highlight renders triage documents for the terminal.
//
// A chroma lexer tokenizes the document: identifiers, action keywords,
// priorities, packages and ignore reasons each get their own token type, and
// skip or invalid priorities are error tokens. Rendering then either maps
// token types onto the lipgloss theme, overlaying the document's validation
// flags, or hands the tokens to a chroma terminal formatter with a named
// chroma style.
//
// # Usage
//
//	h := highlight.New(theme, cfg.UI.Style)
//	fmt.Print(h.Render(doc))
package highlight
