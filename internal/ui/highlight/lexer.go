// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"

	"github.com/jeranaias/cvetriage/internal/document"
)

// Lexer tokenizes triage documents.
var Lexer = chroma.MustNewLexer(
	&chroma.Config{
		Name:      "cvetriage",
		Aliases:   []string{"triage"},
		Filenames: []string{"*.triage", "*-triage.txt"},
		MimeTypes: []string{"text/x-cvetriage"},
	},
	rules,
)

func rules() chroma.Rules {
	priority := `(` + strings.Join(document.PriorityNames(), "|") + `)`
	space := `([^\S\n]+)`

	return chroma.Rules{
		"root": {
			{Pattern: document.IdentifierPattern, Type: chroma.NameTag},
			{Pattern: `^[^\S\n]*#.*`, Type: chroma.Comment},
			{Pattern: `\b(add|edit)\b` + space + priority + `\b`, Type: chroma.ByGroups(chroma.Keyword, chroma.TextWhitespace, chroma.NameConstant), Mutator: chroma.Push("packages")},
			{Pattern: `\b(add|edit)\b` + space + `(\S+)`, Type: chroma.ByGroups(chroma.Keyword, chroma.TextWhitespace, chroma.GenericError), Mutator: chroma.Push("packages")},
			{Pattern: `\b(add|edit)\b`, Type: chroma.Keyword},
			{Pattern: `\b(ignore)\b([^\S\n]*)(.*)`, Type: chroma.ByGroups(chroma.Keyword, chroma.TextWhitespace, chroma.LiteralString)},
			{Pattern: `\bunembargo\b`, Type: chroma.Keyword},
			{Pattern: `\bskip\b`, Type: chroma.GenericError},
			{Pattern: `\s+`, Type: chroma.TextWhitespace},
			{Pattern: `\S+`, Type: chroma.Text},
		},
		"packages": {
			{Pattern: `\n`, Type: chroma.TextWhitespace, Mutator: chroma.Pop(1)},
			{Pattern: `[^\S\n]+`, Type: chroma.TextWhitespace},
			{Pattern: `\S+`, Type: chroma.NameOther},
		},
	}
}
