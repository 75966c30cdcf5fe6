// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"
	"strings"

	"github.com/jeranaias/cvetriage/internal/document"
	"github.com/jeranaias/cvetriage/internal/surface"
)

// Names of the built-in in-process functions.
const (
	FuncDocumentSearch = "document-search"
	FuncReasonSearch   = "reason-search"
)

// DocumentSearch returns a function listing the lines of the current
// document containing arg, case-insensitively, as "path:line:text".
func DocumentSearch(path string, current func() *document.Document) Func {
	if path == "" {
		path = "document"
	}
	return func(arg string) (string, error) {
		if strings.TrimSpace(arg) == "" {
			return "", fmt.Errorf("no search terms")
		}
		needle := strings.ToLower(arg)
		doc := current()

		var b strings.Builder
		for i := 0; i < doc.LineCount(); i++ {
			line := doc.Line(i)
			if strings.Contains(strings.ToLower(line), needle) {
				fmt.Fprintf(&b, "%s:%d:%s\n", path, i+1, line)
			}
		}
		return b.String(), nil
	}
}

// ReasonSearch returns a function listing the recorded ignore reasons
// containing arg, newest first.
func ReasonSearch(reasons func() []string) Func {
	return func(arg string) (string, error) {
		needle := strings.ToLower(strings.TrimSpace(arg))
		var b strings.Builder
		for _, r := range reasons() {
			if needle == "" || strings.Contains(strings.ToLower(r), needle) {
				b.WriteString(r)
				b.WriteByte('\n')
			}
		}
		return b.String(), nil
	}
}

// Builtins returns the descriptors of the built-in function tools.
func Builtins() []Descriptor {
	return []Descriptor{
		{
			Name:        "grep-doc",
			Function:    FuncDocumentSearch,
			FoldCase:    true,
			Source:      SourceSuggestions,
			Mode:        surface.ModeGrep,
			Description: "Search the current document",
		},
		{
			Name:        "reasons",
			Function:    FuncReasonSearch,
			Source:      SourceSuggestions,
			Mode:        surface.ModeText,
			Description: "Search recorded ignore reasons",
		},
	}
}
