// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"strings"

	"github.com/jeranaias/cvetriage/internal/document"
)

// =============================================================================
// ORDERED SET
// =============================================================================

// frontSet is an ordered set where pushing an existing item moves it to the
// front.
type frontSet struct {
	items []string
}

func (s *frontSet) push(item string) {
	for i, existing := range s.items {
		if existing == item {
			copy(s.items[1:i+1], s.items[:i])
			s.items[0] = item
			return
		}
	}
	s.items = append([]string{item}, s.items...)
}

// reversed returns the items back to front.
func (s *frontSet) reversed() []string {
	out := make([]string, len(s.items))
	for i, item := range s.items {
		out[len(s.items)-1-i] = item
	}
	return out
}

// =============================================================================
// MINER
// =============================================================================

// SuggestedNames returns the free text of the ignore and add lines between
// the cursor and the top of its block, without duplicates. Each source line
// contributes its phrase followed by its words; lines nearer the cursor
// come first. The scan never crosses into the previous block.
func SuggestedNames(doc *document.Document, cursor int) ([]string, error) {
	b, err := doc.BlockAt(cursor)
	if err != nil {
		return nil, err
	}

	var set frontSet
	for i := doc.LineAt(cursor); i >= b.StartLine; i-- {
		a, ok := doc.ActionLineAtLine(i)
		if !ok {
			continue
		}
		phrase := minedText(a)
		if phrase == "" {
			continue
		}
		set.push(phrase)
		for _, word := range strings.Fields(phrase) {
			set.push(word)
		}
	}
	return set.reversed(), nil
}

// minedText returns the unquoted free text of an ignore line or of an add
// line that has a priority.
func minedText(a document.ActionLine) string {
	switch a.Kind {
	case document.ActionIgnore:
	case document.ActionAdd:
		if a.Priority == "" {
			return ""
		}
	default:
		return ""
	}
	return strings.TrimSpace(document.Unquote(strings.TrimSpace(a.FreeText())))
}
