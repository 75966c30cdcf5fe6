// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"strings"

	"github.com/jeranaias/cvetriage/internal/document"
	"github.com/jeranaias/cvetriage/internal/suggest"
)

// KeywordCandidates returns the keyword choices the descriptor's source
// offers at cursor, best first. An empty Source offers the mined suggestions.
func KeywordCandidates(desc Descriptor, doc *document.Document, cursor int) ([]string, error) {
	switch desc.Source {
	case SourceIdentifier:
		b, err := doc.BlockAt(cursor)
		if err != nil {
			return nil, err
		}
		return []string{b.ID}, nil

	case SourcePackages:
		b, err := doc.BlockAt(cursor)
		if err != nil {
			return nil, err
		}
		for _, a := range doc.Actions(b) {
			if a.Kind.HasPriority() && len(a.Packages) > 0 {
				return append([]string(nil), a.Packages...), nil
			}
		}
		return nil, nil

	default:
		return suggest.SuggestedNames(doc, cursor)
	}
}

// DefaultKeywords returns the keywords used when a dispatch names none: the
// words of the first candidate, or every package for SourcePackages.
func DefaultKeywords(desc Descriptor, doc *document.Document, cursor int) ([]string, error) {
	candidates, err := KeywordCandidates(desc, doc, cursor)
	if err != nil || len(candidates) == 0 {
		return nil, err
	}
	if desc.Source == SourcePackages {
		return candidates, nil
	}
	return strings.Fields(candidates[0]), nil
}
