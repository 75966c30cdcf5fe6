// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jeranaias/cvetriage/internal/document"
)

// =============================================================================
// CANDIDATE SET
// =============================================================================

// ContextKind is the completion state of an action line prefix.
type ContextKind int

const (
	// ContextNone offers nothing.
	ContextNone ContextKind = iota

	// ContextAction offers the action keywords.
	ContextAction

	// ContextPriority offers the priorities.
	ContextPriority

	// ContextPackage offers package names.
	ContextPackage
)

// String returns the context name.
func (k ContextKind) String() string {
	switch k {
	case ContextAction:
		return "action"
	case ContextPriority:
		return "priority"
	case ContextPackage:
		return "package"
	default:
		return "none"
	}
}

// CandidateSet is what completion may offer at a cursor.
type CandidateSet struct {
	Kind ContextKind

	// Candidates is the full set for Kind, in offer order
	Candidates []string

	// Partial is the word typed so far at the cursor
	Partial string

	// Start is the offset where Partial begins
	Start int
}

// Empty reports whether nothing is offered.
func (c CandidateSet) Empty() bool {
	return len(c.Candidates) == 0
}

// Matches returns the candidates starting with Partial, in offer order.
func (c CandidateSet) Matches() []string {
	if c.Partial == "" {
		return append([]string(nil), c.Candidates...)
	}
	var out []string
	for _, s := range c.Candidates {
		if strings.HasPrefix(s, c.Partial) {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// RESOLVER
// =============================================================================

// PackageLister supplies package names for the package context.
type PackageLister interface {
	Names(ctx context.Context) ([]string, error)
}

var (
	packageContextRe  = regexp.MustCompile(document.IdentifierPattern + ` (add|edit) \S+ (.*)$`)
	priorityContextRe = regexp.MustCompile(document.IdentifierPattern + ` (add|edit) (\S*)$`)
	actionContextRe   = regexp.MustCompile(document.IdentifierPattern + ` (\S*)$`)
)

// Resolver maps a cursor position to its candidate set.
type Resolver struct {
	Packages PackageLister
}

// NewResolver creates a resolver. packages may be nil, leaving the package
// context empty.
func NewResolver(packages PackageLister) *Resolver {
	return &Resolver{Packages: packages}
}

// ContextAt resolves the candidate set from the text between the start of
// the cursor's line and the cursor.
func (r *Resolver) ContextAt(ctx context.Context, doc *document.Document, cursor int) (CandidateSet, error) {
	if cursor < 0 || cursor > doc.Len() {
		return CandidateSet{}, fmt.Errorf("offset %d out of range [0, %d]", cursor, doc.Len())
	}
	lineStart := doc.LineStart(doc.LineAt(cursor))
	set, err := r.ContextForPrefix(ctx, doc.Text()[lineStart:cursor])
	set.Start += lineStart
	return set, err
}

// ContextForPrefix resolves the candidate set for a line prefix. The cascade
// is ordered and the first match wins: package, then priority, then action.
// Start in the result is relative to the prefix.
func (r *Resolver) ContextForPrefix(ctx context.Context, prefix string) (CandidateSet, error) {
	if m := packageContextRe.FindStringSubmatchIndex(prefix); m != nil {
		rest := prefix[m[4]:m[5]]
		partialStart := strings.LastIndexByte(rest, ' ') + 1
		set := CandidateSet{
			Kind:    ContextPackage,
			Partial: rest[partialStart:],
			Start:   m[4] + partialStart,
		}
		if r.Packages == nil {
			return set, nil
		}
		names, err := r.Packages.Names(ctx)
		if err != nil {
			return set, fmt.Errorf("failed to list packages: %w", err)
		}
		set.Candidates = names
		return set, nil
	}

	if m := priorityContextRe.FindStringSubmatchIndex(prefix); m != nil {
		return CandidateSet{
			Kind:       ContextPriority,
			Candidates: document.PriorityNames(),
			Partial:    prefix[m[4]:m[5]],
			Start:      m[4],
		}, nil
	}

	if m := actionContextRe.FindStringSubmatchIndex(prefix); m != nil {
		return CandidateSet{
			Kind:       ContextAction,
			Candidates: append([]string(nil), document.ActionKeywords...),
			Partial:    prefix[m[2]:m[3]],
			Start:      m[2],
		}, nil
	}

	return CandidateSet{Kind: ContextNone, Start: len(prefix)}, nil
}
