// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"regexp"
)

// =============================================================================
// IDENTIFIER PATTERN
// =============================================================================

// IdentifierPattern matches a CVE identifier at the start of a line.
// Case-sensitive, four-digit year, four-or-more-digit sequence number.
const IdentifierPattern = `^CVE-[0-9]{4}-[0-9]{4,}`

var identifierRe = regexp.MustCompile(IdentifierPattern)

// MatchIdentifier returns the identifier token at the start of line, or "".
func MatchIdentifier(line string) string {
	return identifierRe.FindString(line)
}

// =============================================================================
// PRIORITIES
// =============================================================================

// Priority is a triage severity level.
type Priority string

const (
	PriorityNegligible Priority = "negligible"
	PriorityLow        Priority = "low"
	PriorityMedium     Priority = "medium"
	PriorityHigh       Priority = "high"
	PriorityCritical   Priority = "critical"

	// PriorityUntriaged appears in data but is never offered or accepted as valid.
	PriorityUntriaged Priority = "untriaged"
)

// Priorities lists the valid priorities in enumerated order.
var Priorities = []Priority{
	PriorityNegligible,
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

// PriorityNames returns Priorities as strings, in enumerated order.
func PriorityNames() []string {
	names := make([]string, len(Priorities))
	for i, p := range Priorities {
		names[i] = string(p)
	}
	return names
}

// Valid reports whether p is one of the enumerated priorities.
func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// String returns the priority text.
func (p Priority) String() string {
	return string(p)
}

// =============================================================================
// ACTION KEYWORDS
// =============================================================================

// Action keywords, in the order they are offered for completion.
const (
	KeywordAdd       = "add"
	KeywordEdit      = "edit"
	KeywordIgnore    = "ignore"
	KeywordSkip      = "skip"
	KeywordUnembargo = "unembargo"
)

// ActionKeywords lists the completion action keywords in order.
var ActionKeywords = []string{
	KeywordAdd,
	KeywordEdit,
	KeywordIgnore,
	KeywordSkip,
	KeywordUnembargo,
}

// Unquote strips one pair of matching surrounding quote characters.
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
