// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"strings"
)

// =============================================================================
// ACTION KIND
// =============================================================================

// ActionKind identifies the shape of an action line.
type ActionKind int

const (
	// ActionNone is a bare identifier line with no action text.
	ActionNone ActionKind = iota

	// ActionAdd classifies the record: add <priority> <packages...>
	ActionAdd

	// ActionEdit is add that still needs editing: edit <priority> <packages...>
	ActionEdit

	// ActionIgnore excludes the record: ignore <reason>
	ActionIgnore

	// ActionSkip defers the record. Representable, but flagged as invalid.
	ActionSkip

	// ActionUnembargo marks the record for publication: unembargo
	ActionUnembargo

	// ActionUnknown is trailing text that follows none of the shapes.
	ActionUnknown
)

// String returns the action keyword, "none" or "unknown".
func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionAdd:
		return KeywordAdd
	case ActionEdit:
		return KeywordEdit
	case ActionIgnore:
		return KeywordIgnore
	case ActionSkip:
		return KeywordSkip
	case ActionUnembargo:
		return KeywordUnembargo
	default:
		return "unknown"
	}
}

// HasPriority reports whether the shape carries a priority and packages.
func (k ActionKind) HasPriority() bool {
	return k == ActionAdd || k == ActionEdit
}

// KindForKeyword maps an action keyword to its kind.
// Returns ActionUnknown for anything else.
func KindForKeyword(keyword string) ActionKind {
	switch keyword {
	case KeywordAdd:
		return ActionAdd
	case KeywordEdit:
		return ActionEdit
	case KeywordIgnore:
		return ActionIgnore
	case KeywordSkip:
		return ActionSkip
	case KeywordUnembargo:
		return ActionUnembargo
	default:
		return ActionUnknown
	}
}

// =============================================================================
// ACTION LINE
// =============================================================================

// ActionLine is the parsed form of one line of a block.
type ActionLine struct {
	// Line is the 0-based line index within the document (-1 when parsed standalone)
	Line int

	// ID is the identifier token; empty on a continuation line
	ID string

	// Kind is the action shape
	Kind ActionKind

	// Keyword is the raw first word of the action text
	Keyword string

	// Priority is set for add and edit; may be empty or invalid
	Priority Priority

	// Packages are the whitespace-separated tokens after the priority
	Packages []string

	// Reason is the free text after ignore, quotes preserved
	Reason string

	// Text is everything after the identifier token and its separator
	Text string

	// KeywordCol and PriorityCol are byte columns within the line (-1 when absent)
	KeywordCol  int
	PriorityCol int
}

// IsIdentifierLine reports whether the line starts a block.
func (a ActionLine) IsIdentifierLine() bool {
	return a.ID != ""
}

// FreeText returns the text mined for suggestions: the reason of an ignore
// line, or the packages of an add line.
func (a ActionLine) FreeText() string {
	switch a.Kind {
	case ActionIgnore:
		return a.Reason
	case ActionAdd:
		return strings.Join(a.Packages, " ")
	default:
		return ""
	}
}

// Format renders the action text (without identifier) in canonical form.
func (a ActionLine) Format() string {
	switch a.Kind {
	case ActionNone:
		return ""
	case ActionAdd, ActionEdit:
		parts := []string{a.Kind.String()}
		if a.Priority != "" {
			parts = append(parts, string(a.Priority))
		}
		parts = append(parts, a.Packages...)
		return strings.Join(parts, " ")
	case ActionIgnore:
		if a.Reason == "" {
			return KeywordIgnore
		}
		return KeywordIgnore + " " + a.Reason
	case ActionSkip, ActionUnembargo:
		return a.Kind.String()
	default:
		return a.Text
	}
}

// =============================================================================
// PARSER
// =============================================================================

// ParseLine parses one line of a document.
//
// An identifier line always parses (a bare identifier is ActionNone). A line
// without identifier parses only when its first word is an action keyword.
func ParseLine(line string) (ActionLine, bool) {
	line = strings.TrimRight(line, "\r")
	result := ActionLine{Line: -1, KeywordCol: -1, PriorityCol: -1}

	id := MatchIdentifier(line)
	var rest string
	var restCol int
	if id != "" {
		result.ID = id
		rest = line[len(id):]
		restCol = len(id)
	} else {
		rest = line
	}

	trimmed := strings.TrimLeft(rest, " \t")
	restCol += len(rest) - len(trimmed)
	trimmed = strings.TrimRight(trimmed, " \t")
	result.Text = trimmed

	if trimmed == "" {
		if id == "" {
			return result, false
		}
		result.Kind = ActionNone
		return result, true
	}

	keyword, remainder, _ := strings.Cut(trimmed, " ")
	kind := KindForKeyword(keyword)
	if id == "" && kind == ActionUnknown {
		return result, false
	}

	result.Kind = kind
	result.Keyword = keyword
	result.KeywordCol = restCol

	switch kind {
	case ActionAdd, ActionEdit:
		fields := strings.Fields(remainder)
		if len(fields) > 0 {
			result.Priority = Priority(fields[0])
			offset := strings.Index(remainder, fields[0])
			result.PriorityCol = restCol + len(keyword) + 1 + offset
			if len(fields) > 1 {
				result.Packages = fields[1:]
			}
		}
	case ActionIgnore:
		result.Reason = strings.TrimLeft(remainder, " \t")
	}

	return result, true
}
