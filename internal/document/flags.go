// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"errors"
	"fmt"
)

// Flag categories. Flagged values stay in the document; they are reported,
// never rejected.
var (
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidAction   = errors.New("invalid action")
)

// Flag marks a representable but invalid token.
type Flag struct {
	// Line is the 0-based line index
	Line int

	// Offset is the byte offset of the token in the document
	Offset int

	// Value is the flagged token (may be empty for a missing priority)
	Value string

	// Err is ErrInvalidPriority or ErrInvalidAction
	Err error
}

// Error implements error so a Flag can be reported directly.
func (f Flag) Error() string {
	if f.Value == "" {
		return fmt.Sprintf("line %d: %v: missing", f.Line+1, f.Err)
	}
	return fmt.Sprintf("line %d: %v: %q", f.Line+1, f.Err, f.Value)
}

// Unwrap returns the flag category.
func (f Flag) Unwrap() error {
	return f.Err
}

// End returns the offset just past the flagged token.
func (f Flag) End() int {
	return f.Offset + len(f.Value)
}

// LineFlags returns the flags of one parsed line. lineStart is the offset of
// the line in the document.
func LineFlags(a ActionLine, lineStart int) []Flag {
	var flags []Flag
	switch a.Kind {
	case ActionSkip, ActionUnknown:
		flags = append(flags, Flag{
			Line:   a.Line,
			Offset: lineStart + a.KeywordCol,
			Value:  a.Keyword,
			Err:    ErrInvalidAction,
		})
	case ActionAdd, ActionEdit:
		if a.Priority.Valid() {
			break
		}
		offset := lineStart + a.KeywordCol + len(a.Keyword)
		if a.PriorityCol >= 0 {
			offset = lineStart + a.PriorityCol
		}
		flags = append(flags, Flag{
			Line:   a.Line,
			Offset: offset,
			Value:  string(a.Priority),
			Err:    ErrInvalidPriority,
		})
	}
	return flags
}

// Flags returns every flagged token in the document, in document order.
// Lines above the first identifier line are not checked.
func (d *Document) Flags() []Flag {
	var flags []Flag
	for _, b := range d.Blocks() {
		for _, a := range d.Actions(b) {
			flags = append(flags, LineFlags(a, d.LineStart(a.Line))...)
		}
	}
	return flags
}
