// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package edit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/cvetriage/internal/document"
)

// ErrIncomplete is returned by AddOrEdit when a priority or package list is
// still missing and no Prompter can supply it.
var ErrIncomplete = errors.New("priority and packages are required")

// Prompter asks the user for the fields AddOrEdit cannot recover.
type Prompter interface {
	// Priority asks for one of choices.
	Priority(ctx context.Context, id string, choices []document.Priority) (document.Priority, error)

	// Packages asks for the affected package names.
	Packages(ctx context.Context, id string) ([]string, error)
}

// ReasonRecorder receives ignore reasons as they are written.
type ReasonRecorder interface {
	Add(reason string)
}

// =============================================================================
// TRAILING FIELDS
// =============================================================================

// SetTrailingFields replaces everything after the identifier token of the
// block at cursor with " " + text. Empty text leaves the bare identifier.
func SetTrailingFields(buf *document.Buffer, cursor int, text string) error {
	return buf.Edit(func(doc *document.Document, _ int) (*document.Change, error) {
		return trailingChange(doc, cursor, text)
	})
}

func trailingChange(doc *document.Document, cursor int, text string) (*document.Change, error) {
	b, err := doc.BlockAt(cursor)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	replacement := ""
	if text != "" {
		replacement = " " + text
	}

	start := b.Start + len(b.ID)
	end := doc.LineEnd(b.StartLine)
	if strings.HasSuffix(doc.Line(b.StartLine), "\r") {
		end--
	}
	return &document.Change{Start: start, End: end, Text: replacement}, nil
}

// Modify sets the action text of the block at cursor.
func Modify(buf *document.Buffer, cursor int, action string) error {
	return SetTrailingFields(buf, cursor, action)
}

// =============================================================================
// ADD / EDIT
// =============================================================================

// AddOrEdit writes "kind priority packages..." on the identifier line.
//
// A missing priority or package list is first recovered from an existing add
// or edit line in the block, then requested from p.
func AddOrEdit(ctx context.Context, buf *document.Buffer, cursor int, kind document.ActionKind,
	priority document.Priority, packages []string, p Prompter) error {

	if !kind.HasPriority() {
		return fmt.Errorf("AddOrEdit: unsupported action %s", kind)
	}

	doc := buf.Document()
	b, err := doc.BlockAt(cursor)
	if err != nil {
		return err
	}

	if priority == "" || len(packages) == 0 {
		for _, a := range doc.Actions(b) {
			if !a.Kind.HasPriority() {
				continue
			}
			if priority == "" {
				priority = a.Priority
			}
			if len(packages) == 0 {
				packages = a.Packages
			}
			break
		}
	}

	if priority == "" {
		if p == nil {
			return fmt.Errorf("%w: %s has no priority", ErrIncomplete, b.ID)
		}
		if priority, err = p.Priority(ctx, b.ID, document.Priorities); err != nil {
			return err
		}
		if priority == "" {
			return fmt.Errorf("%w: %s has no priority", ErrIncomplete, b.ID)
		}
	}
	if len(packages) == 0 {
		if p == nil {
			return fmt.Errorf("%w: %s has no packages", ErrIncomplete, b.ID)
		}
		if packages, err = p.Packages(ctx, b.ID); err != nil {
			return err
		}
		if len(packages) == 0 {
			return fmt.Errorf("%w: %s has no packages", ErrIncomplete, b.ID)
		}
	}

	action := document.ActionLine{Kind: kind, Priority: priority, Packages: packages}
	return SetTrailingFields(buf, cursor, action.Format())
}

// SetPriority rewrites the priority token of the add or edit line at cursor.
// It reports false and changes nothing when the line is not add or edit.
func SetPriority(buf *document.Buffer, cursor int, priority document.Priority) bool {
	changed := false
	err := buf.Edit(func(doc *document.Document, _ int) (*document.Change, error) {
		a, ok := doc.ActionLineAt(cursor)
		if !ok || !a.Kind.HasPriority() {
			return nil, nil
		}
		lineStart := doc.LineStart(a.Line)
		changed = true
		if a.PriorityCol < 0 {
			at := lineStart + a.KeywordCol + len(a.Keyword)
			return &document.Change{Start: at, End: at, Text: " " + string(priority)}, nil
		}
		start := lineStart + a.PriorityCol
		return &document.Change{Start: start, End: start + len(a.Priority), Text: string(priority)}, nil
	})
	return err == nil && changed
}

// =============================================================================
// REPEAT / IGNORE
// =============================================================================

// RepeatPrevious copies the action text of the previous block's identifier
// line onto the block at cursor.
func RepeatPrevious(buf *document.Buffer, cursor int) error {
	return buf.Edit(func(doc *document.Document, _ int) (*document.Change, error) {
		if _, err := doc.BlockAt(cursor); err != nil {
			return nil, err
		}
		prev, ok := doc.PreviousBlock(cursor)
		if !ok {
			return nil, ErrNoPreviousRecord
		}
		a, _ := doc.ActionLineAtLine(prev.StartLine)
		return trailingChange(doc, cursor, a.Text)
	})
}

// Ignore writes `ignore "reason"` on the block at cursor and records the
// reason. Quotes around reason are not doubled.
func Ignore(buf *document.Buffer, cursor int, reason string, history ReasonRecorder) error {
	reason = document.Unquote(strings.TrimSpace(reason))
	if reason == "" {
		return fmt.Errorf("ignore reason is empty")
	}
	if err := SetTrailingFields(buf, cursor, document.KeywordIgnore+` "`+reason+`"`); err != nil {
		return err
	}
	if history != nil {
		history.Add(reason)
	}
	return nil
}
