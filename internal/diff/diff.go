// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/jeranaias/cvetriage/internal/document"
)

// ContextLines is the number of unchanged lines shown around each change.
const ContextLines = 2

// =============================================================================
// LINES
// =============================================================================

// LineType represents the type of a diff line.
type LineType int

const (
	// LineContext is an unchanged line
	LineContext LineType = iota
	// LineAdded exists only in the new text
	LineAdded
	// LineRemoved exists only in the old text
	LineRemoved
)

// Prefix returns the unified diff prefix of the line type.
func (t LineType) Prefix() string {
	switch t {
	case LineAdded:
		return "+"
	case LineRemoved:
		return "-"
	default:
		return " "
	}
}

// Line is one line of a hunk.
type Line struct {
	Type LineType
	Text string

	// OldLine and NewLine are 1-based; 0 when the line is absent on that side
	OldLine int
	NewLine int

	// Record is the identifier of the record holding the line, in the
	// version the line comes from
	Record string
}

// =============================================================================
// HUNKS
// =============================================================================

// Hunk is a run of changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int

	// Record is the record of the first changed line
	Record string

	Lines []Line
}

// Header returns the "@@ -a,b +c,d @@ RECORD" line.
func (h Hunk) Header() string {
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	if h.Record != "" {
		header += " " + h.Record
	}
	return header
}

// =============================================================================
// DIFF
// =============================================================================

// Diff compares two versions of a triage document.
type Diff struct {
	Path    string
	Hunks   []Hunk
	Added   int
	Removed int
}

// Compute diffs oldText against newText. Hunks are labelled with the record
// they change.
func Compute(path, oldText, newText string) *Diff {
	d := &Diff{Path: path}
	if oldText == newText {
		return d
	}
	a, b := splitLines(oldText), splitLines(newText)
	oldDoc, newDoc := document.Parse(oldText), document.Parse(newText)

	matcher := difflib.NewMatcher(a, b)
	for _, group := range matcher.GetGroupedOpCodes(ContextLines) {
		h := Hunk{}
		for _, op := range group {
			switch op.Tag {
			case 'e':
				for i := op.I1; i < op.I2; i++ {
					h.Lines = append(h.Lines, Line{
						Type:    LineContext,
						Text:    a[i],
						OldLine: i + 1,
						NewLine: op.J1 + (i - op.I1) + 1,
						Record:  recordAt(newDoc, op.J1+(i-op.I1)),
					})
				}
			case 'r', 'd', 'i':
				for i := op.I1; i < op.I2; i++ {
					h.Lines = append(h.Lines, Line{Type: LineRemoved, Text: a[i], OldLine: i + 1, Record: recordAt(oldDoc, i)})
					d.Removed++
				}
				for j := op.J1; j < op.J2; j++ {
					h.Lines = append(h.Lines, Line{Type: LineAdded, Text: b[j], NewLine: j + 1, Record: recordAt(newDoc, j)})
					d.Added++
				}
			}
		}
		if !h.changed() {
			continue
		}

		first, last := group[0], group[len(group)-1]
		h.OldStart, h.OldCount = unifiedRange(first.I1, last.I2)
		h.NewStart, h.NewCount = unifiedRange(first.J1, last.J2)
		for _, l := range h.Lines {
			if l.Type != LineContext {
				h.Record = l.Record
				break
			}
		}
		d.Hunks = append(d.Hunks, h)
	}
	return d
}

func (h Hunk) changed() bool {
	for _, l := range h.Lines {
		if l.Type != LineContext {
			return true
		}
	}
	return false
}

// unifiedRange converts a 0-based half-open range to unified diff form; an
// empty range starts at the line before it.
func unifiedRange(start, end int) (int, int) {
	count := end - start
	if count == 0 {
		return start, 0
	}
	return start + 1, count
}

// splitLines splits text into lines. A final newline does not start a line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// recordAt returns the identifier of the block holding line i, or "".
func recordAt(doc *document.Document, i int) string {
	b, err := doc.BlockAt(doc.LineStart(i))
	if err != nil {
		return ""
	}
	return b.ID
}

// Empty reports whether the texts are identical line for line.
func (d *Diff) Empty() bool {
	return len(d.Hunks) == 0
}

// Records returns the identifiers of the changed records in hunk order,
// without duplicates.
func (d *Diff) Records() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, h := range d.Hunks {
		for _, l := range h.Lines {
			if l.Type == LineContext || l.Record == "" || seen[l.Record] {
				continue
			}
			seen[l.Record] = true
			ids = append(ids, l.Record)
		}
	}
	return ids
}

// =============================================================================
// FORMATTING
// =============================================================================

// Unified returns the diff in unified format, the old text labelled as saved
// and the new text as the buffer.
func (d *Diff) Unified() string {
	if d.Empty() {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s (saved)\n", d.Path)
	fmt.Fprintf(&sb, "+++ %s (buffer)\n", d.Path)
	for _, h := range d.Hunks {
		sb.WriteString(h.Header())
		sb.WriteString("\n")
		for _, l := range h.Lines {
			sb.WriteString(l.Type.Prefix())
			sb.WriteString(l.Text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Summary returns a one-line description such as "+2 -1 in 2 records".
func (d *Diff) Summary() string {
	if d.Empty() {
		return "no changes"
	}
	records := len(d.Records())
	noun := "records"
	if records == 1 {
		noun = "record"
	}
	return fmt.Sprintf("+%d -%d in %d %s", d.Added, d.Removed, records, noun)
}
