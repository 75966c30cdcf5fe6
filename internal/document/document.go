// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoRecordFound is returned when no identifier line precedes the cursor.
	ErrNoRecordFound = errors.New("no CVE record found")
)

// =============================================================================
// DOCUMENT
// =============================================================================

// Bounds is a half-open byte range [Start, End) of a block.
type Bounds struct {
	Start int
	End   int
}

// Block is one identifier line and the lines that follow it up to the next
// identifier line.
type Block struct {
	// ID is the identifier token of the first line
	ID string

	// StartLine is the identifier line; EndLine is exclusive
	StartLine int
	EndLine   int

	// Bounds in bytes
	Bounds
}

// Document is an immutable parse of a text snapshot.
type Document struct {
	text   string
	lines  []string
	starts []int
	ids    []int // line indexes of identifier lines, ascending
}

// Parse splits text into lines and indexes the identifier lines.
func Parse(text string) *Document {
	lines := strings.Split(text, "\n")
	starts := make([]int, len(lines))
	ids := make([]int, 0)

	offset := 0
	for i, line := range lines {
		starts[i] = offset
		offset += len(line) + 1
		if MatchIdentifier(line) != "" {
			ids = append(ids, i)
		}
	}

	return &Document{
		text:   text,
		lines:  lines,
		starts: starts,
		ids:    ids,
	}
}

// Text returns the parsed text.
func (d *Document) Text() string {
	return d.text
}

// Len returns the text length in bytes.
func (d *Document) Len() int {
	return len(d.text)
}

// LineCount returns the number of lines. A trailing newline yields a final
// empty line.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Line returns line i without its newline.
func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.lines) {
		return ""
	}
	return d.lines[i]
}

// LineStart returns the byte offset where line i begins.
func (d *Document) LineStart(i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(d.starts) {
		return len(d.text)
	}
	return d.starts[i]
}

// LineEnd returns the byte offset just past the content of line i (before
// its newline).
func (d *Document) LineEnd(i int) int {
	if i < 0 || i >= len(d.lines) {
		return len(d.text)
	}
	return d.starts[i] + len(d.lines[i])
}

// LineAt returns the index of the line containing offset. Offsets outside the
// text are clamped.
func (d *Document) LineAt(offset int) int {
	offset = d.clamp(offset)
	// Largest i with starts[i] <= offset
	i := sort.Search(len(d.starts), func(i int) bool { return d.starts[i] > offset })
	return i - 1
}

func (d *Document) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(d.text) {
		return len(d.text)
	}
	return offset
}

// IdentifierLines returns the indexes of all identifier lines, ascending.
func (d *Document) IdentifierLines() []int {
	return append([]int(nil), d.ids...)
}

// =============================================================================
// BLOCKS
// =============================================================================

// blockIndex returns the position in d.ids of the identifier line at or
// before line, or -1.
func (d *Document) blockIndex(line int) int {
	i := sort.Search(len(d.ids), func(i int) bool { return d.ids[i] > line })
	return i - 1
}

func (d *Document) block(idx int) Block {
	startLine := d.ids[idx]
	endLine := len(d.lines)
	end := len(d.text)
	if idx+1 < len(d.ids) {
		endLine = d.ids[idx+1]
		end = d.starts[endLine]
	}
	return Block{
		ID:        MatchIdentifier(d.lines[startLine]),
		StartLine: startLine,
		EndLine:   endLine,
		Bounds: Bounds{
			Start: d.starts[startLine],
			End:   end,
		},
	}
}

// BlockAt returns the block containing cursor.
func (d *Document) BlockAt(cursor int) (Block, error) {
	idx := d.blockIndex(d.LineAt(cursor))
	if idx < 0 {
		return Block{}, fmt.Errorf("%w: offset %d is before the first identifier line", ErrNoRecordFound, cursor)
	}
	return d.block(idx), nil
}

// CurrentBlockBounds returns the byte bounds of the block containing cursor.
// Start is the nearest identifier line at or before the cursor; End is the
// start of the next identifier line or the end of the text.
func (d *Document) CurrentBlockBounds(cursor int) (Bounds, error) {
	b, err := d.BlockAt(cursor)
	if err != nil {
		return Bounds{}, err
	}
	return b.Bounds, nil
}

// Blocks returns every block in document order.
func (d *Document) Blocks() []Block {
	blocks := make([]Block, len(d.ids))
	for i := range d.ids {
		blocks[i] = d.block(i)
	}
	return blocks
}

// PreviousBlock returns the block before the one containing cursor.
// The second return is false when there is none.
func (d *Document) PreviousBlock(cursor int) (Block, bool) {
	idx := d.blockIndex(d.LineAt(cursor))
	if idx <= 0 {
		return Block{}, false
	}
	return d.block(idx - 1), true
}

// =============================================================================
// LINE ACCESS
// =============================================================================

// IdentifierAt returns the identifier of the line containing offset.
func (d *Document) IdentifierAt(offset int) (string, bool) {
	id := MatchIdentifier(d.Line(d.LineAt(offset)))
	return id, id != ""
}

// ActionLineAt parses the line containing offset.
func (d *Document) ActionLineAt(offset int) (ActionLine, bool) {
	return d.ActionLineAtLine(d.LineAt(offset))
}

// ActionLineAtLine parses line i.
func (d *Document) ActionLineAtLine(i int) (ActionLine, bool) {
	if i < 0 || i >= len(d.lines) {
		return ActionLine{}, false
	}
	a, ok := ParseLine(d.lines[i])
	if !ok {
		return ActionLine{}, false
	}
	a.Line = i
	return a, true
}

// Actions returns the parsed action lines of block b, in document order.
// The identifier line is always first.
func (d *Document) Actions(b Block) []ActionLine {
	var actions []ActionLine
	for i := b.StartLine; i < b.EndLine; i++ {
		if a, ok := d.ActionLineAtLine(i); ok {
			actions = append(actions, a)
		}
	}
	return actions
}
