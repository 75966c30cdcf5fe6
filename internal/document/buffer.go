// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"fmt"
	"os"
	"sync"

	"github.com/jeranaias/cvetriage/internal/util"
)

// =============================================================================
// BUFFER
// =============================================================================

// Change is a single replacement of the byte range [Start, End) with Text.
type Change struct {
	Start int
	End   int
	Text  string
}

// Buffer is the mutable text of one document with a cursor.
// All methods are safe for concurrent use.
type Buffer struct {
	mu     sync.RWMutex
	text   string
	doc    *Document
	cursor int
	path   string
	dirty  bool
}

// NewBuffer creates an unsaved buffer holding text.
func NewBuffer(text string) *Buffer {
	return &Buffer{
		text: text,
		doc:  Parse(text),
	}
}

// Open reads path into a new buffer.
func Open(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	b := NewBuffer(string(data))
	b.path = path
	return b, nil
}

// Path returns the file backing the buffer ("" when unsaved).
func (b *Buffer) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Text returns the current text.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Document returns the parse of the current text. The result is a snapshot
// and does not follow later edits.
func (b *Buffer) Document() *Document {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.doc
}

// Cursor returns the cursor offset.
func (b *Buffer) Cursor() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cursor
}

// SetCursor moves the cursor, clamped to the text, and returns the new offset.
func (b *Buffer) SetCursor(offset int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = b.doc.clamp(offset)
	return b.cursor
}

// Dirty reports whether the buffer has unsaved edits.
func (b *Buffer) Dirty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dirty
}

// =============================================================================
// EDITING
// =============================================================================

// Edit computes a change from the current snapshot and applies it atomically.
// If fn returns an error, nothing is written. A nil change is a no-op.
func (b *Buffer) Edit(fn func(doc *Document, cursor int) (*Change, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	change, err := fn(b.doc, b.cursor)
	if err != nil {
		return err
	}
	if change == nil {
		return nil
	}
	return b.applyLocked(*change)
}

// Replace replaces [start, end) with text.
func (b *Buffer) Replace(start, end int, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.applyLocked(Change{Start: start, End: end, Text: text})
}

// applyLocked applies c (must be called with lock held).
func (b *Buffer) applyLocked(c Change) error {
	if c.Start < 0 || c.End > len(b.text) || c.Start > c.End {
		return fmt.Errorf("invalid change range [%d, %d) for length %d", c.Start, c.End, len(b.text))
	}
	if b.text[c.Start:c.End] == c.Text {
		return nil
	}

	b.text = b.text[:c.Start] + c.Text + b.text[c.End:]
	b.doc = Parse(b.text)
	b.dirty = true

	// Cursor after the range shifts; inside the range it moves to the start.
	switch {
	case b.cursor >= c.End:
		b.cursor += len(c.Text) - (c.End - c.Start)
	case b.cursor > c.Start:
		b.cursor = c.Start
	}
	return nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Save writes the buffer to its path.
func (b *Buffer) Save() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.path == "" {
		return fmt.Errorf("buffer has no file path")
	}
	return b.writeLocked(b.path)
}

// SaveAs writes the buffer to path and makes path the backing file.
func (b *Buffer) SaveAs(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.writeLocked(path); err != nil {
		return err
	}
	b.path = path
	return nil
}

// writeLocked writes through a temp file and rename so readers never see a
// partial document.
func (b *Buffer) writeLocked(path string) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := util.AtomicWriteFile(path, []byte(b.text), mode); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	b.dirty = false
	return nil
}

// Reload re-reads the backing file, discarding unsaved edits. The cursor is
// kept, clamped to the new text.
func (b *Buffer) Reload() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.path == "" {
		return fmt.Errorf("buffer has no file path")
	}
	data, err := os.ReadFile(b.path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	b.text = string(data)
	b.doc = Parse(b.text)
	b.cursor = b.doc.clamp(b.cursor)
	b.dirty = false
	return nil
}
