// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package edit

import (
	"errors"
	"fmt"

	"github.com/jeranaias/cvetriage/internal/document"
)

var (
	// ErrNoMoreRecords is returned when navigation runs out of identifier lines.
	ErrNoMoreRecords = errors.New("no more CVE records")

	// ErrNoPreviousRecord is returned by RepeatPrevious in the first block.
	ErrNoPreviousRecord = errors.New("no previous CVE record")
)

// Direction is the way Advance moves.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// String returns "forward" or "backward".
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Backward {
		return Forward
	}
	return Backward
}

// Advance returns the offset of the start of the count-th identifier line in
// dir, not counting the line under the cursor. A negative count moves the
// other way. There is no wraparound; when fewer than count identifier lines
// remain the error wraps ErrNoMoreRecords and the caller should stay put.
func Advance(doc *document.Document, cursor, count int, dir Direction) (int, error) {
	if count == 0 {
		return cursor, nil
	}
	if count < 0 {
		count = -count
		dir = dir.Opposite()
	}

	line := doc.LineAt(cursor)
	ids := doc.IdentifierLines()

	var candidates []int
	if dir == Forward {
		for _, id := range ids {
			if id > line {
				candidates = append(candidates, id)
			}
		}
	} else {
		for i := len(ids) - 1; i >= 0; i-- {
			if ids[i] < line {
				candidates = append(candidates, ids[i])
			}
		}
	}

	if len(candidates) < count {
		return cursor, fmt.Errorf("%w: %d %s, %d available", ErrNoMoreRecords, count, dir, len(candidates))
	}
	return doc.LineStart(candidates[count-1]), nil
}
