// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package edit

import (
	"errors"
	"testing"

	"github.com/jeranaias/cvetriage/internal/document"
)

const navDoc = `header
CVE-2020-0001
CVE-2020-0002 add low bash
ignore "dup"
CVE-2020-0003
`

func TestAdvance(t *testing.T) {
	doc := document.Parse(navDoc)
	line := doc.LineStart

	tests := []struct {
		name    string
		cursor  int
		count   int
		dir     Direction
		want    int
		wantErr bool
	}{
		{name: "forward from header", cursor: 0, count: 1, dir: Forward, want: line(1)},
		{name: "forward skips current", cursor: line(1), count: 1, dir: Forward, want: line(2)},
		{name: "forward mid line", cursor: line(1) + 4, count: 1, dir: Forward, want: line(2)},
		{name: "forward two", cursor: line(1), count: 2, dir: Forward, want: line(4)},
		{name: "forward from continuation", cursor: line(3), count: 1, dir: Forward, want: line(4)},
		{name: "forward exhausted", cursor: line(4), count: 1, dir: Forward, wantErr: true},
		{name: "forward too many", cursor: line(1), count: 3, dir: Forward, wantErr: true},
		{name: "backward", cursor: line(4), count: 1, dir: Backward, want: line(2)},
		{name: "backward from continuation", cursor: line(3), count: 1, dir: Backward, want: line(2)},
		{name: "backward two", cursor: line(4), count: 2, dir: Backward, want: line(1)},
		{name: "backward exhausted", cursor: line(1), count: 1, dir: Backward, wantErr: true},
		{name: "negative count inverts", cursor: line(4), count: -1, dir: Forward, want: line(2)},
		{name: "negative backward is forward", cursor: line(1), count: -1, dir: Backward, want: line(2)},
		{name: "zero count", cursor: 3, count: 0, dir: Forward, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Advance(doc, tt.cursor, tt.count, tt.dir)
			if tt.wantErr {
				if !errors.Is(err, ErrNoMoreRecords) {
					t.Fatalf("expected ErrNoMoreRecords, got %v (offset %d)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Advance() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Forward then backward returns to the starting identifier line.
func TestAdvanceRoundTrip(t *testing.T) {
	doc := document.Parse(navDoc)
	for _, start := range doc.IdentifierLines() {
		cursor := doc.LineStart(start)
		next, err := Advance(doc, cursor, 1, Forward)
		if err != nil {
			if !errors.Is(err, ErrNoMoreRecords) {
				t.Fatalf("line %d: %v", start, err)
			}
			continue
		}
		back, err := Advance(doc, next, 1, Backward)
		if err != nil {
			t.Fatalf("line %d: backward: %v", start, err)
		}
		if back != cursor {
			t.Errorf("line %d: round trip landed at %d, want %d", start, back, cursor)
		}
	}
}
