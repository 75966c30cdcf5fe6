// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jeranaias/cvetriage/internal/document"
)

func TestSuggestedNamesEndToEnd(t *testing.T) {
	doc := document.Parse("CVE-2020-0001\nCVE-2020-0002 ignore \"not applicable\"\n")

	// Block 1 has no action lines and the scan stops at its top
	got, err := SuggestedNames(doc, 0)
	if err != nil {
		t.Fatalf("block 1: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("block 1: got %q, want empty", got)
	}

	got, err = SuggestedNames(doc, doc.LineStart(1)+5)
	if err != nil {
		t.Fatalf("block 2: %v", err)
	}
	want := []string{"not applicable", "not", "applicable"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("block 2 mismatch (-want +got):\n%s", diff)
	}
}

func TestSuggestedNamesWithinBlock(t *testing.T) {
	text := "CVE-2019-1111 ignore 'other block'\n" +
		"CVE-2020-0001 add high openssl libssl\n" +
		"ignore \"code not present\"\n" +
		"edit low ignored words\n" +
		"ignore present upstream\n" +
		"free text line\n"
	doc := document.Parse(text)

	got, err := SuggestedNames(doc, doc.LineStart(5))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"present upstream", "upstream",
		"code not present", "code", "not", "present",
		"openssl libssl", "openssl", "libssl",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// No duplicates, every word of every mined phrase is present, and the items
// taken from one line stay together.
func TestSuggestedNamesProperties(t *testing.T) {
	text := "CVE-2020-0001 ignore a b a\nignore b c\nadd low a c d\nignore \"a b a\"\n"
	doc := document.Parse(text)

	got, err := SuggestedNames(doc, doc.Len())
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for _, s := range got {
		if seen[s] {
			t.Errorf("duplicate %q in %q", s, got)
		}
		seen[s] = true
	}
	for _, s := range []string{"a b a", "b c", "a c d", "a", "b", "c", "d"} {
		if !seen[s] {
			t.Errorf("missing %q in %q", s, got)
		}
	}

	// Words shared with an older line are claimed by that line.
	want := []string{"a c d", "d", "b c", "c", "a b a", "b", "a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSuggestedNamesScanStartsAtCursor(t *testing.T) {
	doc := document.Parse("CVE-2020-0001\nignore above\nignore below\n")
	got, err := SuggestedNames(doc, doc.LineStart(1))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"above"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSuggestedNamesNoRecord(t *testing.T) {
	_, err := SuggestedNames(document.Parse("notes\n"), 0)
	if !errors.Is(err, document.ErrNoRecordFound) {
		t.Fatalf("expected ErrNoRecordFound, got %v", err)
	}
}
