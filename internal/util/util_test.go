// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "triage.txt")
	data := []byte("CVE-2020-0001 skip\n")

	if err := AtomicWriteFile(path, data, 0640); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("Content mismatch: got %q, want %q", content, data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("Mode = %o, want 640", info.Mode().Perm())
	}
}

func TestAtomicWriteFile_OverwritesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triage.txt")

	if err := AtomicWriteFile(path, []byte("initial"), 0644); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("updated"), 0644); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != "updated" {
		t.Errorf("Content not updated: got %q", content)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the target file, found %d entries", len(entries))
	}
}

// =============================================================================
// DISPLAY TESTS
// =============================================================================

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"openssl", 10, "openssl"},
		{"hello world", 8, "hello..."},
		{"hello", 2, "he"},
		{"日本語テキスト", 7, "日本..."},
		{"anything", 0, ""},
	}

	for _, tt := range tests {
		if got := Truncate(tt.input, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("日本", 6); got != "日本  " {
		t.Errorf("PadRight = %q", got)
	}
}

func TestColumns(t *testing.T) {
	got := Columns([]string{"a", "bb", "ccc", "d"}, 10)
	want := []string{"a    ccc", "bb   d"}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("Columns = %q, want %q", got, want)
	}

	// Items wider than the terminal still get one per row
	got = Columns([]string{"negligible", "low"}, 4)
	if len(got) != 2 || got[0] != "negligible" || got[1] != "low" {
		t.Errorf("Columns narrow = %q", got)
	}

	if Columns(nil, 80) != nil {
		t.Error("Columns(nil) should be nil")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandHome("~/.cvetriage"); got != filepath.Join(home, ".cvetriage") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/tmp/x"); got != "/tmp/x" {
		t.Errorf("ExpandHome absolute = %q", got)
	}
	if got := ExpandHome("~user/x"); got != "~user/x" {
		t.Errorf("ExpandHome other user = %q", got)
	}
}
