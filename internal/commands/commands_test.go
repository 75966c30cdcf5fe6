// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/cvetriage/internal/document"
	"github.com/jeranaias/cvetriage/internal/edit"
	"github.com/jeranaias/cvetriage/internal/packages"
	"github.com/jeranaias/cvetriage/internal/session"
	"github.com/jeranaias/cvetriage/internal/tools"
)

const triage = "CVE-2020-0001 add high openssl\nCVE-2020-0002\nCVE-2020-0003 ignore not applicable\n"

func newTestContext(t *testing.T, text string) (*Context, *bytes.Buffer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triage.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	s, err := session.New(session.Options{
		Path:     path,
		NoStore:  true,
		Logger:   zaptest.NewLogger(t),
		Packages: packages.Static{Source: []string{"openssl", "linux"}, Binary: []string{"libssl3"}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	var out bytes.Buffer
	return NewContext(context.Background(), s, &out), &out, path
}

func line(c *Context, i int) string {
	return c.Session.Document().Line(i)
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"/next", "/n", "/add", "/ignore", "/search", "/q", "/quit!"} {
		if r.Get(name) == nil {
			t.Errorf("Get(%q) = nil", name)
		}
	}
	assert.Nil(t, r.Get("/nope"))
	assert.Same(t, r.Get("/next"), r.Get("/n"))
}

func TestRegistryNamesSkipHidden(t *testing.T) {
	names := NewRegistry().Names()
	assert.Contains(t, names, "/next")
	assert.Contains(t, names, "/n")
	assert.NotContains(t, names, "/quit!")
	assert.True(t, sortedStrings(names))
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}

func TestRegistryByCategory(t *testing.T) {
	groups := NewRegistry().ByCategory()
	for _, category := range categoryOrder {
		assert.NotEmpty(t, groups[category], category)
	}
}

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestParserParse(t *testing.T) {
	p := NewParser(NewRegistry())

	tests := []struct {
		input       string
		wantCommand bool
		wantName    string
		wantArgs    []string
		wantFound   bool
	}{
		{"skip", false, "", nil, false},
		{"  /next  ", true, "/next", nil, true},
		{"/next 3", true, "/next", []string{"3"}, true},
		{`/search grep-doc "two words"`, true, "/search", []string{"grep-doc", "two words"}, true},
		{"/bogus x", true, "/bogus", []string{"x"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := p.Parse(tc.input)
			assert.Equal(t, tc.wantCommand, got.IsCommand)
			assert.Equal(t, tc.wantName, got.CommandName)
			assert.Equal(t, tc.wantArgs, got.Args)
			assert.Equal(t, tc.wantFound, got.Command != nil)
			assert.NoError(t, got.Error)
		})
	}
}

func TestParseArgsUnterminatedQuote(t *testing.T) {
	_, err := ParseArgs(`"open`)
	assert.ErrorIs(t, err, ErrUsage)
}

// =============================================================================
// EXECUTE TESTS
// =============================================================================

func TestExecuteNavigation(t *testing.T) {
	c, out, _ := newTestContext(t, triage)

	require.NoError(t, Execute(c, "/next"))
	assert.Equal(t, len("CVE-2020-0001 add high openssl\n"), c.Session.Buffer().Cursor())
	assert.Contains(t, out.String(), "CVE-2020-0002")

	err := Execute(c, "/next 5")
	assert.ErrorIs(t, err, edit.ErrNoMoreRecords)

	require.NoError(t, Execute(c, "/prev"))
	assert.Equal(t, 0, c.Session.Buffer().Cursor())

	require.NoError(t, Execute(c, "/goto cve-2020-0003"))
	id, _ := c.Session.Document().IdentifierAt(c.Session.Buffer().Cursor())
	assert.Equal(t, "CVE-2020-0003", id)

	assert.ErrorIs(t, Execute(c, "/goto CVE-1999-0001"), document.ErrNoRecordFound)
	assert.ErrorIs(t, Execute(c, "/next x"), ErrUsage)
}

func TestExecuteActionText(t *testing.T) {
	c, _, _ := newTestContext(t, triage)
	require.NoError(t, Execute(c, "/n"))

	require.NoError(t, Execute(c, "skip"))
	assert.Equal(t, "CVE-2020-0002 skip", line(c, 1))
	assert.True(t, c.Session.Buffer().Dirty())

	require.NoError(t, Execute(c, `ignore "not built"`))
	assert.Equal(t, `CVE-2020-0002 ignore "not built"`, line(c, 1))
	assert.Equal(t, []string{"not built"}, c.Session.History().Snapshot())
}

func TestExecuteTriageCommands(t *testing.T) {
	c, _, _ := newTestContext(t, triage)

	require.NoError(t, Execute(c, "/prio low"))
	assert.Equal(t, "CVE-2020-0001 add low openssl", line(c, 0))

	require.NoError(t, Execute(c, "/n"))
	assert.ErrorIs(t, Execute(c, "/prio high"), ErrNoAddLine)

	require.NoError(t, Execute(c, "/repeat"))
	assert.Equal(t, "CVE-2020-0002 add low openssl", line(c, 1))

	require.NoError(t, Execute(c, "/edit medium linux"))
	assert.Equal(t, "CVE-2020-0002 edit medium linux", line(c, 1))

	require.NoError(t, Execute(c, "/ignore doesn't apply"))
	assert.Equal(t, `CVE-2020-0002 ignore "doesn't apply"`, line(c, 1))
	assert.Equal(t, []string{"doesn't apply"}, c.Session.History().Snapshot())

	require.NoError(t, Execute(c, "/unembargo"))
	assert.Equal(t, "CVE-2020-0002 unembargo", line(c, 1))

	require.NoError(t, Execute(c, "/set"))
	assert.Equal(t, "CVE-2020-0002", line(c, 1))

	assert.ErrorIs(t, Execute(c, "/add"), edit.ErrIncomplete)
	assert.ErrorIs(t, Execute(c, "/ignore"), ErrUsage)
}

type stubPrompter struct{}

func (stubPrompter) Priority(context.Context, string, []document.Priority) (document.Priority, error) {
	return document.PriorityMedium, nil
}

func (stubPrompter) Packages(context.Context, string) ([]string, error) {
	return []string{"linux"}, nil
}

func TestExecuteAddPrompts(t *testing.T) {
	c, _, _ := newTestContext(t, triage)
	c.Prompter = stubPrompter{}
	require.NoError(t, Execute(c, "/n"))

	require.NoError(t, Execute(c, "/add"))
	assert.Equal(t, "CVE-2020-0002 add medium linux", line(c, 1))
}

func TestExecuteUnknownCommand(t *testing.T) {
	c, _, _ := newTestContext(t, triage)

	err := Execute(c, "/nxet")
	var unknown *UnknownCommandError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "/nxet", unknown.Name)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestExecuteEmpty(t *testing.T) {
	c, out, _ := newTestContext(t, triage)
	assert.NoError(t, Execute(c, "   "))
	assert.Empty(t, out.String())
}

func TestExecuteSuggest(t *testing.T) {
	c, out, _ := newTestContext(t, triage)
	require.NoError(t, Execute(c, "/goto CVE-2020-0003"))
	out.Reset()

	require.NoError(t, Execute(c, "/sug"))
	assert.Contains(t, out.String(), "not applicable")
}

func TestExecuteSearchAndShow(t *testing.T) {
	c, out, _ := newTestContext(t, triage)

	require.NoError(t, Execute(c, "/search grep-doc openssl"))
	assert.Contains(t, out.String(), "CVE-2020-0001 add high openssl")

	out.Reset()
	var paged string
	c.Pager = func(title string, content func() string, live bool) error {
		paged = title + "\n" + content()
		return nil
	}
	require.NoError(t, Execute(c, "/show grep-doc"))
	assert.True(t, strings.HasPrefix(paged, "grep-doc\n"))
	assert.Contains(t, paged, "openssl")

	assert.Error(t, Execute(c, "/show reasons"))
	assert.ErrorIs(t, Execute(c, "/search nope x"), tools.ErrUnknownTool)
}

func TestExecuteBlocksAndCheck(t *testing.T) {
	c, out, _ := newTestContext(t, "CVE-2020-0001 add bogus openssl\nCVE-2020-0002 skip\n")

	require.NoError(t, Execute(c, "/blocks"))
	assert.Contains(t, out.String(), "> CVE-2020-0001")
	assert.Contains(t, out.String(), "CVE-2020-0002")

	out.Reset()
	require.NoError(t, Execute(c, "/check"))
	assert.Contains(t, out.String(), `line 1: invalid priority: "bogus"`)
	assert.Contains(t, out.String(), `line 2: invalid action: "skip"`)
}

func TestExecuteWriteAndQuit(t *testing.T) {
	c, _, path := newTestContext(t, triage)

	require.NoError(t, Execute(c, "skip"))
	assert.ErrorIs(t, Execute(c, "/quit"), ErrUnsavedChanges)
	assert.ErrorIs(t, Execute(c, "/reload"), ErrUnsavedChanges)
	assert.False(t, c.Quit())

	require.NoError(t, Execute(c, "/w"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "CVE-2020-0001 skip\n"))

	require.NoError(t, Execute(c, "/q"))
	assert.True(t, c.Quit())
}

func TestExecuteDiff(t *testing.T) {
	c, out, _ := newTestContext(t, triage)

	require.NoError(t, Execute(c, "/diff"))
	assert.Equal(t, "no unsaved changes\n", out.String())

	require.NoError(t, Execute(c, "skip"))
	out.Reset()
	require.NoError(t, Execute(c, "/d"))
	assert.Contains(t, out.String(), "@@ -1,3 +1,3 @@ CVE-2020-0001")
	assert.Contains(t, out.String(), "-CVE-2020-0001 add high openssl\n+CVE-2020-0001 skip\n")
	assert.Contains(t, out.String(), "+1 -1 in 1 record")
}

func TestExecuteForceQuit(t *testing.T) {
	c, _, _ := newTestContext(t, triage)
	require.NoError(t, Execute(c, "skip"))
	require.NoError(t, Execute(c, "/q!"))
	assert.True(t, c.Quit())
}

func TestExecuteHelp(t *testing.T) {
	c, out, _ := newTestContext(t, triage)

	require.NoError(t, Execute(c, "/help"))
	assert.Contains(t, out.String(), "Navigation")
	assert.Contains(t, out.String(), "/next")
	assert.NotContains(t, out.String(), "/quit!")

	out.Reset()
	require.NoError(t, Execute(c, "/help add"))
	assert.Contains(t, out.String(), "/add [priority] [package...]")
	assert.Contains(t, out.String(), "aliases: /a")

	assert.ErrorIs(t, Execute(c, "/help nope"), ErrUnknownCommand)
}

func TestExecuteStatusAndConfig(t *testing.T) {
	c, out, _ := newTestContext(t, triage)

	require.NoError(t, Execute(c, "/status"))
	assert.Contains(t, out.String(), "records   3 (0 flagged)")

	out.Reset()
	require.NoError(t, Execute(c, "/config ui.color"))
	assert.Equal(t, "ui.color = auto\n", out.String())
}
