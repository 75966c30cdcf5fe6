// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cvetriage/internal/surface"
	"github.com/jeranaias/cvetriage/internal/tools"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	descriptors, err := cfg.Descriptors()
	require.NoError(t, err)
	require.Len(t, descriptors, len(tools.Builtins()))
	assert.Equal(t, "grep-doc", descriptors[0].Name)
	assert.Equal(t, surface.ModeGrep, descriptors[0].Mode)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.UI.Color)

	db, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(db, filepath.Join(".cvetriage", DatabaseFile)))
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
data_dir = "/var/lib/cvetriage"

[packages]
source_command = ["cat", "/srv/sources.txt"]
cache_ttl_hours = 6

[ui]
color = "never"

[[tools]]
name = "tracker"
command = "grep -rn {keywords} /srv/tracker"
fold_case = true
mode = "grep"
source = "identifier"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"cat", "/srv/sources.txt"}, cfg.Packages.SourceCommand)
	assert.Equal(t, Default().Packages.BinaryCommand, cfg.Packages.BinaryCommand, "untouched keys keep defaults")
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL())
	assert.Equal(t, "never", cfg.UI.Color)
	assert.True(t, cfg.History.Persist)

	descriptors, err := cfg.Descriptors()
	require.NoError(t, err)
	require.Len(t, descriptors, 1, "a tools list replaces the built-in list")
	assert.Equal(t, "tracker", descriptors[0].Name)
	assert.Equal(t, tools.SourceIdentifier, descriptors[0].Source)
	assert.True(t, descriptors[0].FoldCase)

	dir, err := cfg.DataPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/cvetriage", dir)
}

func TestLoadFromPath_UnknownKey(t *testing.T) {
	path := writeConfig(t, "[ui]\ncolour = \"never\"\n")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ui.colour")
}

func TestLoadFromPath_Invalid(t *testing.T) {
	path := writeConfig(t, `
[ui]
color = "sometimes"

[[tools]]
name = "a"
command = "true"

[[tools]]
name = "a"
command = "false"

[[tools]]
name = "b"
command = "true"
mode = "html"
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))

	fields := make([]string, len(verrs))
	for i, e := range verrs {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"ui.color", "tools[1]", "tools[2]"}, fields)
}

func TestValidate_ToolNeedsCommandOrFunction(t *testing.T) {
	cfg := Default()
	cfg.Tools = []ToolConfig{{Name: "empty"}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tools[0]")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CVETRIAGE_DATA_DIR", "/tmp/triage")
	t.Setenv("CVETRIAGE_SOURCE_PACKAGES_CMD", `sh -c "cut -d' ' -f1 sources"`)
	t.Setenv("CVETRIAGE_BINARY_PACKAGES_CMD", "")
	t.Setenv("CVETRIAGE_COLOR", "ALWAYS")
	t.Setenv("CVETRIAGE_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "/tmp/triage", cfg.DataDir)
	assert.Equal(t, []string{"sh", "-c", "cut -d' ' -f1 sources"}, cfg.Packages.SourceCommand)
	assert.Empty(t, cfg.Packages.BinaryCommand, "empty variable disables the command")
	assert.Equal(t, "always", cfg.UI.Color)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestGet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("packages.cache_ttl_hours")
	require.NoError(t, err)
	assert.Equal(t, 24, v)

	v, err = cfg.Get("ui.color")
	require.NoError(t, err)
	assert.Equal(t, "auto", v)

	_, err = cfg.Get("ui.nope")
	assert.Error(t, err)

	_, err = cfg.Get("data_dir.x")
	assert.Error(t, err)

	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "data_dir")
	assert.Contains(t, keys, "packages.source_command")
	assert.Contains(t, keys, "history.reasons_file")
	assert.NotContains(t, keys, "tools")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestSaveTOML_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.UI.Color = "never"
	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "never", loaded.UI.Color)
	assert.Equal(t, cfg.Tools, loaded.Tools)
}
