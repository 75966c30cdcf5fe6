// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kballard/go-shellquote"

	"github.com/jeranaias/cvetriage/internal/logging"
	"github.com/jeranaias/cvetriage/internal/surface"
	"github.com/jeranaias/cvetriage/internal/tools"
	"github.com/jeranaias/cvetriage/internal/ui/styles"
	"github.com/jeranaias/cvetriage/internal/util"
)

// DatabaseFile is the name of the store inside the data directory.
const DatabaseFile = "triage.db"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete cvetriage configuration.
type Config struct {
	// DataDir holds the database; empty means the config directory
	DataDir string `toml:"data_dir"`

	Log      LogConfig      `toml:"log"`
	Packages PackagesConfig `toml:"packages"`
	History  HistoryConfig  `toml:"history"`
	UI       UIConfig       `toml:"ui"`

	// Tools are the external lookup tools, in declaration order
	Tools []ToolConfig `toml:"tools"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level"`
	// File receives log output instead of stderr
	File string `toml:"file"`
}

// PackagesConfig configures the package inventory.
type PackagesConfig struct {
	// SourceCommand lists source packages, one per line (argv form)
	SourceCommand []string `toml:"source_command"`
	// BinaryCommand lists binary packages, one per line (argv form)
	BinaryCommand []string `toml:"binary_command"`
	// CacheTTLHours is how long a stored inventory stays fresh
	CacheTTLHours int `toml:"cache_ttl_hours"`
	// PersistCache stores inventories in the database
	PersistCache bool `toml:"persist_cache"`
	// TimeoutSecs bounds each inventory command
	TimeoutSecs int `toml:"timeout_secs"`
}

// HistoryConfig configures the ignore reason history.
type HistoryConfig struct {
	// ReasonsFile seeds the history ("CVE-YYYY-NNNN # reason" per line)
	ReasonsFile string `toml:"reasons_file"`
	// Persist stores reasons entered in a session for later sessions
	Persist bool `toml:"persist"`
}

// UIConfig contains terminal output configuration.
type UIConfig struct {
	// Color is auto, always or never
	Color string `toml:"color"`
	// Style is "theme" or a chroma style name for document highlighting
	Style string `toml:"style"`
	// WatchFile reloads the document when it changes on disk
	WatchFile bool `toml:"watch_file"`
	// WatchDebounceMs coalesces bursts of file events
	WatchDebounceMs int `toml:"watch_debounce_ms"`
}

// ToolConfig is the configuration form of a tool descriptor.
type ToolConfig struct {
	Name        string `toml:"name"`
	Command     string `toml:"command"`
	Function    string `toml:"function"`
	FoldCase    bool   `toml:"fold_case"`
	Source      string `toml:"source"`
	Mode        string `toml:"mode"`
	Description string `toml:"description"`
}

// Descriptor converts the entry to a tool descriptor.
func (t ToolConfig) Descriptor() (tools.Descriptor, error) {
	mode, err := surface.ParseMode(t.Mode)
	if err != nil {
		return tools.Descriptor{}, err
	}
	d := tools.Descriptor{
		Name:        t.Name,
		Command:     t.Command,
		Function:    t.Function,
		FoldCase:    t.FoldCase,
		Source:      tools.Source(t.Source),
		Mode:        mode,
		Description: t.Description,
	}
	return d, d.Validate()
}

// FromDescriptor converts a descriptor to its configuration form.
func FromDescriptor(d tools.Descriptor) ToolConfig {
	return ToolConfig{
		Name:        d.Name,
		Command:     d.Command,
		Function:    d.Function,
		FoldCase:    d.FoldCase,
		Source:      string(d.Source),
		Mode:        string(d.Mode),
		Description: d.Description,
	}
}

func builtinTools() []ToolConfig {
	var out []ToolConfig
	for _, d := range tools.Builtins() {
		out = append(out, FromDescriptor(d))
	}
	return out
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with the default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "warn",
		},

		Packages: PackagesConfig{
			SourceCommand: []string{"dpkg-query", "-W", "-f", "${source:Package}\\n"},
			BinaryCommand: []string{"dpkg-query", "-W", "-f", "${Package}\\n"},
			CacheTTLHours: 24,
			PersistCache:  true,
			TimeoutSecs:   60,
		},

		History: HistoryConfig{
			Persist: true,
		},

		UI: UIConfig{
			Color:           string(styles.ColorAuto),
			Style:           "theme",
			WatchFile:       true,
			WatchDebounceMs: 250,
		},

		Tools: builtinTools(),
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the cvetriage configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".cvetriage"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataPath returns the resolved data directory.
func (c *Config) DataPath() (string, error) {
	if c.DataDir != "" {
		return util.ExpandHome(c.DataDir), nil
	}
	return ConfigDir()
}

// DatabasePath returns the path of the SQLite store.
func (c *Config) DatabasePath() (string, error) {
	dir, err := c.DataPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseFile), nil
}

// CacheTTL returns the inventory freshness window.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Packages.CacheTTLHours) * time.Hour
}

// WatchDebounce returns the file watch debounce interval.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.UI.WatchDebounceMs) * time.Millisecond
}

// Descriptors converts every tool entry. Entries are validated by Validate,
// so an error here means the config was not validated.
func (c *Config) Descriptors() ([]tools.Descriptor, error) {
	out := make([]tools.Descriptor, 0, len(c.Tools))
	for _, t := range c.Tools {
		d, err := t.Descriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.cvetriage/config.toml, falling back to defaults when the
// file does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep their
// current values, except that a [[tools]] list replaces the default tools.
func LoadTOML(cfg *Config, path string) error {
	defaults := cfg.Tools
	cfg.Tools = nil

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		cfg.Tools = defaults
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if !meta.IsDefined("tools") {
		cfg.Tools = defaults
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return fillDefaults(cfg)
}

func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	if err := fillDefaults(c); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// fillDefaults fills in zero values that have no meaning of their own.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Packages.TimeoutSecs == 0 {
		cfg.Packages.TimeoutSecs = defaults.Packages.TimeoutSecs
	}
	if cfg.UI.Color == "" {
		cfg.UI.Color = defaults.UI.Color
	}
	if cfg.UI.Style == "" {
		cfg.UI.Style = defaults.UI.Style
	}
	if cfg.UI.WatchDebounceMs == 0 {
		cfg.UI.WatchDebounceMs = defaults.UI.WatchDebounceMs
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Encode renders the configuration as TOML with a header comment.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# cvetriage configuration file\n")
	buf.WriteString("#\n")
	buf.WriteString("# [[tools]] entries replace the built-in tool list when present.\n\n")

	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveTOML writes the configuration to path.
func SaveTOML(cfg *Config, path string) error {
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration. It returns ValidateErrors listing
// every problem, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if c.Packages.CacheTTLHours < 0 {
		errs = append(errs, ValidationError{
			Field:   "packages.cache_ttl_hours",
			Message: "must not be negative",
		})
	}
	if c.Packages.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "packages.timeout_secs",
			Message: "must not be negative",
		})
	}
	for field, argv := range map[string][]string{
		"packages.source_command": c.Packages.SourceCommand,
		"packages.binary_command": c.Packages.BinaryCommand,
	} {
		if len(argv) > 0 && strings.TrimSpace(argv[0]) == "" {
			errs = append(errs, ValidationError{Field: field, Message: "program name is empty"})
		}
	}

	if !styles.ColorMode(c.UI.Color).Valid() {
		errs = append(errs, ValidationError{
			Field:   "ui.color",
			Message: fmt.Sprintf("invalid color mode '%s', must be one of: auto, always, never", c.UI.Color),
		})
	}
	if c.UI.WatchDebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "ui.watch_debounce_ms",
			Message: "must not be negative",
		})
	}

	seen := make(map[string]bool, len(c.Tools))
	for i, t := range c.Tools {
		field := fmt.Sprintf("tools[%d]", i)
		if _, err := t.Descriptor(); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error()})
			continue
		}
		if seen[t.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate tool name '%s'", t.Name),
			})
		}
		seen[t.Name] = true
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - CVETRIAGE_DATA_DIR: overrides data_dir
//   - CVETRIAGE_SOURCE_PACKAGES_CMD: overrides packages.source_command (shell words)
//   - CVETRIAGE_BINARY_PACKAGES_CMD: overrides packages.binary_command (shell words)
//   - CVETRIAGE_COLOR: overrides ui.color
//   - CVETRIAGE_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if dir := os.Getenv("CVETRIAGE_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}

	if cmd, ok := os.LookupEnv("CVETRIAGE_SOURCE_PACKAGES_CMD"); ok {
		if argv, err := shellquote.Split(cmd); err == nil {
			c.Packages.SourceCommand = argv
		}
	}
	if cmd, ok := os.LookupEnv("CVETRIAGE_BINARY_PACKAGES_CMD"); ok {
		if argv, err := shellquote.Split(cmd); err == nil {
			c.Packages.BinaryCommand = argv
		}
	}

	if color := os.Getenv("CVETRIAGE_COLOR"); color != "" {
		c.UI.Color = strings.ToLower(color)
	}

	if level := os.Getenv("CVETRIAGE_LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
}

// =============================================================================
// GET (DOT NOTATION)
// =============================================================================

// Get retrieves a value by its TOML key in dot notation ("packages.cache_ttl_hours").
func (c *Config) Get(key string) (interface{}, error) {
	if key == "" {
		return nil, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Keys returns every scalar key in dot notation.
func Keys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
			if tag == "" {
				continue
			}
			ft := t.Field(i).Type
			switch ft.Kind() {
			case reflect.Struct:
				walk(ft, prefix+tag+".")
			case reflect.Slice:
				if ft.Elem().Kind() == reflect.Struct {
					continue
				}
				keys = append(keys, prefix+tag)
			default:
				keys = append(keys, prefix+tag)
			}
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	_ = toml.NewEncoder(&buf).Encode(c)
	return buf.String()
}
