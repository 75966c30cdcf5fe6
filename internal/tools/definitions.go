// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jeranaias/cvetriage/internal/surface"
)

var (
	// ErrUnknownTool is returned when dispatching an unregistered tool name.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrUnknownFunction is returned when registering a descriptor that names
	// an unregistered function.
	ErrUnknownFunction = errors.New("unknown tool function")
)

// KeywordsPlaceholder is replaced by the quoted keyword argument in a
// command template.
const KeywordsPlaceholder = "{keywords}"

// =============================================================================
// KEYWORD SOURCE
// =============================================================================

// Source selects where default keywords come from when none are given.
type Source string

const (
	// SourceSuggestions uses the mined suggestions of the current block.
	SourceSuggestions Source = "suggestions"

	// SourceIdentifier uses the identifier of the current block.
	SourceIdentifier Source = "identifier"

	// SourcePackages uses the packages of the block's add or edit line.
	SourcePackages Source = "packages"
)

// Valid reports whether s is a known source ("" included).
func (s Source) Valid() bool {
	switch s {
	case "", SourceSuggestions, SourceIdentifier, SourcePackages:
		return true
	}
	return false
}

// =============================================================================
// DESCRIPTOR
// =============================================================================

// Descriptor is the static configuration of one tool.
type Descriptor struct {
	// Name is the tool identifier and its surface name
	Name string

	// Command is a shell command template; {keywords} marks the argument
	Command string

	// Function names an in-process function instead of a command
	Function string

	// FoldCase case folds the keyword argument before substitution
	FoldCase bool

	// Source of default keywords
	Source Source

	// Mode is applied to the surface after the run terminates
	Mode surface.Mode

	// Description is shown in help and completion
	Description string
}

// Validate checks a descriptor for use.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("tool has no name")
	}
	if (d.Command == "") == (d.Function == "") {
		return fmt.Errorf("tool %q needs exactly one of command or function", d.Name)
	}
	if !d.Source.Valid() {
		return fmt.Errorf("tool %q has unknown keyword source %q", d.Name, d.Source)
	}
	return nil
}

// IsFunction reports whether the tool runs in process.
func (d Descriptor) IsFunction() bool {
	return d.Function != ""
}

// Expand substitutes arg, shell quoted, into the command template. A
// template without placeholder gets the argument appended.
func (d Descriptor) Expand(arg string) string {
	quoted := shellQuote(arg)
	if strings.Contains(d.Command, KeywordsPlaceholder) {
		return strings.ReplaceAll(d.Command, KeywordsPlaceholder, quoted)
	}
	if arg == "" {
		return d.Command
	}
	return d.Command + " " + quoted
}

// =============================================================================
// REGISTRY
// =============================================================================

// Func is an in-process tool. It receives the formatted argument.
type Func func(arg string) (string, error)

// Registry holds the tool descriptors and in-process functions.
// Descriptors are fixed once registered.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]Descriptor
	functions map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:     make(map[string]Descriptor),
		functions: make(map[string]Func),
	}
}

// Register adds a descriptor. Registering a name twice is an error, and a
// function tool needs its function registered first.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[d.Name]; exists {
		return fmt.Errorf("tool %q already registered", d.Name)
	}
	if d.IsFunction() && r.functions[d.Function] == nil {
		return fmt.Errorf("%w: %q (tool %q)", ErrUnknownFunction, d.Function, d.Name)
	}
	r.tools[d.Name] = d
	return nil
}

// RegisterFunction adds an in-process function under name.
func (r *Registry) RegisterFunction(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[name] = fn
}

// Get retrieves a descriptor by name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.tools[name]
	return d, ok
}

// Function retrieves an in-process function by name.
func (r *Registry) Function(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.functions[name]
	return fn, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every descriptor, sorted by name.
func (r *Registry) All() []Descriptor {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}
