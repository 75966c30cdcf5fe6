// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/jeranaias/cvetriage/internal/config"
	"github.com/jeranaias/cvetriage/internal/document"
)

// =============================================================================
// COMPLETION TYPE
// =============================================================================

// Completion represents a completion suggestion.
type Completion struct {
	// Value replaces the partial word
	Value string

	// Description shown alongside
	Description string
}

// Result is the outcome of Complete.
type Result struct {
	// Start is the byte offset in the input where the partial word begins
	Start int

	// Partial is the word being completed
	Partial string

	// Kind is set when the action line resolver produced the candidates
	Kind ContextKind

	Completions []Completion
}

// Values returns the completion values in order.
func (r Result) Values() []string {
	out := make([]string, len(r.Completions))
	for i, c := range r.Completions {
		out[i] = c.Value
	}
	return out
}

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion of REPL input: slash commands and their
// arguments, and action text for the current record.
type Completer struct {
	registry *Registry
	resolver *Resolver

	// Callbacks for dynamic completion
	CurrentID func() string   // Returns the identifier of the current record
	ToolsFn   func() []string // Returns configured tool names
	ReasonsFn func() []string // Returns recorded ignore reasons
}

// NewCompleter creates a completer. resolver may be nil.
func NewCompleter(registry *Registry, resolver *Resolver) *Completer {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	return &Completer{registry: registry, resolver: resolver}
}

// ForContext creates a completer wired to a handler context's session.
func ForContext(c *Context) *Completer {
	completer := NewCompleter(c.Registry, c.Resolver())
	completer.CurrentID = func() string {
		b, _ := c.Session.Document().BlockAt(c.cursor())
		return b.ID
	}
	completer.ToolsFn = c.Session.Dispatcher().Registry().Names
	completer.ReasonsFn = c.Session.History().Snapshot
	return completer
}

// Complete returns completions for input with the cursor at pos.
func (c *Completer) Complete(ctx context.Context, input string, pos int) Result {
	if pos < 0 || pos > len(input) {
		pos = len(input)
	}
	input = input[:pos]

	if !strings.HasPrefix(strings.TrimLeft(input, " "), "/") {
		return c.completeAction(ctx, input)
	}

	lead := len(input) - len(strings.TrimLeft(input, " "))
	name, rest, hasArgs := strings.Cut(input[lead:], " ")
	if !hasArgs {
		return Result{Start: lead, Partial: name, Completions: c.completeCommands(name)}
	}

	cmd := c.registry.Get(name)
	if cmd == nil {
		return Result{Start: len(input)}
	}
	argsStart := lead + len(name) + 1

	// add and edit arguments follow the action line grammar.
	if cmd.Name == "/add" || cmd.Name == "/edit" {
		keyword := strings.TrimPrefix(cmd.Name, "/")
		res := c.completeAction(ctx, keyword+" "+rest)
		res.Start += argsStart - len(keyword) - 1
		return res
	}

	words := strings.Fields(rest)
	argIndex := len(words)
	partial := ""
	if !strings.HasSuffix(rest, " ") && len(words) > 0 {
		argIndex--
		partial = words[len(words)-1]
	}
	start := len(input) - len(partial)

	if cmd.RawArgs && len(cmd.Args) > 0 && cmd.Args[0].Type == ArgTypeReason {
		partial = strings.TrimLeft(rest, " ")
		start = len(input) - len(partial)
		return Result{Start: start, Partial: partial, Completions: c.completeReasons(partial)}
	}
	return Result{Start: start, Partial: partial, Completions: c.completeArg(cmd, argIndex, partial)}
}

// completeAction completes plain input as the action text of the current
// record.
func (c *Completer) completeAction(ctx context.Context, input string) Result {
	id := ""
	if c.CurrentID != nil {
		id = c.CurrentID()
	}
	if id == "" {
		return Result{Start: len(input)}
	}

	prefix := id + " " + input
	set, err := c.resolver.ContextForPrefix(ctx, prefix)
	if err != nil || set.Kind == ContextNone {
		return Result{Start: len(input)}
	}

	res := Result{
		Start:   set.Start - len(id) - 1,
		Partial: set.Partial,
		Kind:    set.Kind,
	}
	for _, value := range FilterCandidates(set.Candidates, set.Partial) {
		res.Completions = append(res.Completions, Completion{Value: value, Description: set.Kind.String()})
	}
	return res
}

// =============================================================================
// FILTERING
// =============================================================================

// FilterCandidates returns the candidates starting with partial, in offer
// order. When none does, it falls back to fuzzy matches, best first.
func FilterCandidates(candidates []string, partial string) []string {
	matches := CandidateSet{Candidates: candidates, Partial: partial}.Matches()
	if len(matches) > 0 || partial == "" {
		return matches
	}
	found := fuzzy.Find(partial, candidates)
	out := make([]string, 0, len(found))
	for _, m := range found {
		out = append(out, candidates[m.Index])
	}
	return out
}

// =============================================================================
// COMMAND COMPLETION
// =============================================================================

// completeCommands returns completions for command names.
func (c *Completer) completeCommands(partial string) []Completion {
	var names []string
	descriptions := make(map[string]string)
	for _, cmd := range c.registry.All() {
		if cmd.Hidden {
			continue
		}
		names = append(names, cmd.Name)
		descriptions[cmd.Name] = cmd.Description
		for _, alias := range cmd.Aliases {
			names = append(names, alias)
			descriptions[alias] = cmd.Description
		}
	}
	sort.Strings(names)

	var completions []Completion
	for _, name := range FilterCandidates(names, partial) {
		completions = append(completions, Completion{Value: name, Description: descriptions[name]})
	}
	return completions
}

// =============================================================================
// ARGUMENT COMPLETION
// =============================================================================

// completeArg returns completions for argument argIndex of cmd.
func (c *Completer) completeArg(cmd *Command, argIndex int, partial string) []Completion {
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}
	arg := cmd.Args[argIndex]

	var values []string
	switch arg.Type {
	case ArgTypeEnum:
		values = arg.Values
	case ArgTypePriority:
		values = document.PriorityNames()
	case ArgTypeTool:
		if c.ToolsFn != nil {
			values = c.ToolsFn()
		}
	case ArgTypeReason:
		return c.completeReasons(partial)
	case ArgTypeConfig:
		values = config.Keys()
	default:
		return nil
	}
	return completeFromList(FilterCandidates(values, partial), arg.Name)
}

func (c *Completer) completeReasons(partial string) []Completion {
	if c.ReasonsFn == nil {
		return nil
	}
	return completeFromList(FilterCandidates(c.ReasonsFn(), partial), "reason")
}

func completeFromList(values []string, description string) []Completion {
	completions := make([]Completion, 0, len(values))
	for _, v := range values {
		completions = append(completions, Completion{Value: v, Description: description})
	}
	return completions
}
