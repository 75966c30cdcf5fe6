// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"

	"github.com/jeranaias/cvetriage/internal/document"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Handler executes a command. args are the shell-split words after the
// command name.
type Handler func(ctx *Context, args []string) error

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/next")
	Name string

	// Aliases are alternative names (e.g., "/n")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/add <priority> [package...]")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler Handler

	// RawArgs passes the text after the name as a single unsplit argument
	RawArgs bool

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString   ArgType = iota // Free-form string
	ArgTypePriority                // One of the priorities
	ArgTypePackage                 // Package name from the inventory
	ArgTypeTool                    // Tool name
	ArgTypeReason                  // Recorded ignore reason
	ArgTypeConfig                  // Config key
	ArgTypeEnum                    // One of predefined values
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Names returns every visible command name and alias, sorted.
func (r *Registry) Names() []string {
	var names []string
	for _, cmd := range r.commands {
		if cmd.Hidden {
			continue
		}
		names = append(names, cmd.Name)
		names = append(names, cmd.Aliases...)
	}
	sort.Strings(names)
	return names
}

// ByCategory returns commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// categoryOrder is the order help lists categories in.
var categoryOrder = []string{"Navigation", "Triage", "Tools", "Document", "General"}

// Categories returns the category names in help order.
func Categories() []string {
	return append([]string(nil), categoryOrder...)
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Navigation
	r.Register(&Command{
		Name:        "/next",
		Aliases:     []string{"/n"},
		Description: "Move to the next CVE record",
		Usage:       "/next [count]",
		Args:        []ArgDef{{Name: "count", Description: "Records to move"}},
		Category:    "Navigation",
		Handler:     handleNext,
	})

	r.Register(&Command{
		Name:        "/prev",
		Aliases:     []string{"/p"},
		Description: "Move to the previous CVE record",
		Usage:       "/prev [count]",
		Args:        []ArgDef{{Name: "count", Description: "Records to move"}},
		Category:    "Navigation",
		Handler:     handlePrev,
	})

	r.Register(&Command{
		Name:        "/goto",
		Aliases:     []string{"/g"},
		Description: "Jump to a CVE record by identifier",
		Usage:       "/goto <CVE-ID>",
		Args:        []ArgDef{{Name: "id", Required: true, Description: "CVE identifier"}},
		Category:    "Navigation",
		Handler:     handleGoto,
	})

	r.Register(&Command{
		Name:        "/current",
		Aliases:     []string{"/."},
		Description: "Show the current CVE record",
		Category:    "Navigation",
		Handler:     handleCurrent,
	})

	// Triage
	r.Register(&Command{
		Name:        "/add",
		Aliases:     []string{"/a"},
		Description: "Classify the record as affecting packages",
		Usage:       "/add [priority] [package...]",
		Args: []ArgDef{
			{Name: "priority", Type: ArgTypePriority, Values: document.PriorityNames(), Description: "Priority"},
			{Name: "package", Type: ArgTypePackage, Description: "Affected packages"},
		},
		Category: "Triage",
		Handler:  handleAdd,
	})

	r.Register(&Command{
		Name:        "/edit",
		Aliases:     []string{"/e"},
		Description: "Like /add, marking the record for further editing",
		Usage:       "/edit [priority] [package...]",
		Args: []ArgDef{
			{Name: "priority", Type: ArgTypePriority, Values: document.PriorityNames(), Description: "Priority"},
			{Name: "package", Type: ArgTypePackage, Description: "Affected packages"},
		},
		Category: "Triage",
		Handler:  handleEdit,
	})

	r.Register(&Command{
		Name:        "/ignore",
		Aliases:     []string{"/i"},
		Description: "Exclude the record with a reason",
		Usage:       "/ignore <reason>",
		Args:        []ArgDef{{Name: "reason", Required: true, Type: ArgTypeReason, Description: "Why the record is ignored"}},
		Category:    "Triage",
		RawArgs:     true,
		Handler:     handleIgnore,
	})

	r.Register(&Command{
		Name:        "/skip",
		Description: "Defer the record",
		Category:    "Triage",
		Handler:     handleSkip,
	})

	r.Register(&Command{
		Name:        "/unembargo",
		Description: "Mark the record for publication",
		Category:    "Triage",
		Handler:     handleUnembargo,
	})

	r.Register(&Command{
		Name:        "/prio",
		Description: "Change the priority of the add or edit line",
		Usage:       "/prio <priority>",
		Args: []ArgDef{
			{Name: "priority", Required: true, Type: ArgTypePriority, Values: document.PriorityNames(), Description: "Priority"},
		},
		Category: "Triage",
		Handler:  handlePrio,
	})

	r.Register(&Command{
		Name:        "/repeat",
		Aliases:     []string{"/r"},
		Description: "Copy the previous record's action",
		Category:    "Triage",
		Handler:     handleRepeat,
	})

	r.Register(&Command{
		Name:        "/set",
		Description: "Replace the action text (empty clears it)",
		Usage:       "/set [text...]",
		Category:    "Triage",
		RawArgs:     true,
		Handler:     handleSet,
	})

	r.Register(&Command{
		Name:        "/sug",
		Aliases:     []string{"/s"},
		Description: "Show suggestions mined from the record",
		Usage:       "/sug [ignore]",
		Args:        []ArgDef{{Name: "kind", Type: ArgTypeEnum, Values: []string{"ignore"}, Description: "Merge recorded ignore reasons"}},
		Category:    "Triage",
		Handler:     handleSuggest,
	})

	// Tools
	r.Register(&Command{
		Name:        "/search",
		Aliases:     []string{"/x"},
		Description: "Run a search tool",
		Usage:       "/search <tool> [keyword...]",
		Args: []ArgDef{
			{Name: "tool", Required: true, Type: ArgTypeTool, Description: "Tool name"},
			{Name: "keyword", Description: "Keywords (default: from the record)"},
		},
		Category: "Tools",
		Handler:  handleSearch,
	})

	r.Register(&Command{
		Name:        "/show",
		Description: "Show a tool's output",
		Usage:       "/show <tool>",
		Args:        []ArgDef{{Name: "tool", Required: true, Type: ArgTypeTool, Description: "Tool name"}},
		Category:    "Tools",
		Handler:     handleShow,
	})

	r.Register(&Command{
		Name:        "/tools",
		Description: "List configured tools",
		Category:    "Tools",
		Handler:     handleTools,
	})

	r.Register(&Command{
		Name:        "/jobs",
		Description: "List tool jobs",
		Category:    "Tools",
		Handler:     handleJobs,
	})

	// Document
	r.Register(&Command{
		Name:        "/blocks",
		Aliases:     []string{"/b"},
		Description: "List all CVE records",
		Category:    "Document",
		Handler:     handleBlocks,
	})

	r.Register(&Command{
		Name:        "/check",
		Description: "List flagged values",
		Category:    "Document",
		Handler:     handleCheck,
	})

	r.Register(&Command{
		Name:        "/write",
		Aliases:     []string{"/w"},
		Description: "Save the document",
		Usage:       "/write [path]",
		Category:    "Document",
		Handler:     handleWrite,
	})

	r.Register(&Command{
		Name:        "/diff",
		Aliases:     []string{"/d"},
		Description: "Show unsaved edits against the file on disk",
		Category:    "Document",
		Handler:     handleDiff,
	})

	r.Register(&Command{
		Name:        "/reload",
		Description: "Re-read the document from disk",
		Usage:       "/reload [force]",
		Args:        []ArgDef{{Name: "force", Type: ArgTypeEnum, Values: []string{"force"}, Description: "Discard unsaved edits"}},
		Category:    "Document",
		Handler:     handleReload,
	})

	// General
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Usage:       "/help [command]",
		Category:    "General",
		Handler:     handleHelp,
	})

	r.Register(&Command{
		Name:        "/status",
		Description: "Show session status",
		Category:    "General",
		Handler:     handleStatus,
	})

	r.Register(&Command{
		Name:        "/config",
		Description: "Show configuration values",
		Usage:       "/config [key]",
		Args:        []ArgDef{{Name: "key", Type: ArgTypeConfig, Description: "Config key"}},
		Category:    "General",
		Handler:     handleConfig,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit (refuses with unsaved edits)",
		Category:    "General",
		Handler:     handleQuit,
	})

	r.Register(&Command{
		Name:        "/quit!",
		Aliases:     []string{"/q!"},
		Description: "Exit discarding unsaved edits",
		Category:    "General",
		Hidden:      true,
		Handler:     handleForceQuit,
	})
}
