// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnknownCommand is returned for a slash command that is not registered.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUsage is returned when a command gets the wrong arguments.
	ErrUsage = errors.New("usage")
)

// UnknownCommandError names the command that was not found.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %s", e.Name)
}

// Unwrap returns ErrUnknownCommand.
func (e *UnknownCommandError) Unwrap() error {
	return ErrUnknownCommand
}

func usageError(cmd *Command) error {
	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}
	return fmt.Errorf("%w: %s", ErrUsage, usage)
}

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing user input.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the matched command (nil if not found)
	Command *Command

	// CommandName is the raw command name (e.g., "/next")
	CommandName string

	// Args are the parsed arguments
	Args []string

	// RawInput is the original input string, trimmed
	RawInput string

	// RawArgs is the unparsed arguments portion
	RawArgs string

	// Error if the arguments could not be split
	Error error
}

// =============================================================================
// PARSER
// =============================================================================

// Parser handles parsing of slash commands and their arguments.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses user input. Input not starting with / is action text and
// returns IsCommand=false.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	result := ParseResult{RawInput: input}

	if !strings.HasPrefix(input, "/") {
		return result
	}
	result.IsCommand = true

	name, rest, _ := strings.Cut(input, " ")
	result.CommandName = name
	result.RawArgs = strings.TrimSpace(rest)
	result.Command = p.registry.Get(name)

	if result.RawArgs != "" {
		args, err := ParseArgs(result.RawArgs)
		if err != nil {
			result.Error = err
		}
		result.Args = args
	}
	return result
}

// ParseArgs splits a raw argument string with shell quoting rules.
func ParseArgs(input string) ([]string, error) {
	args, err := shellquote.Split(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return args, nil
}

// =============================================================================
// EXECUTION
// =============================================================================

// Execute runs one line of REPL input. A slash command runs its handler;
// anything else becomes the action text of the current record.
func Execute(ctx *Context, input string) error {
	result := NewParser(ctx.Registry).Parse(input)
	if result.RawInput == "" {
		return nil
	}
	ctx.RecordActivity()

	if !result.IsCommand {
		return handleActionText(ctx, result.RawInput)
	}
	if result.Command == nil {
		return &UnknownCommandError{Name: result.CommandName}
	}

	args := result.Args
	if result.Command.RawArgs {
		args = nil
		if result.RawArgs != "" {
			args = []string{result.RawArgs}
		}
	} else if result.Error != nil {
		return result.Error
	}
	for i, arg := range result.Command.Args {
		if arg.Required && i >= len(args) {
			return usageError(result.Command)
		}
	}
	return result.Command.Handler(ctx, args)
}
