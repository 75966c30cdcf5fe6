// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for the cvetriage commands.
//
// Commands always return errors; Execute displays them once and maps them to
// an exit code.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/cvetriage/internal/commands"
	"github.com/jeranaias/cvetriage/internal/config"
	"github.com/jeranaias/cvetriage/internal/document"
	"github.com/jeranaias/cvetriage/internal/tools"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitFlaggedError indicates check found flagged values
	ExitFlaggedError = 4
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "search")
	Action  string // Action being performed (e.g., "open")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "tool", "record")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigError wraps a failure to load or validate the configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FlaggedError is returned by check when the document has flagged values.
type FlaggedError struct {
	Count int
}

func (e *FlaggedError) Error() string {
	return fmt.Sprintf("%d flagged value(s)", e.Count)
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{
		Command: command,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Reason:  reason,
		Example: example,
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes an error in a consistent format. In JSON mode the
// error is written as a JSON object.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		displayErrorJSON(w, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

func displayErrorJSON(w io.Writer, err error) {
	output := map[string]interface{}{
		"error":   err.Error(),
		"success": false,
	}

	var (
		cmdErr *CommandError
		valErr *ValidationError
		nfErr  *NotFoundError
		cfgErr *ConfigError
	)
	switch {
	case errors.As(err, &cmdErr):
		output["error_type"] = "command_error"
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
		output["reason"] = cmdErr.Reason
	case errors.As(err, &valErr):
		output["error_type"] = "validation_error"
		output["field"] = valErr.Field
		output["value"] = valErr.Value
	case errors.As(err, &nfErr):
		output["error_type"] = "not_found_error"
		output["resource"] = nfErr.Resource
		output["id"] = nfErr.ID
	case errors.As(err, &cfgErr):
		output["error_type"] = "config_error"
	default:
		output["error_type"] = "generic_error"
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output)
}

// GetExitCode determines the appropriate exit code for an error:
//   - ExitUsageError (2): ValidationError, bad REPL usage, cobra flag errors
//   - ExitConfigError (3): ConfigError, config validation
//   - ExitFlaggedError (4): FlaggedError
//   - ExitNotFoundError (7): NotFoundError, unknown tool, missing record
//   - ExitGeneralError (1): all other errors
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) || errors.Is(err, commands.ErrUsage) {
		return ExitUsageError
	}

	var configErr *ConfigError
	var validateErrs config.ValidateErrors
	if errors.As(err, &configErr) || errors.As(err, &validateErrs) {
		return ExitConfigError
	}

	var flagged *FlaggedError
	if errors.As(err, &flagged) {
		return ExitFlaggedError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) ||
		errors.Is(err, tools.ErrUnknownTool) ||
		errors.Is(err, document.ErrNoRecordFound) ||
		errors.Is(err, os.ErrNotExist) {
		return ExitNotFoundError
	}

	// cobra reports flag and argument problems as plain errors
	errMsg := err.Error()
	if strings.HasPrefix(errMsg, "unknown command") ||
		strings.HasPrefix(errMsg, "unknown flag") ||
		strings.HasPrefix(errMsg, "unknown shorthand flag") ||
		strings.Contains(errMsg, "arg(s), received") ||
		strings.Contains(errMsg, "flag needs an argument") ||
		strings.HasPrefix(errMsg, "invalid argument") {
		return ExitUsageError
	}

	return ExitGeneralError
}
