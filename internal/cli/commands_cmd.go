// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/cvetriage/internal/commands"
)

// commandReference renders the editor commands as markdown.
func commandReference(registry *commands.Registry) string {
	var b strings.Builder
	b.WriteString("# Editor commands\n\n")
	b.WriteString("Plain input sets the action of the current record: `add PRIORITY PACKAGES...`, ")
	b.WriteString("`edit PRIORITY PACKAGES...`, `ignore REASON`, `skip` or `unembargo`.\n")

	groups := registry.ByCategory()
	for _, category := range commands.Categories() {
		cmds := groups[category]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", category)
		for _, cmd := range cmds {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			fmt.Fprintf(&b, "- `%s` %s", usage, cmd.Description)
			if len(cmd.Aliases) > 0 {
				fmt.Fprintf(&b, " (aliases: %s)", strings.Join(cmd.Aliases, ", "))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderMarkdown renders markdown for the terminal; plain text is returned
// when the renderer is unavailable.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

func newCommandsCommand(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:         "commands",
		Short:       "List the commands of the interactive editor",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := commandReference(commands.NewRegistry())
			if raw || !IsStdoutTTY() {
				fmt.Fprint(a.out, ref)
				return nil
			}
			fmt.Fprint(a.out, renderMarkdown(ref, GetTerminalWidth()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "markdown", false, "Print the markdown source")
	return cmd
}
