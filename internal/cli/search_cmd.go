// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/cvetriage/internal/session"
	"github.com/jeranaias/cvetriage/internal/tasks"
	"github.com/jeranaias/cvetriage/internal/tools"
	"github.com/jeranaias/cvetriage/internal/ui/pager"
)

func newSearchCommand(a *app) *cobra.Command {
	var (
		file     string
		offset   int
		timeout  time.Duration
		usePager bool
		list     bool
	)
	cmd := &cobra.Command{
		Use:   "search TOOL [KEYWORDS...]",
		Short: "Run a search tool and print its output",
		Long: `Dispatch TOOL with KEYWORDS and print its output surface when it finishes.

Without keywords the tool's keyword source supplies them from the record at
--offset in --file: the first mined suggestion, the record identifier, or its
packages. Use --list to see the configured tools.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				s   *session.Session
				err error
			)
			if file != "" {
				s, err = a.openDocument(file, false)
			} else {
				s, err = session.New(session.Options{Config: a.cfg, Logger: a.logger})
			}
			if err != nil {
				return err
			}
			defer s.Close(context.Background())

			if list {
				for _, d := range s.Dispatcher().Registry().All() {
					fmt.Fprintln(a.out, formatField(d.Name, d.Description))
				}
				return nil
			}

			if cmd.Flags().Changed("offset") {
				s.Buffer().SetCursor(offset)
			}

			tool := args[0]
			job, err := s.Dispatch(ctx, tool, args[1:])
			if err != nil {
				if errors.Is(err, tools.ErrUnknownTool) {
					if hint := didYouMean(tool, s.Dispatcher().Registry().Names()); hint != "" {
						err = fmt.Errorf("%w; %s", err, hint)
					}
				}
				return err
			}

			out, _ := s.Surfaces().Lookup(tool)
			render := func() string { return out.Render(a.theme) }

			if usePager {
				if err := RequiresTTY("page output"); err != nil {
					return err
				}
				if err := pager.Run(pager.Options{Title: tool, Content: render, Live: true, Theme: a.theme}, a.in, a.out); err != nil {
					return err
				}
				return jobError(tool, job)
			}

			waitCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				waitCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			if _, err := job.Wait(waitCtx); err != nil {
				return NewCommandError("search", tool, "interrupted", err)
			}
			fmt.Fprintln(a.out, strings.TrimRight(render(), "\n"))
			return jobError(tool, job)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Triage document supplying default keywords")
	cmd.Flags().IntVar(&offset, "offset", 0, "Byte offset of the cursor in --file")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up waiting after this long (0: no limit)")
	cmd.Flags().BoolVar(&usePager, "pager", false, "Show the output in a full-screen pager")
	cmd.Flags().BoolVar(&list, "list", false, "List the configured tools")
	return cmd
}

// jobError reports a tool that did not finish successfully.
func jobError(tool string, job *tasks.Job) error {
	res, ok := job.Result()
	if !ok || res.Success() {
		return nil
	}
	return NewCommandError("search", tool, tasks.StatusLine(tool, res), res.Err)
}
