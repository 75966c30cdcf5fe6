// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/cvetriage/internal/commands"
	"github.com/jeranaias/cvetriage/internal/document"
	"github.com/jeranaias/cvetriage/internal/session"
	"github.com/jeranaias/cvetriage/internal/suggest"
	"github.com/jeranaias/cvetriage/internal/ui/highlight"
	"github.com/jeranaias/cvetriage/internal/ui/pager"
	"github.com/jeranaias/cvetriage/internal/util"
)

// withDocument opens FILE, runs fn and closes the session.
func (a *app) withDocument(ctx context.Context, path string, fn func(s *session.Session) error) error {
	s, err := a.openDocument(path, false)
	if err != nil {
		return err
	}
	defer s.Close(ctx)
	return fn(s)
}

// jsonOutput writes data or err as a JSON response.
func (a *app) jsonOutput(command string, handler func() (interface{}, error), render func(data interface{}) error, jsonMode bool) error {
	err := OutputJSON(a.out, jsonMode, command, handler, render)
	if err != nil && jsonMode {
		a.jsonReported = true
	}
	return err
}

func offsetFlag(cmd *cobra.Command, offset int, doc *document.Document) (int, error) {
	if !cmd.Flags().Changed("offset") {
		return doc.Len(), nil
	}
	if offset < 0 || offset > doc.Len() {
		return 0, NewValidationErrorWithExample("offset", strconv.Itoa(offset),
			fmt.Sprintf("must be within [0, %d]", doc.Len()), "--offset 42")
	}
	return offset, nil
}

// =============================================================================
// BLOCKS
// =============================================================================

type blockInfo struct {
	ID     string `json:"id"`
	Line   int    `json:"line"`
	Action string `json:"action"`
	Text   string `json:"text"`
	Flags  int    `json:"flags"`
}

func listBlocks(doc *document.Document) []blockInfo {
	flagsPerLine := make(map[int]int)
	for _, f := range doc.Flags() {
		flagsPerLine[f.Line]++
	}

	blocks := doc.Blocks()
	out := make([]blockInfo, 0, len(blocks))
	for _, b := range blocks {
		a, _ := doc.ActionLineAtLine(b.StartLine)
		info := blockInfo{ID: b.ID, Line: b.StartLine + 1, Action: a.Kind.String(), Text: a.Text}
		for l := b.StartLine; l < b.EndLine; l++ {
			info.Flags += flagsPerLine[l]
		}
		out = append(out, info)
	}
	return out
}

func newBlocksCommand(a *app) *cobra.Command {
	var jsonMode bool
	cmd := &cobra.Command{
		Use:   "blocks FILE",
		Short: "List the CVE records of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.jsonOutput("blocks", func() (interface{}, error) {
				var blocks []blockInfo
				err := a.withDocument(cmd.Context(), args[0], func(s *session.Session) error {
					blocks = listBlocks(s.Document())
					return nil
				})
				return blocks, err
			}, func(data interface{}) error {
				width := GetTerminalWidth()
				for _, b := range data.([]blockInfo) {
					marker := " "
					if b.Flags > 0 {
						marker = ErrorStyle.Render("!")
					}
					fmt.Fprintf(a.out, "%s %s %5d  %s\n", marker, util.PadRight(b.ID, 16), b.Line,
						util.Truncate(b.Text, width-26))
				}
				return nil
			}, jsonMode)
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Output in JSON format")
	return cmd
}

// =============================================================================
// CHECK
// =============================================================================

type flagInfo struct {
	Line     int    `json:"line"`
	Offset   int    `json:"offset"`
	Category string `json:"category"`
	Value    string `json:"value"`
	ID       string `json:"id,omitempty"`
}

func listFlags(doc *document.Document) []flagInfo {
	flags := doc.Flags()
	out := make([]flagInfo, 0, len(flags))
	for _, f := range flags {
		info := flagInfo{Line: f.Line + 1, Offset: f.Offset, Category: f.Err.Error(), Value: f.Value}
		if b, err := doc.BlockAt(f.Offset); err == nil {
			info.ID = b.ID
		}
		out = append(out, info)
	}
	return out
}

func newCheckCommand(a *app) *cobra.Command {
	var jsonMode bool
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Report flagged values (skip, untriaged, unknown priorities and actions)",
		Long: `Report every representable but invalid value in the document. Flagged
values stay in the document; check exits with status 4 when there are any.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var flags []flagInfo
			err := a.jsonOutput("check", func() (interface{}, error) {
				err := a.withDocument(cmd.Context(), args[0], func(s *session.Session) error {
					flags = listFlags(s.Document())
					return nil
				})
				return flags, err
			}, func(interface{}) error {
				if len(flags) == 0 {
					fmt.Fprintln(a.out, SuccessStyle.Render("no flagged values"))
					return nil
				}
				for _, f := range flags {
					fmt.Fprintf(a.out, "%s:%d: %s %s: %q\n", args[0], f.Line, f.ID, f.Category, f.Value)
				}
				return nil
			}, jsonMode)
			if err != nil {
				return err
			}
			if len(flags) > 0 {
				if jsonMode {
					// The response already lists them.
					a.jsonReported = true
				}
				return &FlaggedError{Count: len(flags)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Output in JSON format")
	return cmd
}

// =============================================================================
// COMPLETE
// =============================================================================

type completionInfo struct {
	Kind       string   `json:"kind"`
	Partial    string   `json:"partial"`
	Start      int      `json:"start"`
	Candidates []string `json:"candidates"`
}

func newCompleteCommand(a *app) *cobra.Command {
	var (
		offset   int
		jsonMode bool
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "complete FILE",
		Short: "Print the completion candidates at an offset",
		Long: `Resolve the completion context of the action line at --offset (default:
end of file) and print the matching candidates, one per line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.jsonOutput("complete", func() (interface{}, error) {
				var info completionInfo
				err := a.withDocument(cmd.Context(), args[0], func(s *session.Session) error {
					doc := s.Document()
					at, err := offsetFlag(cmd, offset, doc)
					if err != nil {
						return err
					}
					set, err := commands.NewResolver(s).ContextAt(cmd.Context(), doc, at)
					if err != nil {
						return err
					}
					candidates := commands.FilterCandidates(set.Candidates, set.Partial)
					if all {
						candidates = set.Candidates
					}
					info = completionInfo{
						Kind:       set.Kind.String(),
						Partial:    set.Partial,
						Start:      set.Start,
						Candidates: candidates,
					}
					return nil
				})
				return info, err
			}, func(data interface{}) error {
				for _, c := range data.(completionInfo).Candidates {
					fmt.Fprintln(a.out, c)
				}
				return nil
			}, jsonMode)
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "Byte offset of the cursor")
	cmd.Flags().BoolVar(&all, "all", false, "Print the whole candidate set, not only matches")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Output in JSON format")
	return cmd
}

// =============================================================================
// SUGGEST
// =============================================================================

func newSuggestCommand(a *app) *cobra.Command {
	var (
		offset   int
		jsonMode bool
		ignore   bool
	)
	cmd := &cobra.Command{
		Use:   "suggest FILE",
		Short: "Print suggestions mined from the record at an offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.jsonOutput("suggest", func() (interface{}, error) {
				var names []string
				err := a.withDocument(cmd.Context(), args[0], func(s *session.Session) error {
					doc := s.Document()
					at, err := offsetFlag(cmd, offset, doc)
					if err != nil {
						return err
					}
					if names, err = suggest.SuggestedNames(doc, at); err != nil {
						return err
					}
					if ignore {
						names = suggest.IgnoreCandidates(names, s.History().Snapshot())
					}
					return nil
				})
				return names, err
			}, func(data interface{}) error {
				fmt.Fprintln(a.out, strings.Join(data.([]string), "\n"))
				return nil
			}, jsonMode)
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "Byte offset of the cursor")
	cmd.Flags().BoolVar(&ignore, "ignore", false, "Merge recorded ignore reasons")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Output in JSON format")
	return cmd
}

// =============================================================================
// SHOW
// =============================================================================

func newShowCommand(a *app) *cobra.Command {
	var (
		usePager bool
		watch    bool
	)
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Render a document with highlighting",
		Long: `Render the document with CVE identifiers, actions, priorities and packages
highlighted and flagged values marked. With --pager the document is shown
full screen; --watch keeps the pager in sync with changes on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openDocument(args[0], usePager && watch)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			h := highlight.New(a.theme, a.cfg.UI.Style)
			render := func() string { return h.Render(s.Document()) }

			if !usePager {
				fmt.Fprint(a.out, render())
				return nil
			}
			if err := RequiresTTY("page output"); err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go followChanges(ctx, s)

			return pager.Run(pager.Options{
				Title:   args[0],
				Content: render,
				Live:    watch,
				Theme:   a.theme,
			}, a.in, a.out)
		},
	}
	cmd.Flags().BoolVar(&usePager, "pager", false, "Show in a full-screen pager")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload when the file changes (with --pager)")
	return cmd
}

// followChanges reloads the session document on disk changes until ctx is done.
func followChanges(ctx context.Context, s *session.Session) {
	changes := s.Changes()
	if changes == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if _, err := s.HandleChange(c); err != nil {
				s.Logger().Warn("reload failed", zap.Error(err))
			}
		}
	}
}
