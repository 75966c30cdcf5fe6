// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/cvetriage/internal/commands"
	"github.com/jeranaias/cvetriage/internal/config"
	"github.com/jeranaias/cvetriage/internal/document"
	"github.com/jeranaias/cvetriage/internal/session"
	"github.com/jeranaias/cvetriage/internal/ui/highlight"
	"github.com/jeranaias/cvetriage/internal/ui/pager"
)

// =============================================================================
// LINE EDITOR
// =============================================================================

// lineEditor provides input history and line editing for the triage REPL.
type lineEditor struct {
	line        *liner.State
	historyFile string
	words       liner.WordCompleter
}

func newLineEditor() *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	e := &lineEditor{
		line:        line,
		historyFile: filepath.Join(configDir, "edit_history"),
	}
	if f, err := os.Open(e.historyFile); err == nil {
		e.line.ReadHistory(f)
		f.Close()
	}
	return e
}

// readInput reads a line and adds non-empty input to the history.
func (e *lineEditor) readInput(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// complete wires a completer to the tab key.
func (e *lineEditor) complete(ctx context.Context, c *commands.Completer) {
	e.words = func(line string, pos int) (string, []string, string) {
		res := c.Complete(ctx, line, pos)
		if pos > len(line) {
			pos = len(line)
		}
		if res.Start > pos {
			res.Start = pos
		}
		return line[:res.Start], res.Values(), line[pos:]
	}
	e.line.SetWordCompleter(e.words)
}

// restore reinstates the command completer after a field prompt.
func (e *lineEditor) restore() {
	if e.words != nil {
		e.line.SetWordCompleter(e.words)
	}
}

func (e *lineEditor) close() {
	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			e.line.WriteHistory(f)
			f.Close()
		}
	}
	e.line.Close()
}

// =============================================================================
// PROMPTER
// =============================================================================

// linePrompter asks for missing add/edit fields on the terminal.
type linePrompter struct {
	editor *lineEditor
	out    io.Writer

	// packages lists the names offered by tab at the packages prompt
	packages func(ctx context.Context) ([]string, error)
	logger   *zap.Logger
}

func (p *linePrompter) Priority(ctx context.Context, id string, choices []document.Priority) (document.Priority, error) {
	names := make([]string, len(choices))
	for i, c := range choices {
		names[i] = string(c)
	}
	p.editor.line.SetCompleter(func(line string) []string {
		return commands.FilterCandidates(names, line)
	})
	defer p.editor.restore()

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		answer, err := p.editor.line.Prompt(fmt.Sprintf("%s priority [%s]: ", id, strings.Join(names, "/")))
		if err != nil {
			return "", err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return "", nil
		}
		for _, c := range choices {
			if string(c) == answer {
				return c, nil
			}
		}
		if matches := commands.FilterCandidates(names, answer); len(matches) == 1 {
			return document.Priority(matches[0]), nil
		}
		fmt.Fprintln(p.out, WarningStyle.Render(fmt.Sprintf("unknown priority %q", answer)))
	}
}

func (p *linePrompter) Packages(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string
	if p.packages != nil {
		var err error
		if names, err = p.packages(ctx); err != nil {
			p.logger.Warn("package completion unavailable", zap.Error(err))
		}
	}
	p.editor.line.SetWordCompleter(func(line string, pos int) (string, []string, string) {
		return completeLastWord(line, pos, names)
	})
	defer p.editor.restore()

	answer, err := p.editor.line.Prompt(id + " packages: ")
	if err != nil {
		return nil, err
	}
	return strings.Fields(answer), nil
}

// completeLastWord completes the word ending at rune position pos against
// candidates, keeping the earlier words.
func completeLastWord(line string, pos int, candidates []string) (string, []string, string) {
	runes := []rune(line)
	if pos > len(runes) {
		pos = len(runes)
	}
	before := string(runes[:pos])
	start := strings.LastIndexByte(before, ' ') + 1
	return before[:start], commands.FilterCandidates(candidates, before[start:]), string(runes[pos:])
}

// =============================================================================
// EDIT COMMAND
// =============================================================================

func newEditCommand(a *app) *cobra.Command {
	var (
		noStore bool
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:     "edit FILE",
		Aliases: []string{"triage"},
		Short:   "Triage a document interactively",
		Long: `Open FILE in the interactive triage editor. A missing file is created.

Plain input becomes the action of the current record, for example
"add medium openssl" or "ignore not packaged". Commands start with a
slash: /next, /prev, /search grep-doc, /write. Tab completes commands,
actions, priorities, packages and ignore reasons. Run /help for the full
command list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := RequiresTTY("edit"); err != nil {
				return err
			}
			s, err := session.New(session.Options{
				Config:  a.cfg,
				Path:    args[0],
				Logger:  a.logger,
				NoStore: noStore,
				Watch:   !noWatch,
			})
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := s.Close(closeCtx); err != nil {
					a.logger.Warn("session close failed", zap.Error(err))
				}
			}()
			return a.repl(cmd.Context(), s)
		},
	}
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not open the history database")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the file when it changes on disk")
	return cmd
}

// repl runs the triage loop until a quit command, Ctrl+C or EOF.
func (a *app) repl(ctx context.Context, s *session.Session) error {
	editor := newLineEditor()
	defer editor.close()

	hctx := commands.NewContext(ctx, s, a.out)
	hctx.Theme = a.theme
	hctx.Width = GetTerminalWidth()
	hctx.Highlighter = highlight.New(a.theme, a.cfg.UI.Style)
	hctx.Prompter = &linePrompter{editor: editor, out: a.out, packages: s.Names, logger: a.logger}
	hctx.Pager = func(title string, content func() string, live bool) error {
		return pager.Run(pager.Options{
			Title:   title,
			Content: content,
			Live:    live,
			Theme:   a.theme,
		}, a.in, a.out)
	}
	editor.complete(ctx, commands.ForContext(hctx))

	a.printBanner(s)

	for !hctx.Quit() {
		a.drainEvents(s)

		input, err := editor.readInput(a.prompt(s))
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed terminal
			fmt.Fprintln(a.out)
			if s.Buffer().Dirty() {
				fmt.Fprintln(a.out, WarningStyle.Render("unsaved changes discarded"))
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		if err := commands.Execute(hctx, strings.TrimSpace(input)); err != nil {
			a.printCommandError(hctx, err)
		}
	}
	return nil
}

func (a *app) printBanner(s *session.Session) {
	st := s.GetStatus()
	fmt.Fprintln(a.out, TitleStyle.Render("cvetriage "+Version))
	fmt.Fprintln(a.out, formatField("document ", st.Path))
	fmt.Fprintln(a.out, formatField("records  ", fmt.Sprintf("%d (%d flagged)", st.Blocks, st.Flags)))
	fmt.Fprintln(a.out, DimStyle.Render("/help for commands, tab to complete, Ctrl+D to leave"))
}

// prompt shows the current record and a marker for unsaved edits.
func (a *app) prompt(s *session.Session) string {
	label := "cvetriage"
	if b, err := s.Document().BlockAt(s.Buffer().Cursor()); err == nil {
		label = b.ID
	}
	if s.Buffer().Dirty() {
		label += "*"
	}
	return label + "> "
}

// drainEvents reports finished jobs and applies file changes that arrived
// while the prompt was open.
func (a *app) drainEvents(s *session.Session) {
	notifications := s.Tracker().Notifications()
	changes := s.Changes()
	for {
		select {
		case n := <-notifications:
			a.logger.Debug("job notification", zap.String("job", n.JobID), zap.String("tool", n.Tool))
		case c, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			outcome, err := s.HandleChange(c)
			switch {
			case err != nil:
				fmt.Fprintln(a.out, ErrorStyle.Render("reload failed: "+err.Error()))
			case outcome == session.ChangeReloaded:
				fmt.Fprintln(a.out, DimStyle.Render("reloaded "+c.Path))
			case outcome == session.ChangeConflict:
				fmt.Fprintln(a.out, WarningStyle.Render(c.Path+" changed on disk; /diff to review, /reload force to discard your edits"))
			case outcome == session.ChangeRemoved:
				fmt.Fprintln(a.out, WarningStyle.Render(c.Path+" was removed; /write to recreate it"))
			}
		default:
			return
		}
	}
}

func (a *app) printCommandError(hctx *commands.Context, err error) {
	fmt.Fprintf(a.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)

	var unknown *commands.UnknownCommandError
	if errors.As(err, &unknown) {
		if hint := didYouMean(unknown.Name, hctx.Registry.Names()); hint != "" {
			fmt.Fprintln(a.out, DimStyle.Render(hint))
		}
	}
}
