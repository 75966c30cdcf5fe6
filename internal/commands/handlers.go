// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jeranaias/cvetriage/internal/document"
	"github.com/jeranaias/cvetriage/internal/edit"
	"github.com/jeranaias/cvetriage/internal/session"
	"github.com/jeranaias/cvetriage/internal/suggest"
	"github.com/jeranaias/cvetriage/internal/ui/highlight"
	"github.com/jeranaias/cvetriage/internal/ui/styles"
	"github.com/jeranaias/cvetriage/internal/util"
)

var (
	// ErrUnsavedChanges is returned by /quit and /reload with a dirty buffer.
	ErrUnsavedChanges = errors.New("unsaved changes (/write to save, /quit! to discard)")

	// ErrNoAddLine is returned by /prio when the record has no add or edit line.
	ErrNoAddLine = errors.New("no add or edit line")
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// PagerFunc shows content full screen. live content is re-read while shown.
type PagerFunc func(title string, content func() string, live bool) error

// Context provides access to session state for command handlers.
type Context struct {
	// Ctx bounds blocking work such as prompts and package listing
	Ctx context.Context

	// Session is the triage session
	Session *session.Session

	// Registry resolves commands
	Registry *Registry

	// Out receives command output
	Out io.Writer

	// Prompter supplies missing add/edit fields (optional)
	Prompter edit.Prompter

	// Theme styles surfaces and records
	Theme *styles.Theme

	// Highlighter renders records (optional)
	Highlighter *highlight.Highlighter

	// Pager shows surfaces full screen (optional; nil prints inline)
	Pager PagerFunc

	// Width is the terminal width used for columns
	Width int

	quit bool
}

// NewContext creates a handler context writing to out.
func NewContext(ctx context.Context, s *session.Session, out io.Writer) *Context {
	return &Context{
		Ctx:      ctx,
		Session:  s,
		Registry: NewRegistry(),
		Out:      out,
		Theme:    styles.NewTheme(styles.ColorNever),
		Width:    80,
	}
}

// RecordActivity records user activity in the session.
func (c *Context) RecordActivity() {
	if c.Session != nil {
		c.Session.RecordActivity()
	}
}

// Quit reports whether a quit command ran.
func (c *Context) Quit() bool {
	return c.quit
}

// Resolver returns a completion resolver over the session packages.
func (c *Context) Resolver() *Resolver {
	return NewResolver(c.Session)
}

func (c *Context) cursor() int {
	return c.Session.Buffer().Cursor()
}

func (c *Context) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

// printRecord shows the block at the cursor.
func (c *Context) printRecord() error {
	doc := c.Session.Document()
	b, err := doc.BlockAt(c.cursor())
	if err != nil {
		return err
	}
	text := strings.TrimRight(doc.Text()[b.Start:b.End], "\n")
	if c.Highlighter != nil {
		text = c.Highlighter.Render(document.Parse(text))
	}
	c.printf("%s\n", text)
	return nil
}

// =============================================================================
// NAVIGATION
// =============================================================================

func parseCount(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: count must be a number, got %q", ErrUsage, args[0])
	}
	return n, nil
}

func move(c *Context, args []string, dir edit.Direction) error {
	count, err := parseCount(args)
	if err != nil {
		return err
	}
	buf := c.Session.Buffer()
	offset, err := edit.Advance(buf.Document(), buf.Cursor(), count, dir)
	if err != nil {
		return err
	}
	buf.SetCursor(offset)
	return c.printRecord()
}

func handleNext(c *Context, args []string) error {
	return move(c, args, edit.Forward)
}

func handlePrev(c *Context, args []string) error {
	return move(c, args, edit.Backward)
}

func handleGoto(c *Context, args []string) error {
	doc := c.Session.Document()
	for _, b := range doc.Blocks() {
		if strings.EqualFold(b.ID, args[0]) {
			c.Session.Buffer().SetCursor(b.Start)
			return c.printRecord()
		}
	}
	return fmt.Errorf("%w: %s", document.ErrNoRecordFound, args[0])
}

func handleCurrent(c *Context, _ []string) error {
	return c.printRecord()
}

// =============================================================================
// TRIAGE
// =============================================================================

// handleActionText writes plain input as the action of the current record.
func handleActionText(c *Context, text string) error {
	buf := c.Session.Buffer()
	if err := edit.Modify(buf, buf.Cursor(), text); err != nil {
		return err
	}
	if a, ok := document.ParseLine(text); ok && a.Kind == document.ActionIgnore {
		c.Session.History().Add(document.Unquote(a.Reason))
	}
	return c.printRecord()
}

func addOrEdit(c *Context, args []string, kind document.ActionKind) error {
	var priority document.Priority
	var packages []string
	if len(args) > 0 {
		priority = document.Priority(args[0])
		packages = args[1:]
	}
	buf := c.Session.Buffer()
	if err := edit.AddOrEdit(c.Ctx, buf, buf.Cursor(), kind, priority, packages, c.Prompter); err != nil {
		return err
	}
	return c.printRecord()
}

func handleAdd(c *Context, args []string) error {
	return addOrEdit(c, args, document.ActionAdd)
}

func handleEdit(c *Context, args []string) error {
	return addOrEdit(c, args, document.ActionEdit)
}

func handleIgnore(c *Context, args []string) error {
	buf := c.Session.Buffer()
	if err := edit.Ignore(buf, buf.Cursor(), args[0], c.Session.History()); err != nil {
		return err
	}
	return c.printRecord()
}

func setAction(c *Context, text string) error {
	buf := c.Session.Buffer()
	if err := edit.Modify(buf, buf.Cursor(), text); err != nil {
		return err
	}
	return c.printRecord()
}

func handleSkip(c *Context, _ []string) error {
	return setAction(c, document.KeywordSkip)
}

func handleUnembargo(c *Context, _ []string) error {
	return setAction(c, document.KeywordUnembargo)
}

func handleSet(c *Context, args []string) error {
	text := ""
	if len(args) > 0 {
		text = args[0]
	}
	return setAction(c, text)
}

func handlePrio(c *Context, args []string) error {
	buf := c.Session.Buffer()
	doc := buf.Document()
	b, err := doc.BlockAt(buf.Cursor())
	if err != nil {
		return err
	}
	// Target the first add or edit line of the record.
	at := -1
	for _, a := range doc.Actions(b) {
		if a.Kind.HasPriority() {
			at = doc.LineStart(a.Line)
			break
		}
	}
	if at < 0 || !edit.SetPriority(buf, at, document.Priority(args[0])) {
		return fmt.Errorf("%w in %s", ErrNoAddLine, b.ID)
	}
	return c.printRecord()
}

func handleRepeat(c *Context, _ []string) error {
	buf := c.Session.Buffer()
	if err := edit.RepeatPrevious(buf, buf.Cursor()); err != nil {
		return err
	}
	return c.printRecord()
}

func handleSuggest(c *Context, args []string) error {
	names, err := suggest.SuggestedNames(c.Session.Document(), c.cursor())
	if err != nil {
		return err
	}
	if len(args) > 0 && args[0] == "ignore" {
		names = suggest.IgnoreCandidates(names, c.Session.History().Snapshot())
	}
	if len(names) == 0 {
		c.printf("no suggestions\n")
		return nil
	}
	for i, name := range names {
		c.printf("%3d  %s\n", i+1, name)
	}
	return nil
}

// =============================================================================
// TOOLS
// =============================================================================

func handleSearch(c *Context, args []string) error {
	job, err := c.Session.Dispatch(c.Ctx, args[0], args[1:])
	if err != nil {
		return err
	}
	if job.IsComplete() {
		return handleShow(c, args[:1])
	}
	c.printf("%s\n", c.Theme.Status.Render(job.Summary()))
	return nil
}

func handleShow(c *Context, args []string) error {
	out, ok := c.Session.Surfaces().Lookup(args[0])
	if !ok {
		return fmt.Errorf("no output for %q", args[0])
	}
	render := func() string { return out.Render(c.Theme) }
	if c.Pager != nil {
		return c.Pager(out.Name(), render, true)
	}
	c.printf("%s\n", strings.TrimRight(render(), "\n"))
	return nil
}

func handleTools(c *Context, _ []string) error {
	for _, d := range c.Session.Dispatcher().Registry().All() {
		kind := "command"
		if d.IsFunction() {
			kind = "function"
		}
		c.printf("%s  %-8s  %s\n", util.PadRight(d.Name, 12), kind, d.Description)
	}
	return nil
}

func handleJobs(c *Context, _ []string) error {
	jobs := c.Session.Tracker().All()
	if len(jobs) == 0 {
		c.printf("no jobs\n")
		return nil
	}
	for _, j := range jobs {
		c.printf("%s\n", j.Summary())
	}
	return nil
}

// =============================================================================
// DOCUMENT
// =============================================================================

func handleBlocks(c *Context, _ []string) error {
	doc := c.Session.Document()
	current, _ := doc.BlockAt(c.cursor())
	for _, b := range doc.Blocks() {
		marker := " "
		if b.Start == current.Start && b.ID == current.ID {
			marker = ">"
		}
		a, _ := doc.ActionLineAtLine(b.StartLine)
		c.printf("%s %s  %s\n", marker, util.PadRight(b.ID, 16), util.Truncate(a.Text, c.Width-20))
	}
	return nil
}

func handleCheck(c *Context, _ []string) error {
	flags := c.Session.Document().Flags()
	if len(flags) == 0 {
		c.printf("%s\n", styles.StatusIndicators.Success+" no flagged values")
		return nil
	}
	for _, f := range flags {
		c.printf("%s\n", f.Error())
	}
	return nil
}

func handleWrite(c *Context, args []string) error {
	buf := c.Session.Buffer()
	var err error
	if len(args) > 0 {
		err = buf.SaveAs(util.ExpandHome(args[0]))
	} else {
		err = c.Session.Save()
	}
	if err != nil {
		return err
	}
	c.printf("wrote %s\n", buf.Path())
	return nil
}

func handleDiff(c *Context, _ []string) error {
	d, err := c.Session.Diff()
	if err != nil {
		return err
	}
	if d.Empty() {
		c.printf("no unsaved changes\n")
		return nil
	}
	c.printf("%s%s\n", d.Unified(), d.Summary())
	return nil
}

func handleReload(c *Context, args []string) error {
	buf := c.Session.Buffer()
	if buf.Dirty() && (len(args) == 0 || args[0] != "force") {
		return ErrUnsavedChanges
	}
	if err := buf.Reload(); err != nil {
		return err
	}
	c.printf("reloaded %s\n", buf.Path())
	return nil
}

// =============================================================================
// GENERAL
// =============================================================================

func handleHelp(c *Context, args []string) error {
	if len(args) > 0 {
		name := args[0]
		if !strings.HasPrefix(name, "/") {
			name = "/" + name
		}
		cmd := c.Registry.Get(name)
		if cmd == nil {
			return &UnknownCommandError{Name: name}
		}
		c.printf("%s\n", HelpText(cmd))
		return nil
	}

	groups := c.Registry.ByCategory()
	for _, category := range categoryOrder {
		cmds := groups[category]
		if len(cmds) == 0 {
			continue
		}
		c.printf("%s\n", c.Theme.Header.Render(category))
		for _, cmd := range cmds {
			c.printf("  %s %s\n", util.PadRight(cmd.Name, 12), cmd.Description)
		}
	}
	c.printf("\nOther input is written as the action of the current record.\n")
	return nil
}

// HelpText returns the usage block of one command.
func HelpText(cmd *Command) string {
	var b strings.Builder
	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}
	fmt.Fprintf(&b, "%s\n  %s", usage, cmd.Description)
	if len(cmd.Aliases) > 0 {
		fmt.Fprintf(&b, "\n  aliases: %s", strings.Join(cmd.Aliases, ", "))
	}
	for _, arg := range cmd.Args {
		fmt.Fprintf(&b, "\n  %s: %s", arg.Name, arg.Description)
		if len(arg.Values) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(arg.Values, "|"))
		}
	}
	return b.String()
}

func handleStatus(c *Context, _ []string) error {
	st := c.Session.GetStatus()
	path := st.Path
	if path == "" {
		path = "(unsaved)"
	}
	if st.Dirty {
		path += " [modified]"
	}
	c.printf("document  %s\n", path)
	c.printf("records   %d (%d flagged)\n", st.Blocks, st.Flags)
	c.printf("reasons   %d\n", st.Reasons)
	c.printf("jobs      %d running\n", st.RunningJobs)
	c.printf("session   %s, %s\n", st.SessionID[:8], session.FormatDuration(st.Duration))
	return nil
}

func handleConfig(c *Context, args []string) error {
	cfg := c.Session.Config()
	if len(args) == 0 {
		c.printf("%s", cfg.String())
		return nil
	}
	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	c.printf("%s = %v\n", args[0], value)
	return nil
}

func handleQuit(c *Context, _ []string) error {
	if c.Session.Buffer().Dirty() {
		return ErrUnsavedChanges
	}
	c.quit = true
	return nil
}

func handleForceQuit(c *Context, _ []string) error {
	c.quit = true
	return nil
}
