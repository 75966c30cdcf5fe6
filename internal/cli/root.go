// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/cvetriage/internal/config"
	"github.com/jeranaias/cvetriage/internal/logging"
	"github.com/jeranaias/cvetriage/internal/session"
	"github.com/jeranaias/cvetriage/internal/ui/styles"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// skipConfig marks commands that run without loading the configuration.
const skipConfig = "skip-config"

// =============================================================================
// APPLICATION STATE
// =============================================================================

// app carries what the root command loads for its subcommands.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	theme  *styles.Theme

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// jsonReported is set once an error was written as a JSON response
	jsonReported bool
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:     in,
		out:    out,
		errOut: errOut,
		cfg:    config.Default(),
		logger: zap.NewNop(),
		theme:  styles.NewTheme(styles.ColorNever),
	}
}

// load reads the configuration and builds the logger.
func (a *app) load() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return &ConfigError{Path: a.configPath, Err: err}
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Verbose: a.verbose,
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
	})
	if err != nil {
		return &ConfigError{Path: a.configPath, Err: err}
	}
	a.logger = logger

	mode := colorMode(cfg.UI.Color)
	applyColorMode(mode)
	a.theme = styles.NewTheme(mode)
	return nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// openDocument opens a session on an existing document.
func (a *app) openDocument(path string, watch bool) (*session.Session, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Resource: "document", ID: path}
		}
		return nil, err
	}
	return session.New(session.Options{
		Config: a.cfg,
		Path:   path,
		Logger: a.logger,
		Watch:  watch,
	})
}

// signalContext is cancelled on interrupt or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cvetriage",
		Short: "Triage CVE records in a plain text worklist",
		Long: `cvetriage edits a triage document: a text file where each CVE identifier
line starts a record and the text after the identifier is its action
(add, edit, ignore, skip or unembargo).

Run "cvetriage edit FILE" for the interactive editor, or use the other
commands to inspect a document from scripts.`,
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfig] != "" {
				return nil
			}
			return a.load()
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: ~/.cvetriage/config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newEditCommand(a),
		newBlocksCommand(a),
		newCheckCommand(a),
		newCompleteCommand(a),
		newSuggestCommand(a),
		newSearchCommand(a),
		newShowCommand(a),
		newConfigCommand(a),
		newCommandsCommand(a),
		newVersionCommand(a),
	)
	return root
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "cvetriage %s (commit %s, built %s, %s/%s)\n",
				Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

// Execute runs the command line and returns the exit code.
func Execute(args []string) int {
	return run(args, os.Stdin, os.Stdout, os.Stderr)
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	a := newApp(in, out, errOut)
	defer a.close()

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	root := newRootCommand(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	if !a.jsonReported {
		DisplayError(errOut, err, false)
		if _, _, findErr := root.Find(args); findErr != nil && len(args) > 0 {
			if hint := didYouMean(args[0], commandNames(root)); hint != "" {
				fmt.Fprintln(errOut, hint)
			}
		}
	}
	return GetExitCode(err)
}

func commandNames(root *cobra.Command) []string {
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
		names = append(names, c.Aliases...)
	}
	return names
}
