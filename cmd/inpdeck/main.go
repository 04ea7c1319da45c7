// Command inpdeck loads, checks and exports finite-element input decks.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/golangfem/inpdeck"
	"github.com/golangfem/inpdeck/cmd/internal/cliutil"
	"github.com/golangfem/inpdeck/model"
)

// cli holds the global flags shared by every subcommand.
type cli struct {
	strict     bool
	configPath string
	dialect    string
	workers    int
	verbose    int
	trace      bool
	timeout    time.Duration
}

// exitError carries a process exit code out of a RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err == nil {
		return cliutil.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	cliutil.PrintError(stderr, "%v", err)
	return cliutil.ExitError
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "inpdeck",
		Short:         "Finite-element input deck parser and checker",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  inpdeck load block.inp
  inpdeck load --strict --stats block.inp
  inpdeck dump --format yaml block.inp
  inpdeck steps block.inp
  inpdeck lint --config inpdeck.yaml block.inp
  inpdeck watch block.inp`,
	}
	pf := root.PersistentFlags()
	pf.BoolVar(&c.strict, "strict", false, "fail on unknown keywords and error diagnostics")
	pf.StringVar(&c.configPath, "config", "", "YAML config file")
	pf.StringVar(&c.dialect, "dialect", "", "deck dialect: inp or bdf (default from file extension)")
	pf.IntVar(&c.workers, "workers", 0, "parallel Part validation workers (<=1 validates inline)")
	pf.CountVarP(&c.verbose, "verbose", "v", "enable debug logging (repeat for trace)")
	pf.BoolVar(&c.trace, "trace", false, "enable trace logging")
	pf.DurationVar(&c.timeout, "timeout", 0, "abort loading after this duration (0 disables)")

	root.AddCommand(
		c.newLoadCmd(),
		c.newDumpCmd(),
		c.newStepsCmd(),
		c.newLintCmd(),
		c.newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

// options builds load options from the global flags. Flags override the
// config file. Log records go to logw.
func (c *cli) options(logw io.Writer, extra ...inpdeck.LoadOption) ([]inpdeck.LoadOption, error) {
	var opts []inpdeck.LoadOption
	if c.configPath != "" {
		cfg, err := inpdeck.LoadConfig(c.configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, inpdeck.WithConfig(cfg))
	}
	if c.strict {
		opts = append(opts, inpdeck.WithStrict())
	}
	if c.dialect != "" {
		opts = append(opts, inpdeck.WithDialect(c.dialect))
	}
	if c.workers > 0 {
		opts = append(opts, inpdeck.WithWorkers(c.workers))
	}
	verbose := c.verbose
	if c.trace {
		verbose = 2
	}
	if logger := cliutil.NewLogger(logw, verbose); logger != nil {
		opts = append(opts, inpdeck.WithLogger(logger))
	}
	return append(opts, extra...), nil
}

// load parses and resolves path with the global flags applied, logging to
// the command's error stream.
func (c *cli) load(ctx context.Context, cmd *cobra.Command, path string, extra ...inpdeck.LoadOption) (*model.Model, error) {
	opts, err := c.options(cmd.ErrOrStderr(), extra...)
	if err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return inpdeck.Load(ctx, append(opts, inpdeck.WithFile(path))...)
}

// fail reports a load error and converts it to an exit code.
func fail(cmd *cobra.Command, source string, err error) error {
	cliutil.ReportError(cmd.ErrOrStderr(), source, err)
	return &exitError{code: cliutil.ExitCode(err)}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version := "(devel)"
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
				version = info.Main.Version
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inpdeck %s\n", version)
		},
	}
}
