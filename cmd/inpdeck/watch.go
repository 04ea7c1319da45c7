package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/golangfem/inpdeck/cmd/internal/cliutil"
)

// settle is how long the watcher waits after the last event before
// reloading, so a burst of writes triggers one load.
const settle = 150 * time.Millisecond

func (c *cli) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Reload a deck whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return c.watch(ctx, cmd, args[0])
		},
	}
}

func (c *cli) watch(ctx context.Context, cmd *cobra.Command, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// Watch the directory: editors often replace the file by rename.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	reload := func() {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "--- %s\n", time.Now().Format(time.TimeOnly))
		m, err := c.load(ctx, cmd, path)
		if err != nil {
			cliutil.ReportError(out, path, err)
			return
		}
		printSummary(out, path, m)
		cliutil.PrintDiagnostics(out, path, m.Diagnostics())
	}
	reload()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			cliutil.PrintError(cmd.ErrOrStderr(), "watch: %v", err)
		}
	}
}
