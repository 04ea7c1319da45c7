package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/golangfem/inpdeck/cmd/internal/cliutil"
	"github.com/golangfem/inpdeck/model"
)

func (c *cli) newLoadCmd() *cobra.Command {
	var stats bool
	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Parse and resolve a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			m, err := c.load(cmd.Context(), cmd, path)
			if err != nil {
				return fail(cmd, path, err)
			}
			out := cmd.OutOrStdout()
			printSummary(out, path, m)
			if stats {
				printStats(out, m)
			}
			cliutil.PrintDiagnostics(cmd.ErrOrStderr(), path, m.Diagnostics())
			return nil
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "print per-Part and per-Step counts")
	return cmd
}

func printSummary(w io.Writer, path string, m *model.Model) {
	instances := 0
	if asm := m.Assembly(); asm != nil {
		instances = len(asm.Instances())
	}
	fmt.Fprintf(w, "%s: %d parts, %d materials, %d instances, %d steps, %d diagnostics\n",
		path, len(m.Parts()), len(m.Materials()), instances, len(m.Steps()), len(m.Diagnostics()))
}

func printStats(w io.Writer, m *model.Model) {
	for _, p := range m.Parts() {
		fmt.Fprintf(w, "  part %-20s nodes=%d elements=%d nsets=%d elsets=%d sections=%d\n",
			p.Name(), p.NodeCount(), p.ElementCount(), len(p.Nsets()), len(p.Elsets()), len(p.Sections()))
	}
	fmt.Fprintf(w, "  %-25s constrained=%d\n", "initial", m.InitialBoundaryState().Len())
	for _, st := range m.Steps() {
		fmt.Fprintf(w, "  step %-20s directives=%d constrained=%d outputs=%d\n",
			st.Name(), len(st.Boundaries()), st.BoundaryState().Len(), len(st.Outputs()))
	}
}
