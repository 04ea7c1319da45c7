package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/golangfem/inpdeck/internal/boundary"
	"github.com/golangfem/inpdeck/model"
)

func (c *cli) newStepsCmd() *cobra.Command {
	var changes bool
	cmd := &cobra.Command{
		Use:   "steps FILE",
		Short: "Print each Step's boundary state",
		Long: `Print the constrained dofs in effect during each Step, one
"instance node dof value" line per dof. With --changes only the dofs that
differ from the previous Step are listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			m, err := c.load(cmd.Context(), cmd, path)
			if err != nil {
				return fail(cmd, path, err)
			}
			printSteps(cmd.OutOrStdout(), m, changes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&changes, "changes", false, "list only dofs changed from the previous step")
	return cmd
}

func printSteps(w io.Writer, m *model.Model, changes bool) {
	prev := m.InitialBoundaryState()
	fmt.Fprintf(w, "initial (%d dofs)\n", prev.Len())
	if !changes {
		printState(w, prev)
	}
	for _, st := range m.Steps() {
		cur := st.BoundaryState()
		fmt.Fprintf(w, "step %s (%d dofs)\n", st.Name(), cur.Len())
		if !changes {
			printState(w, cur)
			continue
		}
		for _, ch := range boundary.Diff(prev, cur) {
			k := ch.Key
			switch {
			case ch.Added:
				fmt.Fprintf(w, "  + %s %d %d %g\n", k.Instance, k.Node, k.Dof, ch.New)
			case ch.Removed:
				fmt.Fprintf(w, "  - %s %d %d %g\n", k.Instance, k.Node, k.Dof, ch.Old)
			default:
				fmt.Fprintf(w, "  ~ %s %d %d %g -> %g\n", k.Instance, k.Node, k.Dof, ch.Old, ch.New)
			}
		}
		prev = cur
	}
}

func printState(w io.Writer, st *model.BoundaryState) {
	for _, e := range st.Entries() {
		fmt.Fprintf(w, "  %s %d %d %g\n", e.Instance, e.Node, e.Dof, e.Value)
	}
}
