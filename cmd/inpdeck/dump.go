package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/golangfem/inpdeck"
	"github.com/golangfem/inpdeck/cmd/internal/cliutil"
)

func (c *cli) newDumpCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the resolved model as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}
			path := args[0]
			m, err := c.load(cmd.Context(), cmd, path)
			if err != nil {
				return fail(cmd, path, err)
			}
			w, closeFn, err := cliutil.GetOutput(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeFn()
			doc := inpdeck.Dump(m)
			if format == "yaml" {
				return doc.WriteYAML(w)
			}
			return doc.WriteJSON(w)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
