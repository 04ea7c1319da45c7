package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/golangfem/inpdeck"
	"github.com/golangfem/inpdeck/cmd/internal/cliutil"
	"github.com/golangfem/inpdeck/model"
)

type lintDiagnostic struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
}

func (c *cli) newLintCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "lint FILE",
		Short: "Parse leniently and list diagnostics",
		Long: `Parse the deck in lenient mode and list every diagnostic. The exit
status is non-zero when any diagnostic is error severity or worse.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
			path := args[0]
			var diags []model.Diagnostic
			m, err := c.load(cmd.Context(), cmd, path, inpdeck.WithLenient())
			var de *model.DiagnosticsError
			switch {
			case errors.As(err, &de):
				diags = de.Diagnostics
			case err != nil:
				return fail(cmd, path, err)
			default:
				diags = m.Diagnostics()
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				list := make([]lintDiagnostic, 0, len(diags))
				for _, d := range diags {
					list = append(list, lintDiagnostic{
						Severity: d.Severity.String(), Code: d.Code, Line: d.Line, Message: d.Message,
					})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(list); err != nil {
					return err
				}
			} else {
				cliutil.PrintDiagnostics(out, path, diags)
			}

			for _, d := range diags {
				if d.Severity.AtLeast(model.SeverityError) {
					return &exitError{code: cliutil.ExitError}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}
