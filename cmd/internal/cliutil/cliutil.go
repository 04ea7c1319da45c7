// Package cliutil provides shared CLI utilities for inpdeck command-line tools.
package cliutil

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golangfem/inpdeck"
	"github.com/golangfem/inpdeck/model"
)

// Exit codes.
const (
	ExitOK              = 0 // success
	ExitError           = 1 // user error or deck failure
	ExitStrictViolation = 2 // diagnostics reached the failure threshold
)

// GetOutput opens the output file or returns stdout.
func GetOutput(outputFile string, stdout io.Writer) (io.Writer, func(), error) {
	if outputFile == "" || outputFile == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// PrintError writes a formatted error message to w.
func PrintError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "error: "+format+"\n", args...)
}

// NewLogger returns a stderr text logger for the verbosity level, or nil
// when verbose is 0. Level 1 is debug, 2 and above is trace.
func NewLogger(w io.Writer, verbose int) *slog.Logger {
	if verbose <= 0 {
		return nil
	}
	level := slog.LevelDebug
	if verbose >= 2 {
		level = inpdeck.LevelTrace
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// PrintDiagnostics writes one diagnostic per line prefixed with the source
// name.
func PrintDiagnostics(w io.Writer, source string, diags []model.Diagnostic) {
	for _, d := range diags {
		if d.Line > 0 {
			fmt.Fprintf(w, "%s:%d: %s: %s [%s]\n", source, d.Line, d.Severity, d.Message, d.Code)
		} else {
			fmt.Fprintf(w, "%s: %s: %s [%s]\n", source, d.Severity, d.Message, d.Code)
		}
	}
}

// ExitCode maps a load error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var de *model.DiagnosticsError
	if errors.As(err, &de) {
		return ExitStrictViolation
	}
	return ExitError
}

// ReportError prints a load error, expanding the diagnostics of a
// DiagnosticsError.
func ReportError(w io.Writer, source string, err error) {
	var de *model.DiagnosticsError
	if errors.As(err, &de) {
		PrintDiagnostics(w, source, de.Diagnostics)
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
