package model

import (
	"fmt"
	"slices"
	"strings"
)

// Diagnostic is a non-fatal issue found while reading a deck.
type Diagnostic struct {
	Severity Severity
	Code     string // e.g. "unknown-keyword", "user-material-count"
	Message  string
	Keyword  string // keyword in effect, lower-cased
	Line     int    // 1-based line number, 0 if not applicable
}

// String returns "[severity] line N: message", omitting the location when unknown.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(d.Severity.String())
	b.WriteString("] ")
	if d.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", d.Line)
	}
	b.WriteString(d.Message)
	return b.String()
}

// Diagnostic codes emitted while reading a deck.
const (
	DiagUnknownKeyword    = "unknown-keyword"
	DiagUnknownParameter  = "unknown-parameter"
	DiagUserMaterialCount = "user-material-count"
	DiagEmptySet          = "empty-set"
	DiagUnusedMaterial    = "unused-material"
	DiagStepWithoutProc   = "step-without-procedure"
	DiagUnknownBCType     = "unknown-boundary-type"
)

// AllDiagnosticCodes lists every diagnostic code with the phase that emits it.
func AllDiagnosticCodes() []DiagCodeInfo {
	return []DiagCodeInfo{
		{Code: DiagUnknownKeyword, Phase: "deck"},
		{Code: DiagUnknownParameter, Phase: "deck"},
		{Code: DiagUserMaterialCount, Phase: "resolver"},
		{Code: DiagStepWithoutProc, Phase: "deck"},
		{Code: DiagUnknownBCType, Phase: "deck"},
		{Code: DiagEmptySet, Phase: "resolver"},
		{Code: DiagUnusedMaterial, Phase: "resolver"},
	}
}

// DiagCodeInfo describes a diagnostic code and the phase that emits it.
type DiagCodeInfo struct {
	Code  string
	Phase string
}

// DiagnosticConfig controls diagnostic filtering and failure thresholds.
type DiagnosticConfig struct {
	// FailAt sets the severity threshold for failure. Reported diagnostics
	// at or above it make Load fail. Zero value means fail on Fatal only.
	FailAt Severity

	// Overrides change severity for specific diagnostic codes.
	Overrides map[string]Severity

	// Ignore lists diagnostic codes to suppress entirely.
	// Supports a leading or trailing * (e.g. "unknown-*").
	Ignore []string
}

// DefaultDiagnosticConfig reports everything and fails on Fatal only.
func DefaultDiagnosticConfig() DiagnosticConfig {
	return DiagnosticConfig{FailAt: SeverityFatal}
}

// Severity returns the effective severity for code after overrides.
func (c DiagnosticConfig) Severity(code string, sev Severity) Severity {
	if override, ok := c.Overrides[code]; ok {
		return override
	}
	return sev
}

// ShouldReport returns false if code is ignored.
func (c DiagnosticConfig) ShouldReport(code string) bool {
	return !slices.ContainsFunc(c.Ignore, func(pattern string) bool {
		return MatchGlob(pattern, code)
	})
}

// ShouldFail returns true if a diagnostic with the given severity should
// cause loading to fail.
func (c DiagnosticConfig) ShouldFail(sev Severity) bool {
	return sev.AtLeast(c.FailAt)
}

// MatchGlob performs simple glob matching with * wildcard.
func MatchGlob(pattern, s string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(s, prefix)
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok {
		return strings.HasSuffix(s, suffix)
	}
	return pattern == s
}
