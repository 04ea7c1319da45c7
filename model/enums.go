package model

import (
	"fmt"
	"strings"
)

// Severity indicates how serious a diagnostic is.
// Lower values are more severe.
type Severity int

const (
	SeverityFatal   Severity = 0 // Cannot continue parsing
	SeverityError   Severity = 1 // Model is usable but likely wrong
	SeverityWarning Severity = 2 // Might be correct under some circumstances
	SeverityInfo    Severity = 3 // Informational notice
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("Severity(%d)", s)
	}
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s <= other
}

// ParseSeverity parses a severity name as produced by String.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal":
		return SeverityFatal, nil
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// Mode selects how unknown keywords are treated.
type Mode int

const (
	// ModeLenient records an unknown-keyword diagnostic and skips the
	// keyword together with its data lines.
	ModeLenient Mode = iota
	// ModeStrict fails the parse on the first unknown keyword.
	ModeStrict
)

func (m Mode) String() string {
	switch m {
	case ModeLenient:
		return "lenient"
	case ModeStrict:
		return "strict"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// ParseMode parses "strict" or "lenient".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return ModeLenient, nil
	case "strict":
		return ModeStrict, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// SetKind distinguishes node sets from element sets.
type SetKind int

const (
	SetNode SetKind = iota
	SetElement
)

func (k SetKind) String() string {
	switch k {
	case SetNode:
		return "nset"
	case SetElement:
		return "elset"
	default:
		return fmt.Sprintf("SetKind(%d)", k)
	}
}

// BoundaryOp is the operator tag of a *Boundary keyword.
type BoundaryOp int

const (
	// OpNone marks a directive declared without op=, the form used for the
	// deck-level baseline.
	OpNone BoundaryOp = iota
	OpMod
	OpNew
)

func (o BoundaryOp) String() string {
	switch o {
	case OpNone:
		return ""
	case OpMod:
		return "MOD"
	case OpNew:
		return "NEW"
	default:
		return fmt.Sprintf("BoundaryOp(%d)", o)
	}
}

// OutputKind separates field output from history output.
type OutputKind int

const (
	OutputField OutputKind = iota
	OutputHistory
)

func (k OutputKind) String() string {
	switch k {
	case OutputField:
		return "field"
	case OutputHistory:
		return "history"
	default:
		return fmt.Sprintf("OutputKind(%d)", k)
	}
}
