package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a fatal deck error.
type ErrorKind int

const (
	KindLex ErrorKind = iota
	KindUnknownKeyword
	KindStructural
	KindDuplicateID
	KindUnresolvedReference
	KindBoundaryTarget
)

func (k ErrorKind) String() string {
	switch k {
	case KindLex:
		return "lex"
	case KindUnknownKeyword:
		return "unknown-keyword"
	case KindStructural:
		return "structural"
	case KindDuplicateID:
		return "duplicate-id"
	case KindUnresolvedReference:
		return "unresolved-reference"
	case KindBoundaryTarget:
		return "boundary-target"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Sentinels matched by errors.Is against a *DeckError of the same kind.
var (
	ErrLex                 = errors.New("lex error")
	ErrUnknownKeyword      = errors.New("unknown keyword")
	ErrStructural          = errors.New("structural error")
	ErrDuplicateID         = errors.New("duplicate id")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrBoundaryTarget      = errors.New("boundary target error")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindLex:
		return ErrLex
	case KindUnknownKeyword:
		return ErrUnknownKeyword
	case KindStructural:
		return ErrStructural
	case KindDuplicateID:
		return ErrDuplicateID
	case KindUnresolvedReference:
		return ErrUnresolvedReference
	case KindBoundaryTarget:
		return ErrBoundaryTarget
	}
	return nil
}

// Link is one hop of a reference chain. OK is false for the hop that
// failed to resolve.
type Link struct {
	Ref   string // e.g. "material 'Generic2'"
	Scope string // e.g. "Part 'Block'"
	Line  int
	OK    bool
}

func (l Link) String() string {
	var b strings.Builder
	b.WriteString(l.Ref)
	if l.Scope != "" {
		b.WriteString(" → ")
		b.WriteString(l.Scope)
	}
	if l.OK {
		b.WriteString(" : OK")
	} else {
		b.WriteString(" : NOT FOUND")
	}
	return b.String()
}

// DeckError is the structured error returned for any fatal failure.
type DeckError struct {
	Kind    ErrorKind
	File    string // source name, set by the loader
	Line    int    // 1-based line, 0 when not tied to a line
	Keyword string // keyword in effect, lower-cased
	Raw     string // raw line text for lex errors
	Message string
	Chain   []Link // reference chain for unresolved references
}

func (e *DeckError) Error() string {
	var b strings.Builder
	switch {
	case e.File != "" && e.Line > 0:
		fmt.Fprintf(&b, "%s:%d: ", e.File, e.Line)
	case e.File != "":
		b.WriteString(e.File + ": ")
	case e.Line > 0:
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Chain) > 0 {
		b.WriteString(" (")
		for i, l := range e.Chain {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(l.String())
		}
		b.WriteByte(')')
	}
	if e.Raw != "" {
		fmt.Fprintf(&b, ": %q", e.Raw)
	}
	return b.String()
}

// Unwrap returns the sentinel for the error's kind.
func (e *DeckError) Unwrap() error {
	return e.Kind.sentinel()
}

// Errorf builds a DeckError of the given kind.
func Errorf(kind ErrorKind, line int, format string, args ...any) *DeckError {
	return &DeckError{Kind: kind, Line: line, Message: fmt.Sprintf(format, args...)}
}

// AsDeckError extracts a *DeckError from err.
func AsDeckError(err error) (*DeckError, bool) {
	var de *DeckError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// DiagnosticsError is returned when reported diagnostics reach the
// configured failure threshold.
type DiagnosticsError struct {
	Diagnostics []Diagnostic
}

func (e *DiagnosticsError) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].String()
	}
	return fmt.Sprintf("%d diagnostics at or above failure threshold; first: %s",
		len(e.Diagnostics), e.Diagnostics[0].String())
}
