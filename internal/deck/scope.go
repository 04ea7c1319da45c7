package deck

import (
	"fmt"
	"strconv"

	"github.com/golangfem/inpdeck/model"
)

// ScopeKind identifies a structural scope of the deck.
type ScopeKind int

const (
	ScopeDeck ScopeKind = iota
	ScopePart
	ScopeAssembly
	ScopeInstance
	ScopeStep
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeDeck:
		return "Deck"
	case ScopePart:
		return "Part"
	case ScopeAssembly:
		return "Assembly"
	case ScopeInstance:
		return "Instance"
	case ScopeStep:
		return "Step"
	default:
		return fmt.Sprintf("ScopeKind(%d)", k)
	}
}

// Frame is one open scope with its entity under construction. Exactly one
// of the entity fields is set, matching Kind; the deck frame has none.
type Frame struct {
	Kind ScopeKind
	Name string
	Line int

	Part     *model.Part
	Assembly *model.Assembly
	Instance *model.Instance
	Step     *model.Step

	// data consumes data lines of the last keyword seen in this frame.
	data DataFunc
	// dataLines counts data lines fed to the current keyword.
	dataLines int
	// raw is set when the current keyword takes free-text data.
	raw bool
}

func (f *Frame) describe() string {
	if f.Name == "" {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s '%s'", f.Kind, f.Name)
}

// stack is the explicit scope stack. The bottom frame is always the deck.
type stack struct {
	frames []*Frame
}

func newStack() *stack {
	return &stack{frames: []*Frame{{Kind: ScopeDeck}}}
}

func (s *stack) top() *Frame { return s.frames[len(s.frames)-1] }

func (s *stack) depth() int { return len(s.frames) }

// parent returns the frame below the top, or nil at the deck frame.
func (s *stack) parent() *Frame {
	if len(s.frames) < 2 {
		return nil
	}
	return s.frames[len(s.frames)-2]
}

func (s *stack) push(f *Frame) { s.frames = append(s.frames, f) }

func (s *stack) pop() *Frame {
	f := s.top()
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

func itoa(n int) string { return strconv.Itoa(n) }
