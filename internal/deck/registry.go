package deck

import (
	"fmt"
	"slices"
	"sort"

	"github.com/golangfem/inpdeck/internal/lexer"
)

// Action is what a keyword does to the scope stack.
type Action int

const (
	// ActionMutate changes the entity of the current frame.
	ActionMutate Action = iota
	// ActionBegin pushes a new frame of the handler's Scope.
	ActionBegin
	// ActionEnd finalizes and pops the frame of the handler's Scope.
	ActionEnd
)

func (a Action) String() string {
	switch a {
	case ActionMutate:
		return "mutate"
	case ActionBegin:
		return "begin"
	case ActionEnd:
		return "end"
	default:
		return fmt.Sprintf("Action(%d)", a)
	}
}

// RunFunc handles a keyword line. For ActionBegin the new frame is already
// on top of the stack; for ActionEnd the frame being closed is on top and is
// popped after RunFunc returns. The returned DataFunc, if any, consumes the
// keyword's data lines.
type RunFunc func(p *Parser, kw *lexer.Keyword) (DataFunc, error)

// DataFunc consumes one data line.
type DataFunc func(p *Parser, dl *lexer.DataLine) error

// Handler binds a keyword to its action.
type Handler struct {
	// Keyword is the normalized keyword name, e.g. "solid section".
	Keyword string
	Action  Action
	// Scope is the frame kind pushed (Begin) or closed (End).
	Scope ScopeKind
	// In lists the scopes a Mutate or Begin keyword may appear in.
	In []ScopeKind
	// MaterialProperty keeps an open *Material definition alive; any other
	// keyword ends it.
	MaterialProperty bool
	// Params lists the parameter names the keyword understands. Others are
	// reported as unknown-parameter diagnostics. Nil disables the check.
	Params []string
	// RawData marks keywords whose data lines are free text. Their lines
	// reach the DataFunc even when they do not lex as fields.
	RawData bool
	Run     RunFunc
}

func (h *Handler) allowedIn(kind ScopeKind) bool {
	return slices.Contains(h.In, kind)
}

// Registry maps keyword names to handlers.
type Registry struct {
	handlers map[string]*Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]*Handler)}
}

// Register adds h. Registering the same keyword twice is an error.
func (r *Registry) Register(h *Handler) error {
	if h.Keyword == "" || h.Run == nil {
		return fmt.Errorf("handler needs a keyword and a run function")
	}
	if _, ok := r.handlers[h.Keyword]; ok {
		return fmt.Errorf("keyword %q already registered", h.Keyword)
	}
	r.handlers[h.Keyword] = h
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(hs ...*Handler) {
	for _, h := range hs {
		if err := r.Register(h); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the handler for a normalized keyword name.
func (r *Registry) Lookup(name string) (*Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Keywords returns the registered keyword names, sorted.
func (r *Registry) Keywords() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of r that can be extended independently.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for k, h := range r.handlers {
		c.handlers[k] = h
	}
	return c
}

// DefaultRegistry returns a registry with every built-in keyword.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	registerGeometry(r)
	registerMaterials(r)
	registerAssembly(r)
	registerSteps(r)
	return r
}
