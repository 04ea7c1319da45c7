package model

import (
	"fmt"
	"slices"
)

// Procedure is the analysis procedure of a Step with its incrementation.
// Min and Max are zero when the deck leaves them unset.
type Procedure struct {
	Kind    string // e.g. "Static"
	Initial float64
	Total   float64
	Min     float64
	Max     float64
	Line    int
}

// BoundaryDirective fixes dofs First..Last (inclusive) of Target to Value.
// Target is "Instance.Set", "Instance.NodeID" or an assembly-level set name.
type BoundaryDirective struct {
	Target string
	First  int
	Last   int
	Value  float64
	Op     BoundaryOp
	Line   int
}

func (d BoundaryDirective) String() string {
	s := fmt.Sprintf("%s, %d, %d, %g", d.Target, d.First, d.Last, d.Value)
	if d.Op != OpNone {
		s += " (op=" + d.Op.String() + ")"
	}
	return s
}

// OutputRequest is one *Output block with the node and element variables
// requested beneath it.
type OutputRequest struct {
	Kind     OutputKind
	Variable string // PRESELECT, ALL or empty
	Node     []string
	Element  []string
	Line     int
}

// Step is one analysis phase. Steps are ordered; their boundary state
// carries forward.
type Step struct {
	name    string
	line    int
	endLine int
	closed  bool

	NLGeom    bool
	Procedure *Procedure

	boundaries []BoundaryDirective
	reset      bool
	outputs    []*OutputRequest
	state      *BoundaryState
}

// NewStep returns an open Step.
func NewStep(name string, line int) *Step {
	return &Step{name: name, line: line}
}

func (s *Step) Name() string { return s.name }
func (s *Step) Line() int    { return s.line }
func (s *Step) EndLine() int { return s.endLine }
func (s *Step) Closed() bool { return s.closed }

// AddBoundary appends a directive.
func (s *Step) AddBoundary(d BoundaryDirective) {
	s.boundaries = append(s.boundaries, d)
}

// ResetBoundaries records a *Boundary, op=NEW block. The Step then starts
// from an empty state even when the block lists no directives.
func (s *Step) ResetBoundaries() { s.reset = true }

// ResetsBoundaries reports whether the Step discards the inherited state.
func (s *Step) ResetsBoundaries() bool {
	return s.reset || slices.ContainsFunc(s.boundaries, func(d BoundaryDirective) bool {
		return d.Op == OpNew
	})
}

// AddOutput appends an output request.
func (s *Step) AddOutput(o *OutputRequest) {
	s.outputs = append(s.outputs, o)
}

// Close marks the Step's directives final.
func (s *Step) Close(line int) {
	s.closed = true
	s.endLine = line
}

// Boundaries returns the step's directives in file order.
func (s *Step) Boundaries() []BoundaryDirective { return slices.Clone(s.boundaries) }

// Outputs returns the step's output requests in file order.
func (s *Step) Outputs() []*OutputRequest { return slices.Clone(s.outputs) }

// BoundaryState returns the resolved state applicable during the step.
// It is nil until the deck has been fully resolved.
func (s *Step) BoundaryState() *BoundaryState { return s.state }

// SetBoundaryState attaches the resolved snapshot.
func (s *Step) SetBoundaryState(st *BoundaryState) { s.state = st }
