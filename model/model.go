// Package model holds the resolved, read-only in-memory model of a
// finite-element deck: parts, materials, section controls, the assembly
// and the ordered analysis steps with their boundary-state snapshots.
//
// Entities refer to each other by name, never by ownership pointer, so a
// Section may name a Material declared later in the deck. Names are
// case-insensitive throughout.
package model

import (
	"slices"
	"strings"
)

// Model is the top-level container for a parsed deck.
type Model struct {
	heading []string

	parts     map[string]*Part
	partOrder []*Part

	materials     map[string]*Material
	materialOrder []*Material

	controls     map[string]*SectionControls
	controlOrder []*SectionControls

	assembly *Assembly

	baseline []BoundaryDirective
	initial  *BoundaryState

	steps     map[string]*Step
	stepOrder []*Step

	diagnostics []Diagnostic
}

// New returns an empty Model.
func New() *Model {
	return &Model{
		parts:     make(map[string]*Part),
		materials: make(map[string]*Material),
		controls:  make(map[string]*SectionControls),
		steps:     make(map[string]*Step),
		initial:   EmptyBoundaryState,
	}
}

// AppendHeading adds one line of *Heading text.
func (m *Model) AppendHeading(line string) {
	m.heading = append(m.heading, line)
}

// Heading returns the *Heading text, lines joined by newlines.
func (m *Model) Heading() string { return strings.Join(m.heading, "\n") }

// AddPart registers a Part. Part names are unique within the deck.
func (m *Model) AddPart(p *Part) error {
	k := key(p.name)
	if prev, ok := m.parts[k]; ok {
		return Errorf(KindDuplicateID, p.line,
			"Part '%s' already declared at line %d", p.name, prev.line)
	}
	m.parts[k] = p
	m.partOrder = append(m.partOrder, p)
	return nil
}

// Part returns the named Part, or nil.
func (m *Model) Part(name string) *Part { return m.parts[key(name)] }

// Parts returns parts in declaration order.
func (m *Model) Parts() []*Part { return slices.Clone(m.partOrder) }

// PartNames returns part names in declaration order.
func (m *Model) PartNames() []string {
	names := make([]string, len(m.partOrder))
	for i, p := range m.partOrder {
		names[i] = p.name
	}
	return names
}

// AddMaterial registers a Material. Material names are global.
func (m *Model) AddMaterial(mat *Material) error {
	k := key(mat.name)
	if prev, ok := m.materials[k]; ok {
		return Errorf(KindDuplicateID, mat.line,
			"Material '%s' already declared at line %d", mat.name, prev.line)
	}
	m.materials[k] = mat
	m.materialOrder = append(m.materialOrder, mat)
	return nil
}

// Material returns the named Material, or nil.
func (m *Model) Material(name string) *Material { return m.materials[key(name)] }

// Materials returns materials in declaration order.
func (m *Model) Materials() []*Material { return slices.Clone(m.materialOrder) }

// AddSectionControls registers a *Section Controls block.
func (m *Model) AddSectionControls(c *SectionControls) error {
	k := key(c.Name)
	if prev, ok := m.controls[k]; ok {
		return Errorf(KindDuplicateID, c.Line,
			"Section Controls '%s' already declared at line %d", c.Name, prev.Line)
	}
	m.controls[k] = c
	m.controlOrder = append(m.controlOrder, c)
	return nil
}

// SectionControls returns the named block, or nil.
func (m *Model) SectionControls(name string) *SectionControls { return m.controls[key(name)] }

// AllSectionControls returns section controls in declaration order.
func (m *Model) AllSectionControls() []*SectionControls { return slices.Clone(m.controlOrder) }

// SetAssembly installs the deck's single Assembly.
func (m *Model) SetAssembly(a *Assembly) error {
	if m.assembly != nil {
		return Errorf(KindStructural, a.line,
			"second Assembly '%s'; Assembly '%s' already declared at line %d",
			a.name, m.assembly.name, m.assembly.line)
	}
	m.assembly = a
	return nil
}

// Assembly returns the deck's Assembly, or nil if none was declared.
func (m *Model) Assembly() *Assembly { return m.assembly }

// AddBaseline records a deck-level *Boundary directive.
func (m *Model) AddBaseline(d BoundaryDirective) {
	m.baseline = append(m.baseline, d)
}

// Baseline returns deck-level directives in file order.
func (m *Model) Baseline() []BoundaryDirective { return slices.Clone(m.baseline) }

// InitialBoundaryState returns the state established by the baseline
// directives, before any Step.
func (m *Model) InitialBoundaryState() *BoundaryState { return m.initial }

// SetInitialBoundaryState attaches the resolved baseline snapshot.
func (m *Model) SetInitialBoundaryState(st *BoundaryState) { m.initial = st }

// AddStep registers a Step. Step names are unique within the deck.
func (m *Model) AddStep(s *Step) error {
	k := key(s.name)
	if prev, ok := m.steps[k]; ok {
		return Errorf(KindDuplicateID, s.line,
			"Step '%s' already declared at line %d", s.name, prev.line)
	}
	m.steps[k] = s
	m.stepOrder = append(m.stepOrder, s)
	return nil
}

// Step returns the named Step, or nil.
func (m *Model) Step(name string) *Step { return m.steps[key(name)] }

// Steps returns steps in file order.
func (m *Model) Steps() []*Step { return slices.Clone(m.stepOrder) }

// AddDiagnostic records a non-fatal diagnostic.
func (m *Model) AddDiagnostic(d Diagnostic) {
	m.diagnostics = append(m.diagnostics, d)
}

// Diagnostics returns all reported diagnostics.
func (m *Model) Diagnostics() []Diagnostic { return slices.Clone(m.diagnostics) }

// HasErrors reports whether any diagnostic is error severity or worse.
func (m *Model) HasErrors() bool {
	return slices.ContainsFunc(m.diagnostics, func(d Diagnostic) bool {
		return d.Severity.AtLeast(SeverityError)
	})
}
