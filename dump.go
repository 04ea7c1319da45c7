package inpdeck

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/golangfem/inpdeck/model"
)

// Document is the serializable form of a resolved model.
type Document struct {
	Heading         string          `json:"heading,omitempty" yaml:"heading,omitempty"`
	Parts           []PartDoc       `json:"parts" yaml:"parts"`
	Materials       []MaterialDoc   `json:"materials,omitempty" yaml:"materials,omitempty"`
	SectionControls []ControlsDoc   `json:"sectionControls,omitempty" yaml:"sectionControls,omitempty"`
	Assembly        *AssemblyDoc    `json:"assembly,omitempty" yaml:"assembly,omitempty"`
	Initial         []DofDoc        `json:"initialBoundary,omitempty" yaml:"initialBoundary,omitempty"`
	Steps           []StepDoc       `json:"steps,omitempty" yaml:"steps,omitempty"`
	Diagnostics     []DiagnosticDoc `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// PartDoc holds one Part.
type PartDoc struct {
	Name     string       `json:"name" yaml:"name"`
	Nodes    []NodeDoc    `json:"nodes" yaml:"nodes"`
	Elements []ElementDoc `json:"elements" yaml:"elements"`
	Nsets    []SetDoc     `json:"nsets,omitempty" yaml:"nsets,omitempty"`
	Elsets   []SetDoc     `json:"elsets,omitempty" yaml:"elsets,omitempty"`
	Sections []SectionDoc `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// NodeDoc holds a node and its coordinates.
type NodeDoc struct {
	ID     int        `json:"id" yaml:"id"`
	Coords [3]float64 `json:"coords" yaml:"coords,flow"`
}

// ElementDoc holds an element and its connectivity.
type ElementDoc struct {
	ID    int    `json:"id" yaml:"id"`
	Type  string `json:"type" yaml:"type"`
	Nodes []int  `json:"nodes" yaml:"nodes,flow"`
}

// SetDoc holds a named set.
type SetDoc struct {
	Name     string `json:"name" yaml:"name"`
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`
	IDs      []int  `json:"ids" yaml:"ids,flow"`
}

// SectionDoc holds a section assignment.
type SectionDoc struct {
	Kind     string    `json:"kind" yaml:"kind"`
	Elset    string    `json:"elset" yaml:"elset"`
	Material string    `json:"material" yaml:"material"`
	Controls string    `json:"controls,omitempty" yaml:"controls,omitempty"`
	Params   []float64 `json:"params,omitempty" yaml:"params,omitempty,flow"`
}

// MaterialDoc holds a material and its property blocks.
type MaterialDoc struct {
	Name       string        `json:"name" yaml:"name"`
	Properties []PropertyDoc `json:"properties" yaml:"properties"`
}

// PropertyDoc holds one material property block.
type PropertyDoc struct {
	Kind   string    `json:"kind" yaml:"kind"`
	Law    string    `json:"law,omitempty" yaml:"law,omitempty"`
	Count  int       `json:"count,omitempty" yaml:"count,omitempty"`
	Values []float64 `json:"values" yaml:"values,flow"`
}

// ControlsDoc holds a *Section Controls block.
type ControlsDoc struct {
	Name      string    `json:"name" yaml:"name"`
	Hourglass string    `json:"hourglass,omitempty" yaml:"hourglass,omitempty"`
	Params    []float64 `json:"params,omitempty" yaml:"params,omitempty,flow"`
}

// AssemblyDoc holds the Assembly.
type AssemblyDoc struct {
	Name      string        `json:"name" yaml:"name"`
	Instances []InstanceDoc `json:"instances" yaml:"instances"`
	Nsets     []SetDoc      `json:"nsets,omitempty" yaml:"nsets,omitempty"`
	Elsets    []SetDoc      `json:"elsets,omitempty" yaml:"elsets,omitempty"`
}

// InstanceDoc holds an instance and its placement.
type InstanceDoc struct {
	Name        string       `json:"name" yaml:"name"`
	Part        string       `json:"part" yaml:"part"`
	Translation [3]float64   `json:"translation" yaml:"translation,flow"`
	Rotation    *RotationDoc `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// RotationDoc holds an instance rotation.
type RotationDoc struct {
	A     [3]float64 `json:"a" yaml:"a,flow"`
	B     [3]float64 `json:"b" yaml:"b,flow"`
	Angle float64    `json:"angle" yaml:"angle"`
}

// StepDoc holds a Step with its resolved boundary snapshot.
type StepDoc struct {
	Name      string      `json:"name" yaml:"name"`
	NLGeom    bool        `json:"nlgeom" yaml:"nlgeom"`
	Procedure string      `json:"procedure,omitempty" yaml:"procedure,omitempty"`
	Increment []float64   `json:"increment,omitempty" yaml:"increment,omitempty,flow"`
	Boundary  []DofDoc    `json:"boundary" yaml:"boundary"`
	Outputs   []OutputDoc `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// DofDoc holds one constrained dof.
type DofDoc struct {
	Instance string  `json:"instance" yaml:"instance"`
	Node     int     `json:"node" yaml:"node"`
	Dof      int     `json:"dof" yaml:"dof"`
	Value    float64 `json:"value" yaml:"value"`
}

// OutputDoc holds an output request.
type OutputDoc struct {
	Kind     string   `json:"kind" yaml:"kind"`
	Variable string   `json:"variable,omitempty" yaml:"variable,omitempty"`
	Node     []string `json:"node,omitempty" yaml:"node,omitempty,flow"`
	Element  []string `json:"element,omitempty" yaml:"element,omitempty,flow"`
}

// DiagnosticDoc holds a diagnostic.
type DiagnosticDoc struct {
	Severity string `json:"severity" yaml:"severity"`
	Code     string `json:"code" yaml:"code"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
	Message  string `json:"message" yaml:"message"`
}

// Dump builds the serializable document for m. The output is
// deterministic for a given model.
func Dump(m *model.Model) *Document {
	doc := &Document{Heading: m.Heading(), Parts: []PartDoc{}}
	for _, p := range m.Parts() {
		doc.Parts = append(doc.Parts, dumpPart(p))
	}
	for _, mat := range m.Materials() {
		md := MaterialDoc{Name: mat.Name(), Properties: []PropertyDoc{}}
		for _, prop := range mat.Properties() {
			md.Properties = append(md.Properties, dumpProperty(prop))
		}
		doc.Materials = append(doc.Materials, md)
	}
	for _, sc := range m.AllSectionControls() {
		doc.SectionControls = append(doc.SectionControls, ControlsDoc{
			Name: sc.Name, Hourglass: sc.Hourglass, Params: sc.Params,
		})
	}
	if asm := m.Assembly(); asm != nil {
		doc.Assembly = dumpAssembly(asm)
	}
	doc.Initial = dumpState(m.InitialBoundaryState())
	for _, st := range m.Steps() {
		sd := StepDoc{Name: st.Name(), NLGeom: st.NLGeom, Boundary: dumpState(st.BoundaryState())}
		if proc := st.Procedure; proc != nil {
			sd.Procedure = proc.Kind
			sd.Increment = []float64{proc.Initial, proc.Total, proc.Min, proc.Max}
		}
		for _, o := range st.Outputs() {
			sd.Outputs = append(sd.Outputs, OutputDoc{
				Kind: o.Kind.String(), Variable: o.Variable, Node: o.Node, Element: o.Element,
			})
		}
		doc.Steps = append(doc.Steps, sd)
	}
	for _, d := range m.Diagnostics() {
		doc.Diagnostics = append(doc.Diagnostics, DiagnosticDoc{
			Severity: d.Severity.String(), Code: d.Code, Line: d.Line, Message: d.Message,
		})
	}
	return doc
}

func dumpPart(p *model.Part) PartDoc {
	pd := PartDoc{Name: p.Name(), Nodes: []NodeDoc{}, Elements: []ElementDoc{}}
	for _, n := range p.Nodes() {
		pd.Nodes = append(pd.Nodes, NodeDoc{ID: n.ID, Coords: n.Coords})
	}
	for _, e := range p.Elements() {
		pd.Elements = append(pd.Elements, ElementDoc{ID: e.ID, Type: e.Type, Nodes: e.Nodes})
	}
	for _, s := range p.Nsets() {
		pd.Nsets = append(pd.Nsets, SetDoc{Name: s.Name(), IDs: s.IDs()})
	}
	for _, s := range p.Elsets() {
		pd.Elsets = append(pd.Elsets, SetDoc{Name: s.Name(), IDs: s.IDs()})
	}
	for _, s := range p.Sections() {
		pd.Sections = append(pd.Sections, SectionDoc{
			Kind: s.Kind, Elset: s.Elset, Material: s.Material, Controls: s.Controls, Params: s.Params,
		})
	}
	return pd
}

func dumpProperty(prop model.Property) PropertyDoc {
	pd := PropertyDoc{Kind: prop.PropertyName()}
	switch p := prop.(type) {
	case *model.Density:
		pd.Values = []float64{p.Value}
	case *model.Hyperelastic:
		pd.Law = p.Law
		pd.Values = p.Coefficients
	case *model.UserMaterial:
		pd.Count = p.Count
		pd.Values = p.Constants
	case *model.Elastic:
		pd.Values = []float64{p.Modulus, p.Poisson}
	}
	if pd.Values == nil {
		pd.Values = []float64{}
	}
	return pd
}

func dumpAssembly(asm *model.Assembly) *AssemblyDoc {
	ad := &AssemblyDoc{Name: asm.Name(), Instances: []InstanceDoc{}}
	for _, inst := range asm.Instances() {
		id := InstanceDoc{Name: inst.Name(), Part: inst.PartName(), Translation: inst.Transform.Translation}
		if r := inst.Transform.Rotation; r != nil {
			id.Rotation = &RotationDoc{A: r.A, B: r.B, Angle: r.Angle}
		}
		ad.Instances = append(ad.Instances, id)
	}
	for _, s := range asm.Nsets() {
		ad.Nsets = append(ad.Nsets, SetDoc{Name: s.Name(), Instance: s.Instance, IDs: s.IDs()})
	}
	for _, s := range asm.Elsets() {
		ad.Elsets = append(ad.Elsets, SetDoc{Name: s.Name(), Instance: s.Instance, IDs: s.IDs()})
	}
	return ad
}

func dumpState(st *model.BoundaryState) []DofDoc {
	out := []DofDoc{}
	if st == nil {
		return out
	}
	for _, e := range st.Entries() {
		out = append(out, DofDoc{Instance: e.Instance, Node: e.Node, Dof: e.Dof, Value: e.Value})
	}
	return out
}

// WriteJSON writes the document as indented JSON.
func (d *Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// WriteYAML writes the document as YAML.
func (d *Document) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}
