package model

import "slices"

// Property is one property block of a Material. New property kinds are
// added by implementing this interface.
type Property interface {
	PropertyName() string
}

// Density is the *Density property.
type Density struct {
	Value float64
}

// Hyperelastic is the *Hyperelastic property. Law is the material law tag,
// e.g. "neo hooke".
type Hyperelastic struct {
	Law          string
	Coefficients []float64
}

// UserMaterial is the *User Material property. Count is the declared
// constants= value.
type UserMaterial struct {
	Count     int
	Constants []float64
}

// Elastic is the *Elastic property (isotropic).
type Elastic struct {
	Modulus float64
	Poisson float64
}

func (*Density) PropertyName() string      { return "density" }
func (*Hyperelastic) PropertyName() string { return "hyperelastic" }
func (*UserMaterial) PropertyName() string { return "user material" }
func (*Elastic) PropertyName() string      { return "elastic" }

// Material is a named, global list of property blocks.
type Material struct {
	name  string
	line  int
	props []Property
}

// NewMaterial returns an empty material declared at line.
func NewMaterial(name string, line int) *Material {
	return &Material{name: name, line: line}
}

func (m *Material) Name() string { return m.name }
func (m *Material) Line() int    { return m.line }

// AddProperty appends a property block.
func (m *Material) AddProperty(p Property) {
	m.props = append(m.props, p)
}

// Properties returns property blocks in declaration order.
func (m *Material) Properties() []Property { return slices.Clone(m.props) }

// Property returns the first property with the given name, or nil.
func (m *Material) Property(name string) Property {
	k := key(name)
	for _, p := range m.props {
		if p.PropertyName() == k {
			return p
		}
	}
	return nil
}

// Density returns the material density if one was declared.
func (m *Material) Density() (float64, bool) {
	if d, ok := m.Property("density").(*Density); ok {
		return d.Value, true
	}
	return 0, false
}

// SectionControls is a named, global *Section Controls block.
type SectionControls struct {
	Name      string
	Hourglass string
	Params    []float64
	Line      int
}
