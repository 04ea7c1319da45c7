package model

import (
	"math"
	"slices"
)

// Rotation turns points about the axis through A and B by Angle degrees,
// right-handed about the direction A→B.
type Rotation struct {
	A, B  [3]float64
	Angle float64
}

// Transform places a Part in the Assembly: translation is applied first,
// then the optional rotation.
type Transform struct {
	Translation [3]float64
	Rotation    *Rotation
}

// IsIdentity reports whether t leaves points unchanged.
func (t Transform) IsIdentity() bool {
	return t.Translation == [3]float64{} && (t.Rotation == nil || t.Rotation.Angle == 0)
}

// Apply maps a Part-local point to Assembly coordinates.
func (t Transform) Apply(p [3]float64) [3]float64 {
	out := [3]float64{p[0] + t.Translation[0], p[1] + t.Translation[1], p[2] + t.Translation[2]}
	r := t.Rotation
	if r == nil || r.Angle == 0 {
		return out
	}
	axis := [3]float64{r.B[0] - r.A[0], r.B[1] - r.A[1], r.B[2] - r.A[2]}
	n := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if n == 0 {
		return out
	}
	k := [3]float64{axis[0] / n, axis[1] / n, axis[2] / n}
	v := [3]float64{out[0] - r.A[0], out[1] - r.A[1], out[2] - r.A[2]}
	theta := r.Angle * math.Pi / 180
	c, s := math.Cos(theta), math.Sin(theta)
	kv := k[0]*v[0] + k[1]*v[1] + k[2]*v[2]
	cross := [3]float64{
		k[1]*v[2] - k[2]*v[1],
		k[2]*v[0] - k[0]*v[2],
		k[0]*v[1] - k[1]*v[0],
	}
	// Rodrigues: v cosθ + (k×v) sinθ + k (k·v)(1−cosθ)
	for i := range 3 {
		out[i] = r.A[i] + v[i]*c + cross[i]*s + k[i]*kv*(1-c)
	}
	return out
}

// Instance is a placed copy of a Part. It refers to its Part by name; the
// resolved Part is attached when the instance is declared.
type Instance struct {
	name      string
	partName  string
	part      *Part
	line      int
	Transform Transform
}

// NewInstance returns an instance of part.
func NewInstance(name string, part *Part, line int) *Instance {
	return &Instance{name: name, partName: part.Name(), part: part, line: line}
}

func (i *Instance) Name() string     { return i.name }
func (i *Instance) PartName() string { return i.partName }
func (i *Instance) Part() *Part      { return i.part }
func (i *Instance) Line() int        { return i.line }

// Coordinates returns the Assembly coordinates of a Part node.
func (i *Instance) Coordinates(id int) ([3]float64, bool) {
	n, ok := i.part.Node(id)
	if !ok {
		return [3]float64{}, false
	}
	return i.Transform.Apply(n.Coords), true
}

// PlacedNodes returns the Part's nodes with the instance transform applied,
// in declaration order.
func (i *Instance) PlacedNodes() []Node {
	nodes := i.part.Nodes()
	out := make([]Node, len(nodes))
	for j, n := range nodes {
		out[j] = Node{ID: n.ID, Coords: i.Transform.Apply(n.Coords), Line: n.Line}
	}
	return out
}

// AssemblySet is a set declared inside *Assembly whose members belong to
// one instance.
type AssemblySet struct {
	*Set
	Instance string
}

// Assembly composes Instances.
type Assembly struct {
	name    string
	line    int
	endLine int
	closed  bool

	instances map[string]*Instance
	order     []*Instance

	nsets      map[string]*AssemblySet
	nsetOrder  []*AssemblySet
	elsets     map[string]*AssemblySet
	elsetOrder []*AssemblySet
}

// NewAssembly returns an open Assembly.
func NewAssembly(name string, line int) *Assembly {
	return &Assembly{
		name:      name,
		line:      line,
		instances: make(map[string]*Instance),
		nsets:     make(map[string]*AssemblySet),
		elsets:    make(map[string]*AssemblySet),
	}
}

func (a *Assembly) Name() string { return a.name }
func (a *Assembly) Line() int    { return a.line }
func (a *Assembly) EndLine() int { return a.endLine }
func (a *Assembly) Closed() bool { return a.closed }

func (a *Assembly) scope() string { return "Assembly '" + a.name + "'" }

// AddInstance registers a fully built instance. Instance names are unique
// within the Assembly.
func (a *Assembly) AddInstance(inst *Instance) error {
	if a.closed {
		return Errorf(KindStructural, inst.line, "%s is closed", a.scope())
	}
	k := key(inst.name)
	if prev, ok := a.instances[k]; ok {
		return Errorf(KindDuplicateID, inst.line,
			"instance '%s' already declared in %s at line %d", inst.name, a.scope(), prev.line)
	}
	a.instances[k] = inst
	a.order = append(a.order, inst)
	return nil
}

// AddSet registers an assembly-level set.
func (a *Assembly) AddSet(s *AssemblySet) error {
	if a.closed {
		return Errorf(KindStructural, s.Line(), "%s is closed", a.scope())
	}
	index, order := a.nsets, &a.nsetOrder
	if s.Kind() == SetElement {
		index, order = a.elsets, &a.elsetOrder
	}
	k := key(s.Name())
	if prev, ok := index[k]; ok {
		return Errorf(KindDuplicateID, s.Line(),
			"%s '%s' already declared in %s at line %d", s.Kind(), s.Name(), a.scope(), prev.Line())
	}
	index[k] = s
	*order = append(*order, s)
	return nil
}

// Close marks the Assembly immutable.
func (a *Assembly) Close(line int) {
	a.closed = true
	a.endLine = line
}

// Instance returns the named instance, or nil.
func (a *Assembly) Instance(name string) *Instance { return a.instances[key(name)] }

// Instances returns instances in declaration order.
func (a *Assembly) Instances() []*Instance { return slices.Clone(a.order) }

// Nset returns the assembly-level node set with the given name, or nil.
func (a *Assembly) Nset(name string) *AssemblySet { return a.nsets[key(name)] }

// Elset returns the assembly-level element set with the given name, or nil.
func (a *Assembly) Elset(name string) *AssemblySet { return a.elsets[key(name)] }

func (a *Assembly) Nsets() []*AssemblySet  { return slices.Clone(a.nsetOrder) }
func (a *Assembly) Elsets() []*AssemblySet { return slices.Clone(a.elsetOrder) }
