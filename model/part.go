package model

import (
	"slices"
	"strings"
)

// key normalizes a deck name for lookup. Deck names are case-insensitive.
func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NameKey returns the lookup key used for every named deck entity.
func NameKey(name string) string { return key(name) }

// Node is a mesh point owned by a Part.
type Node struct {
	ID     int
	Coords [3]float64
	Line   int
}

// Element is a mesh cell owned by a Part. Nodes lists node ids in the
// order given by the deck; its length is not checked against Type.
type Element struct {
	ID    int
	Type  string
	Nodes []int
	Line  int
}

func (e *Element) clone() Element {
	c := *e
	c.Nodes = slices.Clone(e.Nodes)
	return c
}

// Set is a named group of node ids or element ids. Duplicate members are
// collapsed; insertion order is preserved.
type Set struct {
	name    string
	kind    SetKind
	line    int
	ids     []int
	members map[int]struct{}
}

// NewSet returns an empty set.
func NewSet(name string, kind SetKind, line int) *Set {
	return &Set{name: name, kind: kind, line: line, members: make(map[int]struct{})}
}

func (s *Set) Name() string  { return s.name }
func (s *Set) Kind() SetKind { return s.kind }
func (s *Set) Line() int     { return s.line }
func (s *Set) Len() int      { return len(s.ids) }
func (s *Set) IDs() []int    { return slices.Clone(s.ids) }

// Contains reports whether id is a member.
func (s *Set) Contains(id int) bool {
	_, ok := s.members[id]
	return ok
}

// Add inserts ids, skipping members already present.
func (s *Set) Add(ids ...int) {
	for _, id := range ids {
		if _, ok := s.members[id]; ok {
			continue
		}
		s.members[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

// Section binds an element set to a material and optional section controls.
// References are held by name and checked by the resolver.
type Section struct {
	Kind     string // e.g. "Solid Section"
	Elset    string
	Material string
	Controls string
	Params   []float64
	Line     int
}

// Part is a closed namespace of nodes, elements, sets and sections.
type Part struct {
	name    string
	line    int
	endLine int
	closed  bool

	nodes     map[int]*Node
	nodeOrder []*Node
	elems     map[int]*Element
	elemOrder []*Element

	nsets      map[string]*Set
	nsetOrder  []*Set
	elsets     map[string]*Set
	elsetOrder []*Set

	sections []*Section
}

// NewPart returns an open Part declared at line.
func NewPart(name string, line int) *Part {
	return &Part{
		name:   name,
		line:   line,
		nodes:  make(map[int]*Node),
		elems:  make(map[int]*Element),
		nsets:  make(map[string]*Set),
		elsets: make(map[string]*Set),
	}
}

func (p *Part) Name() string { return p.name }
func (p *Part) Line() int    { return p.line }
func (p *Part) EndLine() int { return p.endLine }
func (p *Part) Closed() bool { return p.closed }

func (p *Part) scope() string { return "Part '" + p.name + "'" }

func (p *Part) checkOpen(line int) error {
	if p.closed {
		return Errorf(KindStructural, line, "%s is closed", p.scope())
	}
	return nil
}

// AddNode declares a node. Node ids are unique within the Part.
func (p *Part) AddNode(n Node) error {
	if err := p.checkOpen(n.Line); err != nil {
		return err
	}
	if prev, ok := p.nodes[n.ID]; ok {
		return Errorf(KindDuplicateID, n.Line,
			"node %d already declared in %s at line %d", n.ID, p.scope(), prev.Line)
	}
	node := n
	p.nodes[n.ID] = &node
	p.nodeOrder = append(p.nodeOrder, &node)
	return nil
}

// AddElement declares an element. Element ids are unique within the Part.
// Node references are checked when the Part closes.
func (p *Part) AddElement(e Element) error {
	if err := p.checkOpen(e.Line); err != nil {
		return err
	}
	if prev, ok := p.elems[e.ID]; ok {
		return Errorf(KindDuplicateID, e.Line,
			"element %d already declared in %s at line %d", e.ID, p.scope(), prev.Line)
	}
	el := e
	el.Nodes = slices.Clone(e.Nodes)
	p.elems[e.ID] = &el
	p.elemOrder = append(p.elemOrder, &el)
	return nil
}

// AddSet declares a node or element set. Nset and Elset names live in
// separate namespaces.
func (p *Part) AddSet(s *Set) error {
	if err := p.checkOpen(s.line); err != nil {
		return err
	}
	index, order := p.nsets, &p.nsetOrder
	if s.kind == SetElement {
		index, order = p.elsets, &p.elsetOrder
	}
	k := key(s.name)
	if prev, ok := index[k]; ok {
		return Errorf(KindDuplicateID, s.line,
			"%s '%s' already declared in %s at line %d", s.kind, s.name, p.scope(), prev.line)
	}
	index[k] = s
	*order = append(*order, s)
	return nil
}

// AddSection records a section assignment.
func (p *Part) AddSection(s Section) error {
	if err := p.checkOpen(s.Line); err != nil {
		return err
	}
	sec := s
	p.sections = append(p.sections, &sec)
	return nil
}

// Close marks the Part immutable.
func (p *Part) Close(line int) {
	p.closed = true
	p.endLine = line
}

// ExtendElement appends continuation node ids to a declared element.
func (p *Part) ExtendElement(id, line int, nodes ...int) error {
	if err := p.checkOpen(line); err != nil {
		return err
	}
	el, ok := p.elems[id]
	if !ok {
		return Errorf(KindStructural, line, "element %d is not declared in %s", id, p.scope())
	}
	el.Nodes = append(el.Nodes, nodes...)
	return nil
}

// Node returns a copy of the node with the given id.
func (p *Part) Node(id int) (Node, bool) {
	n, ok := p.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Element returns a copy of the element with the given id.
func (p *Part) Element(id int) (Element, bool) {
	e, ok := p.elems[id]
	if !ok {
		return Element{}, false
	}
	return e.clone(), true
}

func (p *Part) HasNode(id int) bool    { _, ok := p.nodes[id]; return ok }
func (p *Part) HasElement(id int) bool { _, ok := p.elems[id]; return ok }

// Nodes returns copies of the nodes in declaration order.
func (p *Part) Nodes() []Node {
	out := make([]Node, len(p.nodeOrder))
	for i, n := range p.nodeOrder {
		out[i] = *n
	}
	return out
}

// Elements returns copies of the elements in declaration order.
func (p *Part) Elements() []Element {
	out := make([]Element, len(p.elemOrder))
	for i, e := range p.elemOrder {
		out[i] = e.clone()
	}
	return out
}

func (p *Part) NodeCount() int    { return len(p.nodeOrder) }
func (p *Part) ElementCount() int { return len(p.elemOrder) }

// Nset returns the node set with the given name, or nil.
func (p *Part) Nset(name string) *Set { return p.nsets[key(name)] }

// Elset returns the element set with the given name, or nil.
func (p *Part) Elset(name string) *Set { return p.elsets[key(name)] }

// Set returns the set of the given kind and name, or nil.
func (p *Part) Set(kind SetKind, name string) *Set {
	if kind == SetElement {
		return p.Elset(name)
	}
	return p.Nset(name)
}

func (p *Part) Nsets() []*Set  { return slices.Clone(p.nsetOrder) }
func (p *Part) Elsets() []*Set { return slices.Clone(p.elsetOrder) }

// Sections returns section assignments in declaration order.
func (p *Part) Sections() []*Section { return slices.Clone(p.sections) }
