package resolver

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/golangfem/inpdeck/internal/boundary"
	"github.com/golangfem/inpdeck/model"
)

// InstancePart looks up the Part an *Instance places. The instance name
// must be free in asm and the Part must already be closed.
func InstancePart(m *model.Model, asm *model.Assembly, name, partName string, line int) (*model.Part, error) {
	if prev := asm.Instance(name); prev != nil {
		return nil, model.Errorf(model.KindDuplicateID, line,
			"instance '%s' already declared in Assembly '%s' at line %d", name, asm.Name(), prev.Line())
	}
	part := m.Part(partName)
	if part == nil {
		return nil, &model.DeckError{
			Kind:    model.KindUnresolvedReference,
			Line:    line,
			Message: fmt.Sprintf("instance '%s' places undeclared Part '%s'", name, partName),
			Chain: []model.Link{
				{Ref: fmt.Sprintf("Instance '%s'", name), Scope: fmt.Sprintf("Assembly '%s'", asm.Name()), Line: line, OK: true},
				{Ref: fmt.Sprintf("Part '%s'", partName)},
			},
		}
	}
	if !part.Closed() {
		return nil, model.Errorf(model.KindStructural, line,
			"instance '%s' places Part '%s', which is still open", name, partName)
	}
	return part, nil
}

// Targets expands boundary targets against the Assembly. It implements
// boundary.Resolver.
//
// Accepted forms:
//
//	Instance.Nset     nodes of a node set of the instance's Part
//	Instance.Elset    nodes of the elements of an element set
//	Instance.123      a single node
//	Name              an Assembly-level node or element set
type Targets struct {
	asm *model.Assembly
}

// NewTargets returns a target table for asm, which may be nil.
func NewTargets(asm *model.Assembly) *Targets {
	return &Targets{asm: asm}
}

var _ boundary.Resolver = (*Targets)(nil)

// Resolve implements boundary.Resolver.
func (t *Targets) Resolve(target string, line int) (boundary.Target, error) {
	target = strings.TrimSpace(target)
	if t.asm == nil {
		return boundary.Target{}, &model.DeckError{
			Kind:    model.KindBoundaryTarget,
			Line:    line,
			Message: fmt.Sprintf("boundary target '%s' needs an Assembly, and none was declared", target),
		}
	}
	if inst, rest, ok := t.splitQualified(target); ok {
		return t.inInstance(target, inst, rest, line)
	}
	if !strings.Contains(target, ".") {
		return t.assemblySet(target, line)
	}
	prefix, _, _ := strings.Cut(target, ".")
	return boundary.Target{}, &model.DeckError{
		Kind:    model.KindBoundaryTarget,
		Line:    line,
		Message: fmt.Sprintf("boundary target '%s' does not resolve", target),
		Chain: []model.Link{
			{Ref: fmt.Sprintf("instance '%s'", prefix), Scope: fmt.Sprintf("Assembly '%s'", t.asm.Name())},
		},
	}
}

// splitQualified finds the dot separating an instance name from the rest.
// Instance names may themselves contain dots, so every split is tried.
func (t *Targets) splitQualified(target string) (*model.Instance, string, bool) {
	for i := 0; i < len(target); i++ {
		if target[i] != '.' {
			continue
		}
		if inst := t.asm.Instance(target[:i]); inst != nil {
			return inst, target[i+1:], true
		}
	}
	return nil, "", false
}

func (t *Targets) inInstance(target string, inst *model.Instance, rest string, line int) (boundary.Target, error) {
	part := inst.Part()
	instLink := model.Link{
		Ref:   fmt.Sprintf("instance '%s'", inst.Name()),
		Scope: fmt.Sprintf("Assembly '%s'", t.asm.Name()),
		Line:  inst.Line(),
		OK:    true,
	}
	fail := func(ref string) error {
		return &model.DeckError{
			Kind:    model.KindBoundaryTarget,
			Line:    line,
			Message: fmt.Sprintf("boundary target '%s' does not resolve", target),
			Chain:   []model.Link{instLink, {Ref: ref, Scope: fmt.Sprintf("Part '%s'", part.Name())}},
		}
	}

	if id, err := strconv.Atoi(rest); err == nil {
		if !part.HasNode(id) {
			return boundary.Target{}, fail(fmt.Sprintf("node %d", id))
		}
		return boundary.Target{Instance: inst.Name(), Nodes: []int{id}}, nil
	}
	if s := part.Nset(rest); s != nil {
		return boundary.Target{Instance: inst.Name(), Nodes: s.IDs()}, nil
	}
	if s := part.Elset(rest); s != nil {
		return boundary.Target{Instance: inst.Name(), Nodes: elementNodes(part, s.IDs())}, nil
	}
	return boundary.Target{}, fail(fmt.Sprintf("set '%s'", rest))
}

func (t *Targets) assemblySet(name string, line int) (boundary.Target, error) {
	if s := t.asm.Nset(name); s != nil {
		return boundary.Target{Instance: s.Instance, Nodes: s.IDs()}, nil
	}
	if s := t.asm.Elset(name); s != nil {
		inst := t.asm.Instance(s.Instance)
		return boundary.Target{Instance: s.Instance, Nodes: elementNodes(inst.Part(), s.IDs())}, nil
	}
	return boundary.Target{}, &model.DeckError{
		Kind:    model.KindBoundaryTarget,
		Line:    line,
		Message: fmt.Sprintf("boundary target '%s' is neither Instance-qualified nor an Assembly set", name),
		Chain: []model.Link{
			{Ref: fmt.Sprintf("set '%s'", name), Scope: fmt.Sprintf("Assembly '%s'", t.asm.Name())},
		},
	}
}

// elementNodes returns the distinct nodes of the given elements in first
// appearance order.
func elementNodes(part *model.Part, elems []int) []int {
	var out []int
	seen := make(map[int]struct{})
	for _, id := range elems {
		el, ok := part.Element(id)
		if !ok {
			continue
		}
		for _, n := range el.Nodes {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return slices.Clip(out)
}
