package deck

import (
	"log/slog"
	"strings"

	"github.com/golangfem/inpdeck/internal/lexer"
	"github.com/golangfem/inpdeck/model"
)

func registerGeometry(r *Registry) {
	r.MustRegister(
		&Handler{
			Keyword: "part",
			Action:  ActionBegin,
			Scope:   ScopePart,
			In:      []ScopeKind{ScopeDeck},
			Params:  []string{"name"},
			Run:     beginPart,
		},
		&Handler{
			Keyword: "end part",
			Action:  ActionEnd,
			Scope:   ScopePart,
			Run:     endPart,
		},
		&Handler{
			Keyword: "node",
			In:      []ScopeKind{ScopePart},
			Params:  []string{"nset", "system", "input"},
			Run:     runNode,
		},
		&Handler{
			Keyword: "element",
			In:      []ScopeKind{ScopePart},
			Params:  []string{"type", "elset", "input"},
			Run:     runElement,
		},
		&Handler{
			Keyword: "nset",
			In:      []ScopeKind{ScopePart, ScopeAssembly},
			Params:  []string{"nset", "generate", "instance", "internal", "unsorted"},
			Run:     setRunner(model.SetNode),
		},
		&Handler{
			Keyword: "elset",
			In:      []ScopeKind{ScopePart, ScopeAssembly},
			Params:  []string{"elset", "generate", "instance", "internal", "unsorted"},
			Run:     setRunner(model.SetElement),
		},
		sectionHandler("solid section", "Solid Section"),
		sectionHandler("shell section", "Shell Section"),
		sectionHandler("membrane section", "Membrane Section"),
	)
}

func beginPart(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	name, err := requireParam(kw, "name")
	if err != nil {
		return nil, err
	}
	part := model.NewPart(name, kw.Line)
	if err := p.model.AddPart(part); err != nil {
		return nil, err
	}
	top := p.Top()
	top.Name = name
	top.Part = part
	p.Log(slog.LevelDebug, "part opened", slog.String("part", name), slog.Int("line", kw.Line))
	return nil, nil
}

func endPart(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	part := p.Top().Part
	part.Close(kw.Line)
	p.Log(slog.LevelDebug, "part closed", slog.String("part", part.Name()),
		slog.Int("nodes", part.NodeCount()), slog.Int("elements", part.ElementCount()))
	return nil, p.closePart(part)
}

// partSet returns the named set of part, creating it when absent. Used by
// the elset= and nset= parameters, which extend an existing set.
func partSet(part *model.Part, kind model.SetKind, name string, line int) (*model.Set, error) {
	if s := part.Set(kind, name); s != nil {
		return s, nil
	}
	s := model.NewSet(name, kind, line)
	if err := part.AddSet(s); err != nil {
		return nil, err
	}
	return s, nil
}

func runNode(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	part := p.Top().Part
	var nset *model.Set
	if name := kw.String("nset"); name != "" {
		s, err := partSet(part, model.SetNode, name, kw.Line)
		if err != nil {
			return nil, err
		}
		nset = s
	}
	return func(p *Parser, dl *lexer.DataLine) error {
		id, err := intField(dl, 0, "a node id")
		if err != nil {
			return err
		}
		n := model.Node{ID: id, Line: dl.Line}
		for i := range 3 {
			v, err := floatField(dl, i+1, 0)
			if err != nil {
				return err
			}
			n.Coords[i] = v
		}
		if err := part.AddNode(n); err != nil {
			return err
		}
		if nset != nil {
			nset.Add(id)
		}
		return nil
	}, nil
}

func runElement(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	typ, err := requireParam(kw, "type")
	if err != nil {
		return nil, err
	}
	part := p.Top().Part
	var elset *model.Set
	if name := kw.String("elset"); name != "" {
		s, err := partSet(part, model.SetElement, name, kw.Line)
		if err != nil {
			return nil, err
		}
		elset = s
	}

	// A trailing comma continues the connectivity on the next line.
	var open int
	continuing := false
	return func(p *Parser, dl *lexer.DataLine) error {
		if continuing {
			ids, err := ints(dl, 0, "a node id")
			if err != nil {
				return err
			}
			if err := part.ExtendElement(open, dl.Line, ids...); err != nil {
				return err
			}
			continuing = dl.Continued
			return nil
		}
		id, err := intField(dl, 0, "an element id")
		if err != nil {
			return err
		}
		nodes, err := ints(dl, 1, "a node id")
		if err != nil {
			return err
		}
		if err := part.AddElement(model.Element{ID: id, Type: typ, Nodes: nodes, Line: dl.Line}); err != nil {
			return err
		}
		if elset != nil {
			elset.Add(id)
		}
		open, continuing = id, dl.Continued
		return nil
	}, nil
}

// setRunner handles *Nset and *Elset, both inside a Part and at Assembly
// level with instance=.
func setRunner(kind model.SetKind) RunFunc {
	return func(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
		name, err := requireParam(kw, kind.String())
		if err != nil {
			return nil, err
		}
		set := model.NewSet(name, kind, kw.Line)
		generate := kw.Has("generate")

		top := p.Top()
		if top.Kind == ScopeAssembly {
			return assemblySet(p, kw, set, generate)
		}
		part := top.Part
		if err := part.AddSet(set); err != nil {
			return nil, err
		}
		return func(p *Parser, dl *lexer.DataLine) error {
			if generate {
				return generateMembers(set, dl)
			}
			return addMembers(set, dl, func(ref string) (*model.Set, error) {
				other := part.Set(kind, ref)
				if other == nil {
					return nil, &model.DeckError{
						Kind:    model.KindUnresolvedReference,
						Line:    dl.Line,
						Message: kind.String() + " '" + set.Name() + "' refers to an undeclared " + kind.String(),
						Chain: []model.Link{
							{Ref: kind.String() + " '" + set.Name() + "'", Scope: "Part '" + part.Name() + "'", Line: set.Line(), OK: true},
							{Ref: kind.String() + " '" + ref + "'", Line: dl.Line},
						},
					}
				}
				return other, nil
			})
		}, nil
	}
}

// assemblySet builds an Assembly-level set whose members are ids of one
// instance's Part. The instance and the ids must already exist.
func assemblySet(p *Parser, kw *lexer.Keyword, set *model.Set, generate bool) (DataFunc, error) {
	asm := p.Top().Assembly
	instName, err := requireParam(kw, "instance")
	if err != nil {
		return nil, err
	}
	inst := asm.Instance(instName)
	if inst == nil {
		return nil, &model.DeckError{
			Kind:    model.KindUnresolvedReference,
			Line:    kw.Line,
			Message: set.Kind().String() + " '" + set.Name() + "' names an undeclared instance",
			Chain: []model.Link{
				{Ref: set.Kind().String() + " '" + set.Name() + "'", Scope: "Assembly '" + asm.Name() + "'", Line: kw.Line, OK: true},
				{Ref: "instance '" + instName + "'", Line: kw.Line},
			},
		}
	}
	if err := asm.AddSet(&model.AssemblySet{Set: set, Instance: inst.Name()}); err != nil {
		return nil, err
	}
	part := inst.Part()
	kind := set.Kind()
	return func(p *Parser, dl *lexer.DataLine) error {
		before := set.Len()
		var err error
		if generate {
			err = generateMembers(set, dl)
		} else {
			err = addMembers(set, dl, func(ref string) (*model.Set, error) {
				other := part.Set(kind, ref)
				if other == nil {
					return nil, &model.DeckError{
						Kind:    model.KindUnresolvedReference,
						Line:    dl.Line,
						Message: kind.String() + " '" + set.Name() + "' refers to an undeclared " + kind.String(),
						Chain: []model.Link{
							{Ref: "instance '" + inst.Name() + "'", Scope: "Assembly '" + asm.Name() + "'", Line: inst.Line(), OK: true},
							{Ref: kind.String() + " '" + ref + "'", Scope: "Part '" + part.Name() + "'", Line: dl.Line},
						},
					}
				}
				return other, nil
			})
		}
		if err != nil {
			return err
		}
		ids := set.IDs()
		for _, id := range ids[before:] {
			if kind == model.SetNode && part.HasNode(id) || kind == model.SetElement && part.HasElement(id) {
				continue
			}
			what := "node"
			if kind == model.SetElement {
				what = "element"
			}
			return &model.DeckError{
				Kind:    model.KindUnresolvedReference,
				Line:    dl.Line,
				Message: what + " " + itoa(id) + " is not declared in the instance's Part",
				Chain: []model.Link{
					{Ref: "instance '" + inst.Name() + "'", Scope: "Part '" + part.Name() + "'", Line: inst.Line(), OK: true},
					{Ref: what + " " + itoa(id), Line: dl.Line},
				},
			}
		}
		return nil
	}, nil
}

// generateMembers expands a "first, last[, increment]" line.
func generateMembers(set *model.Set, dl *lexer.DataLine) error {
	first, err := intField(dl, 0, "a first id")
	if err != nil {
		return err
	}
	last, err := intField(dl, 1, "a last id")
	if err != nil {
		return err
	}
	step := 1
	if len(dl.Fields) > 2 && !dl.Fields[2].IsEmpty() {
		if step, err = intField(dl, 2, "an increment"); err != nil {
			return err
		}
	}
	if step <= 0 || last < first {
		return &model.DeckError{
			Kind:    model.KindStructural,
			Line:    dl.Line,
			Raw:     dl.Raw,
			Message: "generate range " + itoa(first) + ".." + itoa(last) + " by " + itoa(step) + " is empty",
		}
	}
	for id := first; id <= last; id += step {
		set.Add(id)
	}
	return nil
}

// addMembers adds literal ids and the members of sets named on the line.
func addMembers(set *model.Set, dl *lexer.DataLine, lookup func(string) (*model.Set, error)) error {
	for i, f := range dl.Fields {
		if f.IsEmpty() {
			continue
		}
		if id, ok := f.Int(); ok {
			set.Add(id)
			continue
		}
		if f.IsNumber() {
			return fieldError(dl, i, "an id or a set name")
		}
		other, err := lookup(f.Text())
		if err != nil {
			return err
		}
		set.Add(other.IDs()...)
	}
	return nil
}

func sectionHandler(keyword, kind string) *Handler {
	return &Handler{
		Keyword: keyword,
		In:      []ScopeKind{ScopePart},
		Params:  []string{"elset", "material", "controls", "orientation", "offset", "section integration"},
		Run: func(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
			elset, err := requireParam(kw, "elset")
			if err != nil {
				return nil, err
			}
			mat, err := requireParam(kw, "material")
			if err != nil {
				return nil, err
			}
			part := p.Top().Part
			sec := model.Section{
				Kind:     kind,
				Elset:    elset,
				Material: mat,
				Controls: strings.TrimSpace(kw.String("controls")),
				Line:     kw.Line,
			}
			if err := part.AddSection(sec); err != nil {
				return nil, err
			}
			secs := part.Sections()
			added := secs[len(secs)-1]
			return func(p *Parser, dl *lexer.DataLine) error {
				vals, err := floats(dl, 0)
				if err != nil {
					return err
				}
				added.Params = append(added.Params, vals...)
				return nil
			}, nil
		},
	}
}
