package deck

import (
	"log/slog"

	"github.com/golangfem/inpdeck/internal/lexer"
	"github.com/golangfem/inpdeck/internal/resolver"
	"github.com/golangfem/inpdeck/model"
)

func registerAssembly(r *Registry) {
	r.MustRegister(
		&Handler{
			Keyword: "assembly",
			Action:  ActionBegin,
			Scope:   ScopeAssembly,
			In:      []ScopeKind{ScopeDeck},
			Params:  []string{"name"},
			Run:     beginAssembly,
		},
		&Handler{
			Keyword: "end assembly",
			Action:  ActionEnd,
			Scope:   ScopeAssembly,
			Run:     endAssembly,
		},
		&Handler{
			Keyword: "instance",
			Action:  ActionBegin,
			Scope:   ScopeInstance,
			In:      []ScopeKind{ScopeAssembly},
			Params:  []string{"name", "part", "library", "instance"},
			Run:     beginInstance,
		},
		&Handler{
			Keyword: "end instance",
			Action:  ActionEnd,
			Scope:   ScopeInstance,
			Run:     endInstance,
		},
	)
}

func beginAssembly(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	// Instances need validated Parts.
	if err := p.flushParts(); err != nil {
		return nil, err
	}
	name := kw.String("name")
	if name == "" {
		name = "Assembly"
	}
	asm := model.NewAssembly(name, kw.Line)
	if err := p.model.SetAssembly(asm); err != nil {
		return nil, err
	}
	top := p.Top()
	top.Name = name
	top.Assembly = asm
	return nil, nil
}

func endAssembly(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	asm := p.Top().Assembly
	asm.Close(kw.Line)
	p.Log(slog.LevelDebug, "assembly closed", slog.String("assembly", asm.Name()),
		slog.Int("instances", len(asm.Instances())))
	return nil, nil
}

func beginInstance(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	name, err := requireParam(kw, "name")
	if err != nil {
		return nil, err
	}
	partName, err := requireParam(kw, "part")
	if err != nil {
		return nil, err
	}
	asm := p.stack.parent().Assembly
	part, err := resolver.InstancePart(p.model, asm, name, partName, kw.Line)
	if err != nil {
		return nil, err
	}
	inst := model.NewInstance(name, part, kw.Line)
	top := p.Top()
	top.Name = name
	top.Instance = inst

	// Line 1 is the translation, line 2 the rotation axis and angle.
	return func(p *Parser, dl *lexer.DataLine) error {
		vals, err := floats(dl, 0)
		if err != nil {
			return err
		}
		switch p.Top().dataLines {
		case 1:
			if len(vals) > 3 {
				return fieldError(dl, 3, "at most three translation components")
			}
			copy(inst.Transform.Translation[:], vals)
		case 2:
			if len(vals) != 7 {
				return fieldError(dl, len(vals), "seven rotation values (two axis points and an angle)")
			}
			inst.Transform.Rotation = &model.Rotation{
				A:     [3]float64{vals[0], vals[1], vals[2]},
				B:     [3]float64{vals[3], vals[4], vals[5]},
				Angle: vals[6],
			}
		default:
			return &model.DeckError{
				Kind:    model.KindStructural,
				Line:    dl.Line,
				Raw:     dl.Raw,
				Message: "*Instance takes at most two data lines",
			}
		}
		return nil
	}, nil
}

func endInstance(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	inst := p.Top().Instance
	asm := p.stack.parent().Assembly
	if err := asm.AddInstance(inst); err != nil {
		return nil, err
	}
	p.Log(slog.LevelDebug, "instance placed", slog.String("instance", inst.Name()),
		slog.String("part", inst.PartName()))
	return nil, nil
}
