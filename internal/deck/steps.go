package deck

import (
	"log/slog"
	"strings"

	"github.com/golangfem/inpdeck/internal/lexer"
	"github.com/golangfem/inpdeck/model"
)

// boundaryTypes maps the named *Boundary shorthands to the dofs they fix.
var boundaryTypes = map[string][]int{
	"ENCASTRE": {1, 2, 3, 4, 5, 6},
	"PINNED":   {1, 2, 3},
	"XSYMM":    {1, 5, 6},
	"YSYMM":    {2, 4, 6},
	"ZSYMM":    {3, 4, 5},
	"XASYMM":   {2, 3, 4},
	"YASYMM":   {1, 3, 5},
	"ZASYMM":   {1, 2, 6},
}

func registerSteps(r *Registry) {
	r.MustRegister(
		&Handler{
			Keyword: "step",
			Action:  ActionBegin,
			Scope:   ScopeStep,
			In:      []ScopeKind{ScopeDeck},
			Params:  []string{"name", "nlgeom", "inc", "unsymm", "perturbation"},
			Run:     beginStep,
		},
		&Handler{
			Keyword: "end step",
			Action:  ActionEnd,
			Scope:   ScopeStep,
			Run:     endStep,
		},
		procedureHandler("static", "Static"),
		procedureHandler("dynamic", "Dynamic"),
		&Handler{
			Keyword: "boundary",
			In:      []ScopeKind{ScopeDeck, ScopeStep},
			Params:  []string{"op", "type", "amplitude", "fixed"},
			Run:     runBoundary,
		},
		&Handler{
			Keyword: "output",
			In:      []ScopeKind{ScopeStep},
			Params:  []string{"field", "history", "variable", "frequency", "number interval", "time interval"},
			Run:     runOutput,
		},
		&Handler{
			Keyword: "node output",
			In:      []ScopeKind{ScopeStep},
			Params:  []string{"nset", "variable"},
			Run:     outputVariables(false),
		},
		&Handler{
			Keyword: "element output",
			In:      []ScopeKind{ScopeStep},
			Params:  []string{"elset", "variable", "directions"},
			Run:     outputVariables(true),
		},
	)
}

func beginStep(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	if err := p.flushParts(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(kw.String("name"))
	if name == "" {
		name = "Step-" + itoa(len(p.model.Steps())+1)
	}
	step := model.NewStep(name, kw.Line)
	nlgeom, err := flagValue(kw, "nlgeom")
	if err != nil {
		return nil, err
	}
	step.NLGeom = nlgeom
	if err := p.model.AddStep(step); err != nil {
		return nil, err
	}
	top := p.Top()
	top.Name = name
	top.Step = step
	p.Log(slog.LevelDebug, "step opened", slog.String("step", name), slog.Int("line", kw.Line))
	return nil, nil
}

func endStep(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	step := p.Top().Step
	if step.Procedure == nil {
		p.Report(model.Diagnostic{
			Severity: model.SeverityWarning,
			Code:     model.DiagStepWithoutProc,
			Message:  "Step '" + step.Name() + "' has no analysis procedure",
			Keyword:  kw.Name,
			Line:     step.Line(),
		})
	}
	step.Close(kw.Line)
	return nil, nil
}

func procedureHandler(keyword, kind string) *Handler {
	return &Handler{
		Keyword: keyword,
		In:      []ScopeKind{ScopeStep},
		Params:  []string{"direct", "stabilize", "allsdtol", "application", "continue"},
		Run: func(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
			step := p.Top().Step
			if prev := step.Procedure; prev != nil {
				return nil, &model.DeckError{
					Kind:    model.KindStructural,
					Line:    kw.Line,
					Message: "Step '" + step.Name() + "' already has a *" + prev.Kind + " procedure at line " + itoa(prev.Line),
				}
			}
			proc := &model.Procedure{Kind: kind, Initial: 1, Total: 1, Line: kw.Line}
			step.Procedure = proc
			return func(p *Parser, dl *lexer.DataLine) error {
				if p.Top().dataLines > 1 {
					return nil
				}
				dst := []*float64{&proc.Initial, &proc.Total, &proc.Min, &proc.Max}
				for i, d := range dst {
					v, err := floatField(dl, i, *d)
					if err != nil {
						return err
					}
					*d = v
				}
				return nil
			}, nil
		},
	}
}

func runBoundary(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	top := p.Top()
	op := model.OpNone
	if prm, ok := kw.Param("op"); ok {
		switch strings.ToUpper(prm.Value.Text()) {
		case "MOD":
			op = model.OpMod
		case "NEW":
			op = model.OpNew
		default:
			return nil, &model.DeckError{
				Kind:    model.KindStructural,
				Line:    kw.Line,
				Raw:     kw.Raw,
				Message: "op=" + prm.Value.Text() + " is not MOD or NEW",
			}
		}
		if top.Kind != ScopeStep {
			return nil, &model.DeckError{
				Kind:    model.KindStructural,
				Line:    kw.Line,
				Raw:     kw.Raw,
				Message: "op= is only valid on a *Boundary inside a Step",
			}
		}
	}

	add := p.model.AddBaseline
	if top.Kind == ScopeStep {
		add = top.Step.AddBoundary
		if op == model.OpNew {
			top.Step.ResetBoundaries()
		}
	}
	return func(p *Parser, dl *lexer.DataLine) error {
		ds, err := boundaryDirectives(p, dl, op)
		if err != nil {
			return err
		}
		for _, d := range ds {
			add(d)
		}
		return nil
	}, nil
}

// boundaryDirectives parses "target, first[, last[, value]]" or
// "target, TYPE". A named type may expand to several dof ranges.
func boundaryDirectives(p *Parser, dl *lexer.DataLine, op model.BoundaryOp) ([]model.BoundaryDirective, error) {
	if len(dl.Fields) == 0 || dl.Fields[0].IsEmpty() {
		return nil, fieldError(dl, 0, "a boundary target")
	}
	target := dl.Fields[0].Text()
	base := model.BoundaryDirective{Target: target, Op: op, Line: dl.Line}

	if len(dl.Fields) > 1 && dl.Fields[1].Kind() == lexer.ValueString && !dl.Fields[1].IsEmpty() {
		name := strings.ToUpper(dl.Fields[1].Text())
		dofs, ok := boundaryTypes[name]
		if !ok {
			p.Report(model.Diagnostic{
				Severity: model.SeverityError,
				Code:     model.DiagUnknownBCType,
				Message:  "boundary type " + name + " on " + target + " is not supported",
				Keyword:  "boundary",
				Line:     dl.Line,
			})
			return nil, nil
		}
		var out []model.BoundaryDirective
		for _, r := range dofRanges(dofs) {
			d := base
			d.First, d.Last = r[0], r[1]
			out = append(out, d)
		}
		return out, nil
	}

	first, err := intField(dl, 1, "a first dof")
	if err != nil {
		return nil, err
	}
	last := first
	if len(dl.Fields) > 2 && !dl.Fields[2].IsEmpty() {
		if last, err = intField(dl, 2, "a last dof"); err != nil {
			return nil, err
		}
	}
	value, err := floatField(dl, 3, 0)
	if err != nil {
		return nil, err
	}
	// Dof numbers above 6 cover temperature, pressure and user dofs.
	if first < 1 || last < first {
		return nil, &model.DeckError{
			Kind:    model.KindStructural,
			Line:    dl.Line,
			Raw:     dl.Raw,
			Message: "dof range " + itoa(first) + ".." + itoa(last) + " is not an ascending range of positive dofs",
		}
	}
	base.First, base.Last, base.Value = first, last, value
	return []model.BoundaryDirective{base}, nil
}

// dofRanges folds a sorted dof list into inclusive runs.
func dofRanges(dofs []int) [][2]int {
	var out [][2]int
	for _, d := range dofs {
		if n := len(out); n > 0 && out[n-1][1] == d-1 {
			out[n-1][1] = d
			continue
		}
		out = append(out, [2]int{d, d})
	}
	return out
}

func runOutput(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	kind := model.OutputField
	if kw.Has("history") {
		kind = model.OutputHistory
	}
	p.Top().Step.AddOutput(&model.OutputRequest{
		Kind:     kind,
		Variable: strings.ToUpper(kw.String("variable")),
		Line:     kw.Line,
	})
	return nil, nil
}

func outputVariables(element bool) RunFunc {
	return func(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
		step := p.Top().Step
		outs := step.Outputs()
		if len(outs) == 0 {
			return nil, &model.DeckError{
				Kind:    model.KindStructural,
				Line:    kw.Line,
				Message: "*" + kw.Display + " must follow an *Output request in Step '" + step.Name() + "'",
			}
		}
		out := outs[len(outs)-1]
		return func(p *Parser, dl *lexer.DataLine) error {
			vars := words(dl)
			for i := range vars {
				vars[i] = strings.ToUpper(vars[i])
			}
			if element {
				out.Element = append(out.Element, vars...)
			} else {
				out.Node = append(out.Node, vars...)
			}
			return nil
		}, nil
	}
}
