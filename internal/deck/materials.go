package deck

import (
	"log/slog"
	"strings"

	"github.com/golangfem/inpdeck/internal/lexer"
	"github.com/golangfem/inpdeck/model"
)

// hyperelasticLaws are the strain energy forms accepted as bare flags on
// *Hyperelastic.
var hyperelasticLaws = []string{
	"arruda-boyce", "marlow", "mooney-rivlin", "neo hooke", "ogden",
	"polynomial", "reduced polynomial", "van der waals", "yeoh",
}

func registerMaterials(r *Registry) {
	r.MustRegister(
		&Handler{
			Keyword: "heading",
			In:      []ScopeKind{ScopeDeck},
			Params:  []string{},
			RawData: true,
			Run:     runHeading,
		},
		&Handler{
			Keyword: "preprint",
			In:      []ScopeKind{ScopeDeck},
			Params:  []string{"echo", "model", "history", "contact", "parsubstitution"},
			Run:     func(*Parser, *lexer.Keyword) (DataFunc, error) { return nil, nil },
		},
		&Handler{
			Keyword: "material",
			In:      []ScopeKind{ScopeDeck},
			Params:  []string{"name"},
			Run:     runMaterial,
		},
		&Handler{
			Keyword:          "density",
			In:               []ScopeKind{ScopeDeck},
			MaterialProperty: true,
			Params:           []string{"dependencies"},
			Run:              runDensity,
		},
		&Handler{
			Keyword:          "hyperelastic",
			In:               []ScopeKind{ScopeDeck},
			MaterialProperty: true,
			Params:           append([]string{"n", "moduli", "test data input"}, hyperelasticLaws...),
			Run:              runHyperelastic,
		},
		&Handler{
			Keyword:          "user material",
			In:               []ScopeKind{ScopeDeck},
			MaterialProperty: true,
			Params:           []string{"constants", "type", "unsymm"},
			Run:              runUserMaterial,
		},
		&Handler{
			Keyword:          "elastic",
			In:               []ScopeKind{ScopeDeck},
			MaterialProperty: true,
			Params:           []string{"type", "dependencies", "moduli"},
			Run:              runElastic,
		},
		&Handler{
			Keyword: "section controls",
			In:      []ScopeKind{ScopeDeck},
			Params:  []string{"name", "hourglass", "element deletion", "second order accuracy"},
			Run:     runSectionControls,
		},
	)
}

func runHeading(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	return func(p *Parser, dl *lexer.DataLine) error {
		p.model.AppendHeading(strings.TrimSpace(dl.Raw))
		return nil
	}, nil
}

func runMaterial(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	name, err := requireParam(kw, "name")
	if err != nil {
		return nil, err
	}
	mat := model.NewMaterial(name, kw.Line)
	if err := p.model.AddMaterial(mat); err != nil {
		return nil, err
	}
	p.material = mat
	p.Log(slog.LevelDebug, "material opened", slog.String("material", name), slog.Int("line", kw.Line))
	return nil, nil
}

// openMaterial returns the material a property keyword belongs to.
func openMaterial(p *Parser, kw *lexer.Keyword) (*model.Material, error) {
	if p.material == nil {
		return nil, &model.DeckError{
			Kind:    model.KindStructural,
			Line:    kw.Line,
			Keyword: kw.Name,
			Message: "*" + kw.Display + " must follow a *Material definition",
		}
	}
	return p.material, nil
}

func runDensity(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	mat, err := openMaterial(p, kw)
	if err != nil {
		return nil, err
	}
	prop := &model.Density{}
	mat.AddProperty(prop)
	// Only the first line counts; later lines are temperature-dependent
	// rows this model does not keep.
	return func(p *Parser, dl *lexer.DataLine) error {
		if p.Top().dataLines > 1 {
			return nil
		}
		v, err := floatField(dl, 0, 0)
		if err != nil {
			return err
		}
		prop.Value = v
		return nil
	}, nil
}

func runHyperelastic(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	mat, err := openMaterial(p, kw)
	if err != nil {
		return nil, err
	}
	prop := &model.Hyperelastic{}
	for _, prm := range kw.Params {
		if !prm.HasValue && prop.Law == "" {
			for _, law := range hyperelasticLaws {
				if prm.Name == law {
					prop.Law = law
				}
			}
		}
	}
	mat.AddProperty(prop)
	return func(p *Parser, dl *lexer.DataLine) error {
		vals, err := floats(dl, 0)
		if err != nil {
			return err
		}
		prop.Coefficients = append(prop.Coefficients, vals...)
		return nil
	}, nil
}

func runUserMaterial(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	mat, err := openMaterial(p, kw)
	if err != nil {
		return nil, err
	}
	prop := &model.UserMaterial{}
	if prm, ok := kw.Param("constants"); ok {
		n, ok := prm.Value.Int()
		if !ok || n < 0 {
			return nil, &model.DeckError{
				Kind:    model.KindStructural,
				Line:    kw.Line,
				Keyword: kw.Name,
				Raw:     kw.Raw,
				Message: "constants=" + prm.Value.Text() + " is not a count",
			}
		}
		prop.Count = n
	}
	mat.AddProperty(prop)
	return func(p *Parser, dl *lexer.DataLine) error {
		vals, err := floats(dl, 0)
		if err != nil {
			return err
		}
		prop.Constants = append(prop.Constants, vals...)
		return nil
	}, nil
}

func runElastic(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	mat, err := openMaterial(p, kw)
	if err != nil {
		return nil, err
	}
	prop := &model.Elastic{}
	mat.AddProperty(prop)
	return func(p *Parser, dl *lexer.DataLine) error {
		if p.Top().dataLines > 1 {
			return nil
		}
		e, err := floatField(dl, 0, 0)
		if err != nil {
			return err
		}
		nu, err := floatField(dl, 1, 0)
		if err != nil {
			return err
		}
		prop.Modulus, prop.Poisson = e, nu
		return nil
	}, nil
}

func runSectionControls(p *Parser, kw *lexer.Keyword) (DataFunc, error) {
	name, err := requireParam(kw, "name")
	if err != nil {
		return nil, err
	}
	sc := &model.SectionControls{
		Name:      name,
		Hourglass: strings.ToUpper(kw.String("hourglass")),
		Line:      kw.Line,
	}
	if err := p.model.AddSectionControls(sc); err != nil {
		return nil, err
	}
	return func(p *Parser, dl *lexer.DataLine) error {
		vals, err := floats(dl, 0)
		if err != nil {
			return err
		}
		sc.Params = append(sc.Params, vals...)
		return nil
	}, nil
}
