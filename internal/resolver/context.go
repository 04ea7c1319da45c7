package resolver

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/golangfem/inpdeck/internal/types"
	"github.com/golangfem/inpdeck/model"
)

// resolverContext holds the model and working state shared by the phases.
type resolverContext struct {
	model *model.Model

	// usedMaterials collects material keys referenced by any section.
	usedMaterials map[string]struct{}

	diagConfig model.DiagnosticConfig

	types.Logger
}

func newResolverContext(m *model.Model, diagConfig model.DiagnosticConfig, logger *slog.Logger) *resolverContext {
	return &resolverContext{
		model:         m,
		usedMaterials: make(map[string]struct{}),
		diagConfig:    diagConfig,
		Logger:        types.Logger{L: logger},
	}
}

// emitDiagnostic records a diagnostic unless its code is ignored.
func (c *resolverContext) emitDiagnostic(code string, severity model.Severity, line int, message string) {
	if !c.diagConfig.ShouldReport(code) {
		return
	}
	c.model.AddDiagnostic(model.Diagnostic{
		Severity: c.diagConfig.Severity(code, severity),
		Code:     code,
		Message:  message,
		Line:     line,
	})
}

// resolveSections checks that every section names a declared material and,
// when given, declared section controls.
func (c *resolverContext) resolveSections() error {
	m := c.model
	for _, part := range m.Parts() {
		scope := fmt.Sprintf("Part '%s'", part.Name())
		for _, sec := range part.Sections() {
			head := model.Link{
				Ref:   fmt.Sprintf("Section '%s' → elset '%s'", sec.Kind, sec.Elset),
				Scope: scope,
				Line:  sec.Line,
				OK:    true,
			}
			if m.Material(sec.Material) == nil {
				return &model.DeckError{
					Kind:    model.KindUnresolvedReference,
					Line:    sec.Line,
					Keyword: strings.ToLower(sec.Kind),
					Message: fmt.Sprintf("%s names undeclared material '%s'", sec.Kind, sec.Material),
					Chain:   []model.Link{head, {Ref: fmt.Sprintf("material '%s'", sec.Material)}},
				}
			}
			c.usedMaterials[model.NameKey(sec.Material)] = struct{}{}
			if sec.Controls != "" && m.SectionControls(sec.Controls) == nil {
				return &model.DeckError{
					Kind:    model.KindUnresolvedReference,
					Line:    sec.Line,
					Message: fmt.Sprintf("%s names undeclared section controls '%s'", sec.Kind, sec.Controls),
					Chain:   []model.Link{head, {Ref: fmt.Sprintf("section controls '%s'", sec.Controls)}},
				}
			}
			if c.TraceEnabled() {
				c.Trace("section resolved", slog.String("part", part.Name()),
					slog.String("elset", sec.Elset), slog.String("material", sec.Material))
			}
		}
	}
	return nil
}

func (c *resolverContext) checkMaterials() error {
	for _, mat := range c.model.Materials() {
		for _, prop := range mat.Properties() {
			um, ok := prop.(*model.UserMaterial)
			if !ok || um.Count == len(um.Constants) {
				continue
			}
			c.emitDiagnostic(model.DiagUserMaterialCount, model.SeverityWarning, mat.Line(),
				fmt.Sprintf("material '%s': *User Material declares constants=%d but lists %d",
					mat.Name(), um.Count, len(um.Constants)))
		}
		if _, ok := c.usedMaterials[model.NameKey(mat.Name())]; !ok {
			c.emitDiagnostic(model.DiagUnusedMaterial, model.SeverityInfo, mat.Line(),
				fmt.Sprintf("material '%s' is not assigned by any section", mat.Name()))
		}
	}
	return nil
}

func (c *resolverContext) checkSets() error {
	for _, part := range c.model.Parts() {
		for _, s := range append(part.Nsets(), part.Elsets()...) {
			if s.Len() == 0 {
				c.emitDiagnostic(model.DiagEmptySet, model.SeverityWarning, s.Line(),
					fmt.Sprintf("%s '%s' in Part '%s' has no members", s.Kind(), s.Name(), part.Name()))
			}
		}
	}
	return nil
}
