// Package resolver checks cross-references of a parsed deck and replays its
// boundary conditions.
//
// Part-local references are checked by CheckPart when each Part closes,
// optionally fanned out with ValidateParts. Resolve runs the deck-level
// phases once every scope has closed.
//
// # Resolution Phases
//
//  1. Sections: every section's material and section controls exist
//  2. Materials: property consistency and unused definitions
//  3. Sets: empty set diagnostics
//  4. Boundary: expand targets and fold directives across Steps
//
// # Usage
//
//	err := resolver.Resolve(ctx, m, resolver.Config{}, logger)
package resolver

import (
	"context"
	"log/slog"

	"github.com/golangfem/inpdeck/internal/boundary"
	"github.com/golangfem/inpdeck/model"
)

// Config controls deck-level resolution.
type Config struct {
	Diagnostics model.DiagnosticConfig
}

// resolver resolves one model.
type resolver struct {
	ctx *resolverContext
}

// Resolve runs the deck-level phases over m, attaching boundary states to
// the model and its Steps. If logger is nil, logging is disabled.
func Resolve(ctx context.Context, m *model.Model, cfg Config, logger *slog.Logger) error {
	r := &resolver{ctx: newResolverContext(m, cfg.Diagnostics, logger)}
	return r.resolve(ctx)
}

func (r *resolver) resolve(ctx context.Context) error {
	c := r.ctx
	phases := []struct {
		name string
		run  func() error
	}{
		{"sections", c.resolveSections},
		{"materials", c.checkMaterials},
		{"sets", c.checkSets},
		{"boundary", func() error { return c.accumulate(ctx) }},
	}
	for _, ph := range phases {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.Log(slog.LevelDebug, "starting phase", slog.String("phase", ph.name))
		if err := ph.run(); err != nil {
			return err
		}
		c.Log(slog.LevelDebug, "phase complete", slog.String("phase", ph.name))
	}

	m := c.model
	c.Log(slog.LevelInfo, "resolution complete",
		slog.Int("parts", len(m.Parts())),
		slog.Int("materials", len(m.Materials())),
		slog.Int("steps", len(m.Steps())),
		slog.Int("diagnostics", len(m.Diagnostics())))
	return nil
}

func (c *resolverContext) accumulate(ctx context.Context) error {
	m := c.model
	steps := m.Steps()
	res, err := boundary.Accumulate(ctx, m.Baseline(), steps, NewTargets(m.Assembly()), c.L)
	if err != nil {
		return err
	}
	m.SetInitialBoundaryState(res.Initial)
	for i, st := range steps {
		st.SetBoundaryState(res.Steps[i])
	}
	return nil
}
