package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/golangfem/inpdeck/internal/types"
	"github.com/golangfem/inpdeck/model"
)

// CheckPart verifies the references local to a closed Part: element
// connectivity, set members and section elsets. The Part is not modified.
func CheckPart(part *model.Part) error {
	scope := fmt.Sprintf("Part '%s'", part.Name())

	for _, el := range part.Elements() {
		for _, id := range el.Nodes {
			if part.HasNode(id) {
				continue
			}
			return &model.DeckError{
				Kind:    model.KindUnresolvedReference,
				Line:    el.Line,
				Message: fmt.Sprintf("element %d refers to undeclared node %d", el.ID, id),
				Chain: []model.Link{
					{Ref: fmt.Sprintf("element %d", el.ID), Scope: scope, Line: el.Line, OK: true},
					{Ref: fmt.Sprintf("node %d", id)},
				},
			}
		}
	}

	for _, s := range part.Nsets() {
		if err := checkMembers(part, s, scope); err != nil {
			return err
		}
	}
	for _, s := range part.Elsets() {
		if err := checkMembers(part, s, scope); err != nil {
			return err
		}
	}

	for _, sec := range part.Sections() {
		if part.Elset(sec.Elset) != nil {
			continue
		}
		return &model.DeckError{
			Kind:    model.KindUnresolvedReference,
			Line:    sec.Line,
			Message: fmt.Sprintf("%s assigns undeclared elset '%s'", sec.Kind, sec.Elset),
			Chain: []model.Link{
				{Ref: fmt.Sprintf("Section '%s' → elset '%s'", sec.Kind, sec.Elset), Scope: scope, Line: sec.Line},
			},
		}
	}
	return nil
}

func checkMembers(part *model.Part, s *model.Set, scope string) error {
	what := "node"
	exists := part.HasNode
	if s.Kind() == model.SetElement {
		what = "element"
		exists = part.HasElement
	}
	for _, id := range s.IDs() {
		if exists(id) {
			continue
		}
		return &model.DeckError{
			Kind:    model.KindUnresolvedReference,
			Line:    s.Line(),
			Message: fmt.Sprintf("%s '%s' lists undeclared %s %d", s.Kind(), s.Name(), what, id),
			Chain: []model.Link{
				{Ref: fmt.Sprintf("%s '%s'", s.Kind(), s.Name()), Scope: scope, Line: s.Line(), OK: true},
				{Ref: fmt.Sprintf("%s %d", what, id)},
			},
		}
	}
	return nil
}

// ValidateParts runs CheckPart over closed Parts on at most workers
// goroutines. Parts are read-only here. When several Parts fail, the error
// of the earliest Part is returned so results do not depend on scheduling.
func ValidateParts(ctx context.Context, parts []*model.Part, workers int, logger *slog.Logger) error {
	log := types.Logger{L: logger}
	if workers < 1 {
		workers = 1
	}
	log.Log(slog.LevelDebug, "validating parts",
		slog.Int("parts", len(parts)), slog.Int("workers", workers))

	errs := make([]error, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			errs[i] = CheckPart(part)
			if log.TraceEnabled() {
				log.Trace("part checked", slog.String("part", part.Name()), slog.Bool("ok", errs[i] == nil))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
