// Package boundary replays *Boundary directives across Steps.
//
// The accumulator folds the deck-level baseline into an initial state, then
// walks Steps in file order. Each Step starts from the previous Step's
// state; op=MOD (or no op) overlays the listed dofs and op=NEW discards
// everything accumulated so far, baseline included, before the Step's
// directives apply. Targets are expanded to (instance, node, dof) keys when
// the directive is applied.
package boundary

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/golangfem/inpdeck/internal/types"
	"github.com/golangfem/inpdeck/model"
)

// Target is a boundary target expanded to the nodes of one instance.
type Target struct {
	Instance string
	Nodes    []int
}

// Resolver expands a directive target such as "Block-1.Top".
type Resolver interface {
	Resolve(target string, line int) (Target, error)
}

// Result holds the state before any Step and the state during each Step,
// index-aligned with the Steps passed to Accumulate.
type Result struct {
	Initial *model.BoundaryState
	Steps   []*model.BoundaryState
}

type accumulator struct {
	r     Resolver
	cache map[string]Target
	types.Logger
}

// Accumulate replays baseline and then each Step's directives.
func Accumulate(ctx context.Context, baseline []model.BoundaryDirective, steps []*model.Step, r Resolver, logger *slog.Logger) (*Result, error) {
	a := &accumulator{r: r, cache: make(map[string]Target), Logger: types.Logger{L: logger}}

	cur := make(map[model.DofKey]float64)
	for _, d := range baseline {
		if err := a.apply(cur, d); err != nil {
			return nil, err
		}
	}
	res := &Result{Initial: model.NewBoundaryState(cur)}
	a.Log(slog.LevelDebug, "baseline applied",
		slog.Int("directives", len(baseline)), slog.Int("keys", len(cur)))

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds := step.Boundaries()
		if step.ResetsBoundaries() {
			a.Log(slog.LevelDebug, "op=NEW resets boundary state", slog.String("step", step.Name()))
			cur = make(map[model.DofKey]float64)
		} else {
			cur = maps.Clone(cur)
		}
		for _, d := range ds {
			if err := a.apply(cur, d); err != nil {
				return nil, inStep(err, step)
			}
		}
		res.Steps = append(res.Steps, model.NewBoundaryState(cur))
		a.Log(slog.LevelDebug, "step accumulated", slog.String("step", step.Name()),
			slog.Int("directives", len(ds)), slog.Int("keys", len(cur)))
	}
	return res, nil
}

func (a *accumulator) apply(cur map[model.DofKey]float64, d model.BoundaryDirective) error {
	t, ok := a.cache[model.NameKey(d.Target)]
	if !ok {
		var err error
		t, err = a.r.Resolve(d.Target, d.Line)
		if err != nil {
			return err
		}
		a.cache[model.NameKey(d.Target)] = t
	}
	for _, node := range t.Nodes {
		for dof := d.First; dof <= d.Last; dof++ {
			k := model.DofKey{Instance: t.Instance, Node: node, Dof: dof}
			cur[k] = d.Value
			if a.TraceEnabled() {
				a.Trace("dof set", slog.String("instance", t.Instance),
					slog.Int("node", node), slog.Int("dof", dof), slog.Float64("value", d.Value))
			}
		}
	}
	return nil
}

// inStep prefixes a DeckError message with the Step being replayed.
func inStep(err error, step *model.Step) error {
	if de, ok := model.AsDeckError(err); ok {
		de.Message = fmt.Sprintf("Step '%s': %s", step.Name(), de.Message)
	}
	return err
}

// Change is one key whose value differs between two states.
type Change struct {
	Key      model.DofKey
	Old, New float64
	// Added is set when the key is new; Removed when it disappeared.
	Added, Removed bool
}

// Diff lists keys that differ from prev to next: added and changed keys in
// key order, then removed keys in key order.
func Diff(prev, next *model.BoundaryState) []Change {
	var out []Change
	for _, e := range next.Entries() {
		old, ok := prev.Get(e.DofKey)
		switch {
		case !ok:
			out = append(out, Change{Key: e.DofKey, New: e.Value, Added: true})
		case old != e.Value:
			out = append(out, Change{Key: e.DofKey, Old: old, New: e.Value})
		}
	}
	for _, e := range prev.Entries() {
		if _, ok := next.Get(e.DofKey); !ok {
			out = append(out, Change{Key: e.DofKey, Old: e.Value, Removed: true})
		}
	}
	return out
}
