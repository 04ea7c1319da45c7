package model

import (
	"cmp"
	"maps"
	"slices"
)

// DofKey identifies one degree of freedom of one node of one instance.
type DofKey struct {
	Instance string
	Node     int
	Dof      int
}

func compareDofKey(a, b DofKey) int {
	if c := cmp.Compare(key(a.Instance), key(b.Instance)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Node, b.Node); c != 0 {
		return c
	}
	return cmp.Compare(a.Dof, b.Dof)
}

// DofValue is a constrained dof and its prescribed value.
type DofValue struct {
	DofKey
	Value float64
}

// BoundaryState is an immutable snapshot of constrained dofs, ordered by
// instance, node and dof.
type BoundaryState struct {
	values map[DofKey]float64
	keys   []DofKey
}

// EmptyBoundaryState has no constrained dofs.
var EmptyBoundaryState = &BoundaryState{values: map[DofKey]float64{}}

// NewBoundaryState snapshots values. The map is copied.
func NewBoundaryState(values map[DofKey]float64) *BoundaryState {
	st := &BoundaryState{values: maps.Clone(values)}
	if st.values == nil {
		st.values = map[DofKey]float64{}
	}
	st.keys = slices.SortedFunc(maps.Keys(st.values), compareDofKey)
	return st
}

// Len returns the number of constrained dofs.
func (s *BoundaryState) Len() int { return len(s.keys) }

// Get returns the prescribed value of k.
func (s *BoundaryState) Get(k DofKey) (float64, bool) {
	v, ok := s.values[k]
	return v, ok
}

// Lookup is Get with the key spelled out.
func (s *BoundaryState) Lookup(instance string, node, dof int) (float64, bool) {
	return s.Get(DofKey{Instance: instance, Node: node, Dof: dof})
}

// Entries returns all constrained dofs in order.
func (s *BoundaryState) Entries() []DofValue {
	out := make([]DofValue, len(s.keys))
	for i, k := range s.keys {
		out[i] = DofValue{DofKey: k, Value: s.values[k]}
	}
	return out
}

// Values returns a mutable copy of the snapshot.
func (s *BoundaryState) Values() map[DofKey]float64 {
	return maps.Clone(s.values)
}

// Equal reports whether both snapshots constrain the same dofs to the
// same values.
func (s *BoundaryState) Equal(other *BoundaryState) bool {
	if s == nil || other == nil {
		return s == other
	}
	return maps.Equal(s.values, other.values)
}
