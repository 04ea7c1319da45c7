package model

import (
	"errors"
	"math"
	"testing"

	"github.com/golangfem/inpdeck/internal/testutil"
)

func TestDeckErrorRendering(t *testing.T) {
	err := &DeckError{
		Kind:    KindUnresolvedReference,
		Line:    23,
		Keyword: "solid section",
		Message: "Solid Section names undeclared material 'Generic2'",
		Chain: []Link{
			{Ref: "Section 'Solid Section' → elset 'All'", Scope: "Part 'Block'", Line: 23, OK: true},
			{Ref: "material 'Generic2'"},
		},
	}
	testutil.Equal(t,
		"line 23: unresolved-reference: Solid Section names undeclared material 'Generic2' "+
			"(Section 'Solid Section' → elset 'All' → Part 'Block' : OK; material 'Generic2' : NOT FOUND)",
		err.Error())

	err.File = "block.inp"
	testutil.Contains(t, err.Error(), "block.inp:23: ")

	err.Line = 0
	testutil.Contains(t, err.Error(), "block.inp: unresolved-reference")
}

func TestDeckErrorRaw(t *testing.T) {
	err := Errorf(KindLex, 4, "malformed number %q", "1.2.3")
	err.Raw = "1.2.3, 4"
	testutil.Equal(t, `line 4: lex: malformed number "1.2.3": "1.2.3, 4"`, err.Error())
}

func TestDeckErrorSentinels(t *testing.T) {
	for _, tc := range []struct {
		kind ErrorKind
		want error
	}{
		{KindLex, ErrLex},
		{KindUnknownKeyword, ErrUnknownKeyword},
		{KindStructural, ErrStructural},
		{KindDuplicateID, ErrDuplicateID},
		{KindUnresolvedReference, ErrUnresolvedReference},
		{KindBoundaryTarget, ErrBoundaryTarget},
	} {
		var err error = Errorf(tc.kind, 1, "x")
		testutil.ErrorIs(t, err, tc.want, "kind %s", tc.kind)
		de, ok := AsDeckError(err)
		testutil.True(t, ok)
		testutil.Equal(t, tc.kind, de.Kind)
	}
	_, ok := AsDeckError(errors.New("plain"))
	testutil.False(t, ok)
}

func TestDiagnosticsErrorMessage(t *testing.T) {
	one := &DiagnosticsError{Diagnostics: []Diagnostic{{Severity: SeverityError, Message: "bad", Line: 3}}}
	testutil.Equal(t, "[error] line 3: bad", one.Error())

	two := &DiagnosticsError{Diagnostics: []Diagnostic{
		{Severity: SeverityError, Message: "bad"},
		{Severity: SeverityError, Message: "worse"},
	}}
	testutil.Contains(t, two.Error(), "2 diagnostics")
	testutil.Contains(t, two.Error(), "first: [error] bad")
}

func TestDuplicateNodeInPart(t *testing.T) {
	p := NewPart("Block", 1)
	testutil.NoError(t, p.AddNode(Node{ID: 1, Line: 2}))
	err := p.AddNode(Node{ID: 1, Line: 3})
	testutil.ErrorIs(t, err, ErrDuplicateID)
	testutil.Contains(t, err.Error(), "node 1")
	testutil.Contains(t, err.Error(), "Part 'Block'")
	testutil.Equal(t, 1, p.NodeCount(), "duplicate not stored")
}

func TestClosedPartRejectsMutation(t *testing.T) {
	p := NewPart("Block", 1)
	p.Close(5)
	testutil.True(t, p.Closed())
	testutil.Equal(t, 5, p.EndLine())
	testutil.ErrorIs(t, p.AddNode(Node{ID: 1, Line: 6}), ErrStructural)
	testutil.ErrorIs(t, p.AddElement(Element{ID: 1, Line: 6}), ErrStructural)
}

func TestPartReturnsCopies(t *testing.T) {
	p := NewPart("Block", 1)
	testutil.NoError(t, p.AddNode(Node{ID: 1, Line: 2}))
	testutil.NoError(t, p.AddNode(Node{ID: 2, Coords: [3]float64{1, 0, 0}, Line: 3}))
	testutil.NoError(t, p.AddElement(Element{ID: 1, Type: "T3D2", Nodes: []int{1, 2}, Line: 4}))

	nodes := p.Nodes()
	nodes[0].Coords[0] = 99
	nodes[1].ID = 7
	elems := p.Elements()
	elems[0].Nodes[1] = 42
	elems[0].Type = "B31"
	el, _ := p.Element(1)
	el.Nodes[0] = 42
	n, _ := p.Node(2)
	n.Coords[1] = 5

	n, ok := p.Node(1)
	testutil.True(t, ok)
	testutil.Equal(t, [3]float64{0, 0, 0}, n.Coords)
	testutil.True(t, p.HasNode(2))
	testutil.False(t, p.HasNode(7))
	n, _ = p.Node(2)
	testutil.Equal(t, [3]float64{1, 0, 0}, n.Coords)
	el, ok = p.Element(1)
	testutil.True(t, ok)
	testutil.Equal(t, "T3D2", el.Type)
	testutil.SliceEqual(t, []int{1, 2}, el.Nodes)
	_, ok = p.Element(2)
	testutil.False(t, ok)
}

func TestExtendElement(t *testing.T) {
	p := NewPart("Block", 1)
	testutil.NoError(t, p.AddElement(Element{ID: 1, Type: "C3D8", Nodes: []int{1, 2, 3}, Line: 2}))
	testutil.NoError(t, p.ExtendElement(1, 3, 4, 5))
	el, _ := p.Element(1)
	testutil.SliceEqual(t, []int{1, 2, 3, 4, 5}, el.Nodes)
	testutil.ErrorIs(t, p.ExtendElement(2, 4, 6), ErrStructural)

	p.Close(5)
	testutil.ErrorIs(t, p.ExtendElement(1, 6, 6), ErrStructural)
}

func TestSetNamespaces(t *testing.T) {
	p := NewPart("Block", 1)
	testutil.NoError(t, p.AddSet(NewSet("All", SetNode, 2)))
	testutil.NoError(t, p.AddSet(NewSet("all", SetElement, 3)), "elsets are a separate namespace")
	testutil.ErrorIs(t, p.AddSet(NewSet("ALL", SetNode, 4)), ErrDuplicateID)
	testutil.NotNil(t, p.Nset("aLL"))
	testutil.NotNil(t, p.Set(SetElement, "All"))
}

func TestSetCollapsesDuplicates(t *testing.T) {
	s := NewSet("Top", SetNode, 1)
	s.Add(5, 6, 5, 7, 6)
	testutil.SliceEqual(t, []int{5, 6, 7}, s.IDs())
	testutil.True(t, s.Contains(7))
	testutil.False(t, s.Contains(8))
}

func TestModelNamesCaseInsensitive(t *testing.T) {
	m := New()
	testutil.NoError(t, m.AddPart(NewPart("Block", 1)))
	testutil.ErrorIs(t, m.AddPart(NewPart("BLOCK", 9)), ErrDuplicateID)
	testutil.NotNil(t, m.Part("block"))

	testutil.NoError(t, m.AddMaterial(NewMaterial("Generic", 10)))
	testutil.ErrorIs(t, m.AddMaterial(NewMaterial("generic", 12)), ErrDuplicateID)

	testutil.NoError(t, m.SetAssembly(NewAssembly("Assembly", 20)))
	testutil.ErrorIs(t, m.SetAssembly(NewAssembly("Other", 30)), ErrStructural)
}

func TestAssemblyInstances(t *testing.T) {
	part := NewPart("Block", 1)
	asm := NewAssembly("Assembly", 10)
	testutil.NoError(t, asm.AddInstance(NewInstance("Block-1", part, 11)))
	testutil.ErrorIs(t, asm.AddInstance(NewInstance("block-1", part, 12)), ErrDuplicateID)
	testutil.Len(t, asm.Instances(), 1)
	testutil.Equal(t, "Block", asm.Instance("BLOCK-1").PartName())
}

func TestTransformTranslation(t *testing.T) {
	tr := Transform{Translation: [3]float64{2, 0, 0}}
	testutil.False(t, tr.IsIdentity())
	got := tr.Apply([3]float64{1, 1, 1})
	testutil.Equal(t, [3]float64{3, 1, 1}, got)
	testutil.True(t, Transform{}.IsIdentity())
}

func TestTransformRotation(t *testing.T) {
	tr := Transform{Rotation: &Rotation{B: [3]float64{0, 0, 1}, Angle: 90}}
	got := tr.Apply([3]float64{1, 0, 0})
	testutil.Near(t, 0, got[0], 1e-12, "x")
	testutil.Near(t, 1, got[1], 1e-12, "y")
	testutil.Near(t, 0, got[2], 1e-12, "z")

	// Translation happens before rotation.
	tr.Translation = [3]float64{1, 0, 0}
	got = tr.Apply([3]float64{0, 0, 0})
	testutil.Near(t, 1, got[1], 1e-12, "translated then rotated")

	// A degenerate axis leaves the point translated only.
	deg := Transform{Rotation: &Rotation{Angle: 45}}
	testutil.Equal(t, [3]float64{1, 2, 3}, deg.Apply([3]float64{1, 2, 3}))
}

func TestInstancePlacedNodes(t *testing.T) {
	part := NewPart("Block", 1)
	testutil.NoError(t, part.AddNode(Node{ID: 1, Coords: [3]float64{0, 0, 0}, Line: 2}))
	testutil.NoError(t, part.AddNode(Node{ID: 2, Coords: [3]float64{1, 0, 0}, Line: 3}))
	inst := NewInstance("Block-1", part, 10)
	inst.Transform.Translation = [3]float64{2, 0, 0}

	nodes := inst.PlacedNodes()
	testutil.Len(t, nodes, 2)
	testutil.Equal(t, [3]float64{3, 0, 0}, nodes[1].Coords)
	n, ok := part.Node(1)
	testutil.True(t, ok)
	testutil.Equal(t, [3]float64{0, 0, 0}, n.Coords, "part geometry untouched")

	c, ok := inst.Coordinates(1)
	testutil.True(t, ok)
	testutil.Equal(t, [3]float64{2, 0, 0}, c)
	_, ok = inst.Coordinates(99)
	testutil.False(t, ok)
}

func TestBoundaryStateOrdering(t *testing.T) {
	st := NewBoundaryState(map[DofKey]float64{
		{Instance: "b", Node: 1, Dof: 1}: 1,
		{Instance: "a", Node: 2, Dof: 3}: 2,
		{Instance: "a", Node: 2, Dof: 1}: 3,
		{Instance: "a", Node: 1, Dof: 6}: 4,
	})
	var got []DofKey
	for _, e := range st.Entries() {
		got = append(got, e.DofKey)
	}
	testutil.SliceEqual(t, []DofKey{
		{Instance: "a", Node: 1, Dof: 6},
		{Instance: "a", Node: 2, Dof: 1},
		{Instance: "a", Node: 2, Dof: 3},
		{Instance: "b", Node: 1, Dof: 1},
	}, got)

	v, ok := st.Lookup("a", 2, 1)
	testutil.True(t, ok)
	testutil.Equal(t, 3.0, v)
}

func TestBoundaryStateIsSnapshot(t *testing.T) {
	src := map[DofKey]float64{{Instance: "a", Node: 1, Dof: 1}: 0}
	st := NewBoundaryState(src)
	src[DofKey{Instance: "a", Node: 1, Dof: 2}] = 1
	testutil.Equal(t, 1, st.Len(), "source map changes do not leak in")

	vals := st.Values()
	vals[DofKey{Instance: "a", Node: 9, Dof: 9}] = math.Pi
	testutil.Equal(t, 1, st.Len(), "Values returns a copy")

	testutil.True(t, st.Equal(NewBoundaryState(map[DofKey]float64{{Instance: "a", Node: 1, Dof: 1}: 0})))
	testutil.False(t, st.Equal(EmptyBoundaryState))
	testutil.Equal(t, 0, NewBoundaryState(nil).Len())
}

func TestDiagnosticConfig(t *testing.T) {
	cfg := DiagnosticConfig{
		FailAt:    SeverityError,
		Overrides: map[string]Severity{DiagEmptySet: SeverityError},
		Ignore:    []string{"unknown-*"},
	}
	testutil.False(t, cfg.ShouldReport(DiagUnknownKeyword))
	testutil.False(t, cfg.ShouldReport(DiagUnknownParameter))
	testutil.True(t, cfg.ShouldReport(DiagEmptySet))
	testutil.Equal(t, SeverityError, cfg.Severity(DiagEmptySet, SeverityWarning))
	testutil.Equal(t, SeverityInfo, cfg.Severity(DiagUnusedMaterial, SeverityInfo))
	testutil.True(t, cfg.ShouldFail(SeverityFatal))
	testutil.True(t, cfg.ShouldFail(SeverityError))
	testutil.False(t, cfg.ShouldFail(SeverityWarning))

	def := DefaultDiagnosticConfig()
	testutil.False(t, def.ShouldFail(SeverityError))
}

func TestMatchGlob(t *testing.T) {
	testutil.True(t, MatchGlob("*", "anything"))
	testutil.True(t, MatchGlob("unknown-*", "unknown-keyword"))
	testutil.True(t, MatchGlob("*-set", "empty-set"))
	testutil.False(t, MatchGlob("empty-set", "empty-sets"))
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{
		"fatal": SeverityFatal, "Error": SeverityError, "warn": SeverityWarning, " info ": SeverityInfo,
	} {
		got, err := ParseSeverity(in)
		testutil.NoError(t, err, in)
		testutil.Equal(t, want, got, in)
	}
	_, err := ParseSeverity("loud")
	testutil.Error(t, err)
}

func TestMaterialProperties(t *testing.T) {
	mat := NewMaterial("Generic", 1)
	_, ok := mat.Density()
	testutil.False(t, ok)
	mat.AddProperty(&Density{Value: 1e-9})
	mat.AddProperty(&Hyperelastic{Law: "neo hooke", Coefficients: []float64{0.5, 0.02}})
	d, ok := mat.Density()
	testutil.True(t, ok)
	testutil.Equal(t, 1e-9, d)
	testutil.NotNil(t, mat.Property("hyperelastic"))
	testutil.Nil(t, mat.Property("elastic"))
	testutil.Len(t, mat.Properties(), 2)
}
