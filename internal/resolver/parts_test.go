package resolver

import (
	"context"
	"fmt"
	"testing"

	"github.com/golangfem/inpdeck/internal/testutil"
	"github.com/golangfem/inpdeck/model"
)

// cube returns a closed one-element hexahedron Part with nsets Bottom and
// Top, elset All and a solid section on All.
func cube(t testing.TB, name, material string) *model.Part {
	t.Helper()
	p := model.NewPart(name, 1)
	coords := [][3]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	for i, c := range coords {
		testutil.NoError(t, p.AddNode(model.Node{ID: i + 1, Coords: c, Line: 2 + i}))
	}
	testutil.NoError(t, p.AddElement(model.Element{ID: 1, Type: "C3D8R", Nodes: []int{1, 2, 3, 4, 5, 6, 7, 8}, Line: 11}))

	bottom := model.NewSet("Bottom", model.SetNode, 12)
	bottom.Add(1, 2, 3, 4)
	top := model.NewSet("Top", model.SetNode, 14)
	top.Add(5, 6, 7, 8)
	all := model.NewSet("All", model.SetElement, 16)
	all.Add(1)
	for _, s := range []*model.Set{bottom, top, all} {
		testutil.NoError(t, p.AddSet(s))
	}
	testutil.NoError(t, p.AddSection(model.Section{Kind: "Solid Section", Elset: "All", Material: material, Line: 18}))
	p.Close(20)
	return p
}

func TestCheckPartValid(t *testing.T) {
	testutil.NoError(t, CheckPart(cube(t, "Block", "Generic")))
}

func TestCheckPartDanglingNode(t *testing.T) {
	p := model.NewPart("Block", 1)
	testutil.NoError(t, p.AddNode(model.Node{ID: 1, Line: 2}))
	testutil.NoError(t, p.AddElement(model.Element{ID: 7, Nodes: []int{1, 99}, Line: 3}))
	p.Close(4)

	err := CheckPart(p)
	testutil.ErrorIs(t, err, model.ErrUnresolvedReference)
	de, _ := model.AsDeckError(err)
	testutil.Equal(t, 3, de.Line)
	testutil.Len(t, de.Chain, 2)
	testutil.Equal(t, "element 7 → Part 'Block' : OK", de.Chain[0].String())
	testutil.Equal(t, "node 99 : NOT FOUND", de.Chain[1].String())
}

func TestCheckPartSetMembers(t *testing.T) {
	p := model.NewPart("Block", 1)
	testutil.NoError(t, p.AddNode(model.Node{ID: 1, Line: 2}))
	s := model.NewSet("Corner", model.SetNode, 3)
	s.Add(1, 2)
	testutil.NoError(t, p.AddSet(s))
	p.Close(5)

	err := CheckPart(p)
	testutil.ErrorIs(t, err, model.ErrUnresolvedReference)
	testutil.Contains(t, err.Error(), "lists undeclared node 2")
}

func TestCheckPartElsetMembers(t *testing.T) {
	p := model.NewPart("Block", 1)
	s := model.NewSet("All", model.SetElement, 3)
	s.Add(4)
	testutil.NoError(t, p.AddSet(s))
	p.Close(5)

	err := CheckPart(p)
	testutil.ErrorIs(t, err, model.ErrUnresolvedReference)
	testutil.Contains(t, err.Error(), "undeclared element 4")
}

func TestCheckPartSectionElset(t *testing.T) {
	p := model.NewPart("Block", 1)
	testutil.NoError(t, p.AddSection(model.Section{Kind: "Solid Section", Elset: "Missing", Material: "Generic", Line: 2}))
	p.Close(3)

	err := CheckPart(p)
	testutil.ErrorIs(t, err, model.ErrUnresolvedReference)
	de, _ := model.AsDeckError(err)
	testutil.Equal(t, "Section 'Solid Section' → elset 'Missing' → Part 'Block' : NOT FOUND", de.Chain[0].String())
}

func brokenPart(name string) *model.Part {
	p := model.NewPart(name, 1)
	_ = p.AddElement(model.Element{ID: 1, Nodes: []int{42}, Line: 2})
	p.Close(3)
	return p
}

func TestValidatePartsFirstErrorInOrder(t *testing.T) {
	var parts []*model.Part
	for i := range 16 {
		name := fmt.Sprintf("P%02d", i)
		if i == 5 || i == 11 {
			parts = append(parts, brokenPart(name))
			continue
		}
		parts = append(parts, cube(t, name, "Generic"))
	}

	for _, workers := range []int{0, 1, 4, 16} {
		err := ValidateParts(context.Background(), parts, workers, nil)
		testutil.ErrorIs(t, err, model.ErrUnresolvedReference, "workers=%d", workers)
		testutil.Contains(t, err.Error(), "Part 'P05'", "workers=%d", workers)
	}
}

func TestValidatePartsClean(t *testing.T) {
	parts := []*model.Part{cube(t, "A", "m"), cube(t, "B", "m"), cube(t, "C", "m")}
	testutil.NoError(t, ValidateParts(context.Background(), parts, 3, nil))
	testutil.NoError(t, ValidateParts(context.Background(), nil, 3, nil))
}

func TestValidatePartsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ValidateParts(ctx, []*model.Part{cube(t, "A", "m")}, 2, nil)
	testutil.ErrorIs(t, err, context.Canceled)
}
