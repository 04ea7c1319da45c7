package deck

import (
	"context"
	"strings"
	"testing"

	"github.com/golangfem/inpdeck/internal/lexer"
	"github.com/golangfem/inpdeck/internal/testutil"
	"github.com/golangfem/inpdeck/model"
)

func parse(src string, mode model.Mode, workers int) (*model.Model, error) {
	p := New(strings.NewReader(src), Config{
		Mode:        mode,
		Dialect:     lexer.INP,
		Diagnostics: model.DefaultDiagnosticConfig(),
		Workers:     workers,
	}, nil)
	return p.Parse(context.Background())
}

func mustParse(t *testing.T, src string) *model.Model {
	t.Helper()
	m, err := parse(src, model.ModeLenient, 1)
	testutil.NoError(t, err, "parse")
	return m
}

func parseErr(t *testing.T, src string, kind model.ErrorKind) *model.DeckError {
	t.Helper()
	m, err := parse(src, model.ModeLenient, 1)
	testutil.Nil(t, m, "no model on failure")
	de, ok := model.AsDeckError(err)
	if !ok {
		t.Fatalf("want *model.DeckError, got %T: %v", err, err)
	}
	testutil.Equal(t, kind, de.Kind, "error kind of %v", err)
	return de
}

func codes(m *model.Model) []string {
	var out []string
	for _, d := range m.Diagnostics() {
		out = append(out, d.Code)
	}
	return out
}

const block = `*Part, name=Block
*Node
1, 0., 0., 0.
2, 1., 0., 0.
3, 1., 1., 0.
4, 0., 1., 0.
*Element, type=S4R, elset=All
1, 1, 2, 3, 4
*End Part
`

func TestBlockDeck(t *testing.T) {
	m := mustParse(t, testutil.BlockDeck)

	testutil.SliceEqual(t, []string{"Block", "NewBlock"}, m.PartNames())
	testutil.Len(t, m.Materials(), 2)
	testutil.Len(t, m.Steps(), 2)
	testutil.Len(t, m.Diagnostics(), 0)
	testutil.Contains(t, m.Heading(), "Two blocks")

	b := m.Part("Block")
	testutil.Equal(t, 8, b.NodeCount())
	testutil.Equal(t, 1, b.ElementCount())
	testutil.SliceEqual(t, []int{1, 2, 3, 4}, b.Nset("Bottom").IDs())
	testutil.SliceEqual(t, []int{5, 6, 7, 8}, b.Nset("Top").IDs())
	secs := b.Sections()
	testutil.Len(t, secs, 1)
	testutil.Equal(t, "Generic", secs[0].Material)
	testutil.Equal(t, "EC-1", secs[0].Controls)

	nb := m.Part("NewBlock")
	testutil.SliceEqual(t, []int{1}, nb.Elset("All").IDs(), "elset= on *Element")

	asm := m.Assembly()
	testutil.NotNil(t, asm)
	testutil.True(t, asm.Closed())
	testutil.Len(t, asm.Instances(), 2)
	testutil.Equal(t, [3]float64{2, 0, 0}, asm.Instance("NewBlock-1").Transform.Translation)
	testutil.True(t, asm.Instance("Block-1").Transform.IsIdentity())
	corner := asm.Nset("Corner")
	testutil.Equal(t, "NewBlock-1", corner.Instance)
	testutil.SliceEqual(t, []int{1}, corner.IDs())

	ec := m.SectionControls("ec-1")
	testutil.Equal(t, "ENHANCED", ec.Hourglass)
	testutil.SliceEqual(t, []float64{1, 1, 1}, ec.Params)

	generic := m.Material("Generic")
	d, ok := generic.Density()
	testutil.True(t, ok)
	testutil.Equal(t, 1e-09, d)
	hyper := generic.Property("hyperelastic").(*model.Hyperelastic)
	testutil.Equal(t, "neo hooke", hyper.Law)
	testutil.SliceEqual(t, []float64{0.5, 0.02}, hyper.Coefficients)
	um := m.Material("NewMat").Property("user material").(*model.UserMaterial)
	testutil.Equal(t, 2, um.Count)
	testutil.SliceEqual(t, []float64{1000, 0.3}, um.Constants)

	baseline := m.Baseline()
	testutil.Len(t, baseline, 2, "ENCASTRE folds into one 1..6 directive")
	testutil.Equal(t, "Block-1.Bottom", baseline[0].Target)
	testutil.Equal(t, 3, baseline[0].Last)
	testutil.Equal(t, 1, baseline[1].First)
	testutil.Equal(t, 6, baseline[1].Last)

	stretch := m.Step("Stretch")
	testutil.True(t, stretch.NLGeom)
	testutil.Equal(t, "Static", stretch.Procedure.Kind)
	testutil.Equal(t, 0.1, stretch.Procedure.Initial)
	testutil.Equal(t, 1e-05, stretch.Procedure.Min)
	bcs := stretch.Boundaries()
	testutil.Len(t, bcs, 3)
	testutil.Equal(t, model.OpMod, bcs[1].Op)
	testutil.Equal(t, 1.0, bcs[1].Value)
	outs := stretch.Outputs()
	testutil.Len(t, outs, 2)
	testutil.Equal(t, "PRESELECT", outs[0].Variable)
	testutil.SliceEqual(t, []string{"U", "RF"}, outs[1].Node)
}

func TestDuplicateNode(t *testing.T) {
	src := "*Part, name=Block\n*Node\n1, 0., 0., 0.\n2, 1., 0., 0.\n1, 5., 5., 5.\n*End Part\n"
	de := parseErr(t, src, model.KindDuplicateID)
	testutil.Equal(t, 5, de.Line)
	testutil.Equal(t, "node", de.Keyword)
	testutil.Contains(t, de.Message, "node 1")
	testutil.Contains(t, de.Message, "Part 'Block'")
}

func TestInstanceOfMissingPart(t *testing.T) {
	src := block + "*Assembly, name=Assembly\n*Instance, name=X-1, part=Ghost\n*End Instance\n*End Assembly\n"
	de := parseErr(t, src, model.KindUnresolvedReference)
	testutil.Equal(t, 11, de.Line)
	testutil.Contains(t, de.Error(), "Part 'Ghost' : NOT FOUND")
	testutil.Contains(t, de.Error(), "Instance 'X-1' → Assembly 'Assembly' : OK")
}

func TestInstanceNotRegisteredOnFailure(t *testing.T) {
	src := block + "*Assembly\n*Instance, name=B-1, part=Block\n1., 2.\n3., 4., 5., 6.\n"
	p := New(strings.NewReader(src), Config{Dialect: lexer.INP}, nil)
	_, err := p.Parse(context.Background())
	testutil.ErrorIs(t, err, model.ErrLex)
	testutil.Len(t, p.Model().Assembly().Instances(), 0)
}

func TestInstanceTransform(t *testing.T) {
	src := block + `*Assembly
*Instance, name=B-1, part=Block
1., 2., 3.
0., 0., 0., 0., 0., 1., 90.
*End Instance
*End Assembly
`
	m := mustParse(t, src)
	inst := m.Assembly().Instance("B-1")
	testutil.Equal(t, [3]float64{1, 2, 3}, inst.Transform.Translation)
	testutil.NotNil(t, inst.Transform.Rotation)
	testutil.Equal(t, 90.0, inst.Transform.Rotation.Angle)
	testutil.Equal(t, "Assembly", m.Assembly().Name(), "default name")

	three := block + "*Assembly\n*Instance, name=B-1, part=Block\n1.\n0., 0., 0., 0., 0., 1., 90.\n1.\n"
	parseErr(t, three, model.KindStructural)
}

func TestDuplicateInstance(t *testing.T) {
	src := block + "*Assembly\n*Instance, name=B-1, part=Block\n*End Instance\n*Instance, name=b-1, part=Block\n"
	de := parseErr(t, src, model.KindDuplicateID)
	testutil.Equal(t, 13, de.Line)
}

func TestUnknownKeywordLenient(t *testing.T) {
	src := "*Frobnicate, level=3\n1, 2, 3\n4, 5\n" + block
	m := mustParse(t, src)
	testutil.SliceEqual(t, []string{model.DiagUnknownKeyword}, codes(m))
	d := m.Diagnostics()[0]
	testutil.Equal(t, model.SeverityWarning, d.Severity)
	testutil.Equal(t, 1, d.Line)
	testutil.Equal(t, "frobnicate", d.Keyword)
	testutil.NotNil(t, m.Part("Block"), "parsing resumes at the next known keyword")
}

func TestUnknownKeywordStrict(t *testing.T) {
	m, err := parse("*Frobnicate\n1, 2\n", model.ModeStrict, 1)
	testutil.Nil(t, m)
	testutil.ErrorIs(t, err, model.ErrUnknownKeyword)
	de, _ := model.AsDeckError(err)
	testutil.Equal(t, 1, de.Line)
	testutil.Equal(t, "frobnicate", de.Keyword)
}

func TestUnknownParameter(t *testing.T) {
	m := mustParse(t, "*Part, name=P, colour=red\n*End Part\n")
	testutil.SliceEqual(t, []string{model.DiagUnknownParameter}, codes(m))
	testutil.Equal(t, model.SeverityInfo, m.Diagnostics()[0].Severity)
	testutil.Contains(t, m.Diagnostics()[0].Message, `"colour"`)
}

func TestStructuralErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		msg  string
	}{
		{"node outside part", "*Node\n1, 0., 0., 0.\n", "not allowed in Deck"},
		{"end part without part", "*End Part\n", "closes a Part but the innermost open scope is Deck"},
		{"end step inside part", "*Part, name=P\n*End Step\n", "innermost open scope is Part 'P' (opened at line 1)"},
		{"nested part", "*Part, name=P\n*Part, name=Q\n", "not allowed in Part 'P'"},
		{"unclosed part", "*Part, name=P\n*Node\n1, 0., 0., 0.\n", "end of deck with Part 'P' still open"},
		{"part without name", "*Part\n", "requires name="},
		{"element without type", "*Part, name=P\n*Element\n", "requires type="},
		{"orphan data line", "1, 2, 3\n", "not preceded by a keyword that takes data"},
		{"data after end part", "*Part, name=P\n*End Part\n1, 2\n", "not preceded by a keyword"},
		{"property without material", "*Density\n1.\n", "must follow a *Material"},
		{"property after other keyword", "*Material, name=M\n*Heading\n*Density\n1.\n", "must follow a *Material"},
		{"second procedure", "*Step\n*Static\n*Dynamic\n", "already has a *Static procedure"},
		{"node output first", "*Step\n*Node Output\nU\n", "must follow an *Output request"},
		{"bad op", "*Step\n*Boundary, op=REPLACE\n", "is not MOD or NEW"},
		{"op outside step", "*Boundary, op=MOD\n", "only valid on a *Boundary inside a Step"},
		{"zero dof", "*Boundary\nA.B, 0, 2\n", "not an ascending range"},
		{"reversed dof range", "*Boundary\nA.B, 3, 1\n", "not an ascending range"},
		{"empty generate", "*Part, name=P\n*Nset, nset=S, generate\n5, 1\n", "is empty"},
		{"bad nlgeom", "*Step, nlgeom=MAYBE\n", "is not YES or NO"},
		{"second assembly", "*Assembly\n*End Assembly\n*Assembly, name=B\n", "second Assembly"},
		{"assembly set without instance", "*Assembly\n*Nset, nset=C\n", "requires instance="},
	} {
		t.Run(tc.name, func(t *testing.T) {
			de := parseErr(t, tc.src, model.KindStructural)
			testutil.Contains(t, de.Message, tc.msg)
		})
	}
}

func TestElementContinuation(t *testing.T) {
	src := `*Part, name=P
*Node
1, 0., 0., 0.
2, 1., 0., 0.
3, 1., 1., 0.
4, 0., 1., 0.
5, 0., 0., 1.
6, 1., 0., 1.
7, 1., 1., 1.
8, 0., 1., 1.
*Element, type=C3D8
1, 1, 2, 3, 4,
5, 6,
7, 8
2, 1, 2, 3, 4, 5, 6, 7, 8
*End Part
`
	m := mustParse(t, src)
	p := m.Part("P")
	el, ok := p.Element(1)
	testutil.True(t, ok)
	testutil.SliceEqual(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, el.Nodes)
	testutil.Equal(t, "C3D8", el.Type)
	testutil.Equal(t, 2, p.ElementCount())
}

func TestDanglingElementNode(t *testing.T) {
	src := "*Part, name=P\n*Node\n1, 0., 0., 0.\n*Element, type=T3D2\n1, 1, 2\n*End Part\n"
	for _, workers := range []int{1, 4} {
		m, err := parse(src, model.ModeLenient, workers)
		testutil.Nil(t, m)
		testutil.ErrorIs(t, err, model.ErrUnresolvedReference, "workers=%d", workers)
		testutil.Contains(t, err.Error(), "node 2 : NOT FOUND")
	}
}

func TestEarlierPartErrorWins(t *testing.T) {
	bad := "*Part, name=P\n*Node\n1, 0., 0., 0.\n*Element, type=T3D2\n1, 1, 2\n*End Part\n"
	for _, tail := range []string{
		"*Part, name=P\n",
		"*Part, name=Q\n*Node\n1, x\n",
		"*Part, name=Q\n",
	} {
		for _, workers := range []int{1, 4} {
			_, err := parse(bad+tail, model.ModeLenient, workers)
			testutil.ErrorIs(t, err, model.ErrUnresolvedReference, "workers=%d tail=%q", workers, tail)
			testutil.Contains(t, err.Error(), "node 2 : NOT FOUND")
		}
	}
}

func TestSets(t *testing.T) {
	src := `*Part, name=P
*Node, nset=Seeded
1, 0., 0., 0.
2, 1., 0., 0.
3, 1., 1., 0.
4, 0., 1., 0.
*Nset, nset=Odd, generate
1, 4, 2
*Nset, nset=Even
2, 4
*Nset, nset=Both
Odd, even, 4
*Node, nset=Seeded
5, 0., 0., 1.
*End Part
`
	m := mustParse(t, src)
	p := m.Part("P")
	testutil.SliceEqual(t, []int{1, 3}, p.Nset("Odd").IDs())
	testutil.SliceEqual(t, []int{1, 3, 2, 4}, p.Nset("Both").IDs(), "set references expand in order, duplicates collapse")
	testutil.SliceEqual(t, []int{1, 2, 3, 4, 5}, p.Nset("Seeded").IDs(), "nset= extends an existing set")
}

func TestSetReferenceUndeclared(t *testing.T) {
	src := "*Part, name=P\n*Node\n1, 0., 0., 0.\n*Nset, nset=A\nMissing\n"
	de := parseErr(t, src, model.KindUnresolvedReference)
	testutil.Contains(t, de.Error(), "nset 'Missing' : NOT FOUND")
}

func TestDuplicateExplicitSet(t *testing.T) {
	src := "*Part, name=P\n*Nset, nset=A\n*Nset, nset=a\n"
	de := parseErr(t, src, model.KindDuplicateID)
	testutil.Equal(t, 3, de.Line)
}

func TestAssemblySets(t *testing.T) {
	head := block + "*Assembly\n*Instance, name=B-1, part=Block\n*End Instance\n"

	m := mustParse(t, head+"*Elset, elset=E, instance=B-1\n1,\n*Nset, nset=N, instance=B-1, generate\n1, 3, 2\n*End Assembly\n")
	testutil.SliceEqual(t, []int{1}, m.Assembly().Elset("E").IDs())
	testutil.SliceEqual(t, []int{1, 3}, m.Assembly().Nset("N").IDs())

	de := parseErr(t, head+"*Nset, nset=N, instance=Nope\n1\n", model.KindUnresolvedReference)
	testutil.Contains(t, de.Error(), "instance 'Nope' : NOT FOUND")

	de = parseErr(t, head+"*Nset, nset=N, instance=B-1\n1, 9\n", model.KindUnresolvedReference)
	testutil.Contains(t, de.Message, "node 9 is not declared")
}

func TestNamedBoundaryTypes(t *testing.T) {
	m := mustParse(t, "*Boundary\nI.S, PINNED\nI.S, xsymm\n")
	var got [][2]int
	for _, d := range m.Baseline() {
		got = append(got, [2]int{d.First, d.Last})
	}
	testutil.SliceEqual(t, [][2]int{{1, 3}, {1, 1}, {5, 6}}, got)
}

func TestUnknownBoundaryType(t *testing.T) {
	m := mustParse(t, "*Boundary\nI.S, WOBBLY\nI.S, 1\n")
	testutil.SliceEqual(t, []string{model.DiagUnknownBCType}, codes(m))
	testutil.Equal(t, model.SeverityError, m.Diagnostics()[0].Severity)
	testutil.Len(t, m.Baseline(), 1, "the unknown type is dropped")
}

func TestBoundaryDefaults(t *testing.T) {
	m := mustParse(t, "*Boundary\nI.S, 2\nI.S, 1, , 4.5\n")
	bs := m.Baseline()
	testutil.Equal(t, 2, bs[0].First)
	testutil.Equal(t, 2, bs[0].Last, "last defaults to first")
	testutil.Equal(t, 0.0, bs[0].Value)
	testutil.Equal(t, 1, bs[1].Last)
	testutil.Equal(t, 4.5, bs[1].Value)
	testutil.Equal(t, model.OpNone, bs[0].Op)
}

func TestHighDofNumbers(t *testing.T) {
	m := mustParse(t, "*Boundary\nI.A, 11, 11, 20.\nI.A, 7, 9\n")
	bs := m.Baseline()
	testutil.Len(t, bs, 2)
	testutil.Equal(t, 11, bs[0].First)
	testutil.Equal(t, 11, bs[0].Last)
	testutil.Equal(t, 20.0, bs[0].Value)
	testutil.Equal(t, 9, bs[1].Last)
}

func TestBoundaryOpNew(t *testing.T) {
	m := mustParse(t, "*Step, name=S\n*Static\n*Boundary, op=new\nI.S, 1, 1\n*End Step\n")
	testutil.Equal(t, model.OpNew, m.Step("S").Boundaries()[0].Op)
	testutil.True(t, m.Step("S").ResetsBoundaries())

	m = mustParse(t, "*Step, name=S\n*Static\n*Boundary, op=NEW\n*End Step\n")
	testutil.Len(t, m.Step("S").Boundaries(), 0)
	testutil.True(t, m.Step("S").ResetsBoundaries(), "an empty op=NEW block still resets")
}

func TestStepDefaults(t *testing.T) {
	m := mustParse(t, "*Step\n*Static\n*End Step\n*Step, nlgeom\n*End Step\n")
	steps := m.Steps()
	testutil.Equal(t, "Step-1", steps[0].Name())
	testutil.Equal(t, "Step-2", steps[1].Name())
	testutil.False(t, steps[0].NLGeom)
	testutil.True(t, steps[1].NLGeom, "bare flag means YES")
	testutil.Equal(t, 1.0, steps[0].Procedure.Initial)
	testutil.Equal(t, 1.0, steps[0].Procedure.Total)
	testutil.SliceEqual(t, []string{model.DiagStepWithoutProc}, codes(m))
}

func TestMaterialProperties(t *testing.T) {
	src := `*Material, name=Steel
*Elastic
210000., 0.3
20., 0.3
*Density
7.8e-9
*Material, name=Rubber
*Hyperelastic, mooney-rivlin
0.5, 0.1,
0.02
`
	m := mustParse(t, src)
	steel := m.Material("steel")
	el := steel.Property("elastic").(*model.Elastic)
	testutil.Equal(t, 210000.0, el.Modulus, "only the first line is kept")
	testutil.Equal(t, 0.3, el.Poisson)
	d, _ := steel.Density()
	testutil.Equal(t, 7.8e-9, d)

	h := m.Material("Rubber").Property("hyperelastic").(*model.Hyperelastic)
	testutil.Equal(t, "mooney-rivlin", h.Law)
	testutil.SliceEqual(t, []float64{0.5, 0.1, 0.02}, h.Coefficients)
}

func TestDuplicateMaterial(t *testing.T) {
	de := parseErr(t, "*Material, name=M\n*Material, name=m\n", model.KindDuplicateID)
	testutil.Equal(t, 2, de.Line)
}

func TestFieldErrors(t *testing.T) {
	de := parseErr(t, "*Part, name=P\n*Node\nx, 0., 0., 0.\n", model.KindLex)
	testutil.Equal(t, "field 1: expected a node id, got \"x\"", de.Message)
	testutil.Equal(t, 3, de.Line)

	de = parseErr(t, "*Part, name=P\n*Node\n1, 0., abc\n", model.KindLex)
	testutil.Contains(t, de.Message, "field 3: expected a number")
}

func TestHeadingIsFreeText(t *testing.T) {
	m := mustParse(t, "*Heading\nrev 2, 1.2.3\n6\" pipe, model\n"+block)
	testutil.Equal(t, "rev 2, 1.2.3\n6\" pipe, model", m.Heading())
	testutil.NotNil(t, m.Part("Block"))

	de := parseErr(t, "*Part, name=P\n*Node\n1, 1.2.3, 0.\n", model.KindLex)
	testutil.Equal(t, 3, de.Line)
}

func TestWorkersMatchInline(t *testing.T) {
	serial, err := parse(testutil.BlockDeck, model.ModeLenient, 1)
	testutil.NoError(t, err)
	for _, workers := range []int{2, 8} {
		par, err := parse(testutil.BlockDeck, model.ModeLenient, workers)
		testutil.NoError(t, err)
		testutil.SliceEqual(t, serial.PartNames(), par.PartNames())
		testutil.Equal(t, len(serial.Assembly().Instances()), len(par.Assembly().Instances()))
	}
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(strings.NewReader(block), Config{Dialect: lexer.INP}, nil)
	_, err := p.Parse(ctx)
	testutil.ErrorIs(t, err, context.Canceled)
}

func TestBDFComments(t *testing.T) {
	p := New(strings.NewReader("$ native comment\n"+block), Config{Dialect: lexer.BDF}, nil)
	m, err := p.Parse(context.Background())
	testutil.NoError(t, err)
	testutil.NotNil(t, m.Part("Block"))
}
