package factory

import (
	"errors"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/bundlegen/internal/decl"
	"github.com/sghaida/bundlegen/internal/gen"
)

//
// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

const shapesSrc = `package shapes

type Shape interface {
	Named
	Area() float64
}

type Named interface {
	Name() string
}

type Base struct{ id int }

type Round struct{ Base }

//bundle:factory type=Shape id=circle
type Circle struct{ r float64 }

func (c *Circle) Area() float64 { return 3 * c.r * c.r }
func (c *Circle) Name() string  { return "circle" }

func NewCircle() *Circle { return &Circle{r: 1} }

//bundle:factory type=Shape id=square
type Square struct{ named }

type named struct{}

func (named) Name() string { return "square" }

func (Square) Area() float64 { return 1 }

func NewSquare() (Square, error) { return Square{}, nil }

//bundle:factory type=Shape id=circle
type Disc struct{ Circle }

func NewDisc() *Disc { return &Disc{} }

//bundle:factory type=Base id=wheel
type Wheel struct{ Round }

func NewWheel() *Wheel { return &Wheel{} }

//bundle:factory type=Base id=brick
type Brick struct{ id int }

func NewBrick() *Brick { return &Brick{} }

//bundle:factory type=Shape id=hidden
type hidden struct{}

//bundle:factory type=Shape id=iface
type Abstract interface{ Area() float64 }

//bundle:factory type=Shape id=line
type Line struct{}

func (Line) Name() string { return "line" }

func NewLine() Line { return Line{} }

//bundle:factory type=Shape id=orphan
type Orphan struct{}

func (*Orphan) Area() float64 { return 0 }
func (*Orphan) Name() string  { return "orphan" }

//bundle:factory type=Shape id=value
type Value struct{}

func (*Value) Area() float64 { return 0 }
func (*Value) Name() string  { return "value" }

func NewValue() Value { return Value{} }

//bundle:factory type=Polygon id=tri
type Tri struct{}

//bundle:factory type=Celsius id=c
type Thermo struct{}

type Celsius float64

//bundle:factory id=noType
type NoType struct{}

//bundle:factory type=Shape
type NoID struct{}

//bundle:factory type=Shape id=fn
func Builder() {}
`

func loadShapes(t *testing.T) (*decl.Universe, map[string]*decl.Decl) {
	t.Helper()
	pkg := &decl.Package{Path: "example.com/shapes"}
	decls, err := decl.ParseFile(token.NewFileSet(), pkg, "shapes.go", shapesSrc)
	require.NoError(t, err)

	u := decl.NewUniverse()
	u.Add(decls...)
	byName := map[string]*decl.Decl{}
	for _, d := range decls {
		if d.Kind != decl.KindMethod {
			byName[d.Name] = d
		}
	}
	return u, byName
}

func mustSymbol(t *testing.T, d *decl.Decl) *Symbol {
	t.Helper()
	require.NotNil(t, d)
	s, err := NewSymbol(d)
	require.NoError(t, err)
	return s
}

func requireViolation(t *testing.T, err error, wantSub string) *ValidationError {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Error(), wantSub)
	return ve
}

//
// -----------------------------------------------------------------------------
// NewSymbol
// -----------------------------------------------------------------------------

// TestNewSymbol_ReadsTagArguments verifies group key and identity come from the tag.
func TestNewSymbol_ReadsTagArguments(t *testing.T) {
	t.Parallel()

	_, decls := loadShapes(t)
	s := mustSymbol(t, decls["Circle"])
	assert.Equal(t, "Shape", s.GroupKey)
	assert.Equal(t, "circle", s.ID)
	assert.Equal(t, "example.com/shapes.Shape", s.QualifiedGroupName())
	assert.Equal(t, "example.com/shapes.Circle[circle]", s.String())
}

// TestNewSymbol_Rejects verifies malformed tags and non-type targets.
func TestNewSymbol_Rejects(t *testing.T) {
	t.Parallel()

	_, decls := loadShapes(t)
	cases := map[string]string{
		"NoType":  "type argument",
		"NoID":    "id argument",
		"Builder": "only types can be tagged factory",
		"Base":    "has no factory tag",
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewSymbol(decls[name])
			requireViolation(t, err, want)
		})
	}
}

//
// -----------------------------------------------------------------------------
// Validate
// -----------------------------------------------------------------------------

// TestValidate_InterfaceImplemented verifies a member implementing its group passes.
func TestValidate_InterfaceImplemented(t *testing.T) {
	t.Parallel()

	u, decls := loadShapes(t)
	s := mustSymbol(t, decls["Circle"])
	require.NoError(t, Validate(s, u))
	assert.Equal(t, "Shape", s.Target.Name)
	assert.Equal(t, decl.Ctor{Name: "NewCircle", Pointer: true}, s.Ctor)
}

// TestValidate_PromotedMethodsAndErrorCtor verifies promoted methods count and (T, error) constructors are accepted.
func TestValidate_PromotedMethodsAndErrorCtor(t *testing.T) {
	t.Parallel()

	u, decls := loadShapes(t)
	s := mustSymbol(t, decls["Square"])
	require.NoError(t, Validate(s, u))
	assert.Equal(t, decl.Ctor{Name: "NewSquare", Err: true}, s.Ctor)

	disc := mustSymbol(t, decls["Disc"])
	require.NoError(t, Validate(disc, u))
}

// TestValidate_StructChain verifies the embedded struct chain is walked transitively.
func TestValidate_StructChain(t *testing.T) {
	t.Parallel()

	u, decls := loadShapes(t)
	require.NoError(t, Validate(mustSymbol(t, decls["Wheel"]), u))

	err := Validate(mustSymbol(t, decls["Brick"]), u)
	requireViolation(t, err, "must embed example.com/shapes.Base")
}

// TestValidate_Violations verifies each structural rule in isolation.
func TestValidate_Violations(t *testing.T) {
	t.Parallel()

	u, decls := loadShapes(t)
	cases := map[string]string{
		"hidden":   "is not exported",
		"Abstract": "is an interface",
		"Line":     "must implement the interface example.com/shapes.Shape (missing Area() float64)",
		"Thermo":   "must be an interface or a struct",
		"Orphan":   "zero-argument constructor NewOrphan",
		"Value":    "returns Value by value but only *Value implements",
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			ve := requireViolation(t, Validate(mustSymbol(t, decls[name]), u), want)
			assert.False(t, ve.Unresolved)
			assert.Same(t, decls[name], ve.Declaration())
		})
	}
}

// TestValidate_Unresolved verifies a missing group type is flagged for retry.
func TestValidate_Unresolved(t *testing.T) {
	t.Parallel()

	u, decls := loadShapes(t)
	ve := requireViolation(t, Validate(mustSymbol(t, decls["Tri"]), u), "group type example.com/shapes.Polygon")
	assert.True(t, ve.Unresolved)
}

// TestValidate_ConstructorRequired verifies the constructor rule fails even when every other check passes.
func TestValidate_ConstructorRequired(t *testing.T) {
	t.Parallel()

	u, decls := loadShapes(t)
	s := mustSymbol(t, decls["Orphan"])
	err := Validate(s, u)
	requireViolation(t, err, "constructor")
	assert.Nil(t, s.Target, "symbol must stay unresolved on failure")
}

//
// -----------------------------------------------------------------------------
// Group index
// -----------------------------------------------------------------------------

func validated(t *testing.T, u *decl.Universe, d *decl.Decl) *Symbol {
	t.Helper()
	s := mustSymbol(t, d)
	require.NoError(t, Validate(s, u))
	return s
}

// TestIndex_Conflict verifies duplicate identities keep the first member.
func TestIndex_Conflict(t *testing.T) {
	t.Parallel()

	u, decls := loadShapes(t)
	ix := NewIndex()
	require.NoError(t, ix.Add(validated(t, u, decls["Circle"])))

	err := ix.Add(validated(t, u, decls["Disc"]))
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "circle", ce.ID)
	assert.Same(t, decls["Circle"], ce.Existing)
	assert.Same(t, decls["Disc"], ce.Declaration())
	assert.Equal(t, `factory: id "circle" of group example.com/shapes.Shape already used by example.com/shapes.Circle`, ce.Error())

	g, ok := ix.groups["example.com/shapes.Shape"]
	require.True(t, ok)
	require.Equal(t, 1, g.Len())
	assert.Same(t, decls["Circle"], g.Members()[0].Decl)
}

// TestGroup_GenerateInterface verifies the dispatcher switch for an interface group.
func TestGroup_GenerateInterface(t *testing.T) {
	t.Parallel()

	u, decls := loadShapes(t)
	ix := NewIndex()
	require.NoError(t, ix.Add(validated(t, u, decls["Square"])))
	require.NoError(t, ix.Add(validated(t, u, decls["Circle"])))

	g, _ := ix.groups["example.com/shapes.Shape"]
	a, err := g.Generate()
	require.NoError(t, err)
	require.NotNil(t, a)

	src := string(a.Source)
	assert.Equal(t, "ShapeFactory", a.Name)
	assert.Equal(t, "shape_factory.gen.go", a.FileName)
	assert.Contains(t, src, gen.Header)
	assert.Contains(t, src, "package shapes")
	assert.Contains(t, src, "type ShapeFactory struct{}")
	assert.Contains(t, src, "func (ShapeFactory) Create(id string) (Shape, error) {")
	assert.Contains(t, src, "\tcase \"circle\":\n\t\treturn NewCircle(), nil\n")
	// A failing constructor yields a nil interface, never a typed nil.
	assert.Contains(t, src, "\tcase \"square\":\n\t\tv, err := NewSquare()\n\t\tif err != nil {\n\t\t\treturn nil, err\n\t\t}\n\t\treturn v, nil\n")
	assert.NotContains(t, src, "return NewSquare()\n")
	assert.Contains(t, src, `return nil, fmt.Errorf("ShapeFactory: unknown id %q", id)`)
	assert.Less(t, indexOf(src, `"circle",`), indexOf(src, `"square",`))
}

// TestGroup_GenerateStruct verifies struct groups return any.
func TestGroup_GenerateStruct(t *testing.T) {
	t.Parallel()

	u, decls := loadShapes(t)
	ix := NewIndex()
	require.NoError(t, ix.Add(validated(t, u, decls["Wheel"])))

	g, _ := ix.groups["example.com/shapes.Base"]
	a, err := g.Generate()
	require.NoError(t, err)
	assert.Contains(t, string(a.Source), "func (BaseFactory) Create(id string) (any, error) {")
}

// TestGroup_GenerateEmpty verifies empty groups produce no artifact.
func TestGroup_GenerateEmpty(t *testing.T) {
	t.Parallel()

	g := &Group{Key: "Shape", members: map[string]*Symbol{}}
	a, err := g.Generate()
	require.NoError(t, err)
	assert.Nil(t, a)
}

// TestIndex_GenerateEmitsAndClears verifies one artifact per group and a cleared index.
func TestIndex_GenerateEmitsAndClears(t *testing.T) {
	t.Parallel()

	u, decls := loadShapes(t)
	ix := NewIndex()
	require.NoError(t, ix.Add(validated(t, u, decls["Circle"])))
	require.NoError(t, ix.Add(validated(t, u, decls["Wheel"])))

	var names []string
	err := ix.Generate(gen.EmitterFunc(func(a *gen.Artifact) error {
		names = append(names, a.Name)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"ShapeFactory", "BaseFactory"}, names)
	assert.Equal(t, 0, ix.Len())
}

// TestIndex_GenerateIsolatesFailures verifies one failing emission does not block other groups.
func TestIndex_GenerateIsolatesFailures(t *testing.T) {
	t.Parallel()

	u, decls := loadShapes(t)
	ix := NewIndex()
	require.NoError(t, ix.Add(validated(t, u, decls["Circle"])))
	require.NoError(t, ix.Add(validated(t, u, decls["Wheel"])))

	boom := errors.New("read-only file system")
	var emitted []string
	err := ix.Generate(gen.EmitterFunc(func(a *gen.Artifact) error {
		if a.Name == "ShapeFactory" {
			return boom
		}
		emitted = append(emitted, a.Name)
		return nil
	}))
	require.ErrorIs(t, err, boom)
	var ee *gen.EmitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "shape_factory.gen.go", ee.Artifact)
	assert.Equal(t, []string{"BaseFactory"}, emitted)
	assert.Equal(t, 0, ix.Len())
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
