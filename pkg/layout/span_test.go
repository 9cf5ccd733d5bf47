package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/familymap/pkg/family"
)

func place(t *testing.T, g family.Graph, pos map[string]family.Point) family.Graph {
	t.Helper()
	for id, p := range pos {
		var err error
		g, err = g.MoveNode(id, p)
		require.NoError(t, err)
	}
	return g
}

func node(t *testing.T, g family.Graph, id string) family.Node {
	t.Helper()
	n, ok := g.Node(id)
	require.True(t, ok, "node %s", id)
	return n
}

func couple(t *testing.T) (family.Graph, string) {
	t.Helper()
	ids := &family.SequentialIDs{}
	g := family.Graph{Nodes: []family.Node{
		family.NewPerson("A", family.Person{}),
		family.NewPerson("B", family.Person{}),
	}}
	g, u := family.FindOrCreateUnion(g, "A", "B", ids)
	g = place(t, g, map[string]family.Point{
		"A": {X: 0, Y: 0},
		"B": {X: 230, Y: 0},
		u:   {X: 197, Y: 162},
	})
	return g, u
}

func TestSpanStrictPartners(t *testing.T) {
	g, u := couple(t)

	out := SpanStrict(g)

	union := node(t, out, u)
	assert.Equal(t, family.Size{Width: 390, Height: 18}, union.Size)
	assert.Equal(t, family.Point{X: 10, Y: 162}, union.Position)
	assert.Equal(t, node(t, g, "A"), node(t, out, "A"))
	assert.Equal(t, node(t, g, "B"), node(t, out, "B"))
	assert.Equal(t, family.Size{Width: 36, Height: 36}, node(t, g, u).Size, "input must not change")
}

func TestSpanStrictSingleChild(t *testing.T) {
	g, u := couple(t)
	g = g.WithNode(family.NewPerson("C", family.Person{}))
	g = family.AddChildToUnion(g, u, "C", family.NewSequentialIDs(g))
	g = place(t, g, map[string]family.Point{"C": {X: 100, Y: 288}})

	out := SpanStrict(g)

	union := node(t, out, u)
	assert.Equal(t, family.Size{Width: 80, Height: 18}, union.Size)
	assert.Equal(t, 150.0, union.Position.X)
	assert.Equal(t, 162.0, union.Position.Y)
}

func TestSpanStrictChildrenPreferred(t *testing.T) {
	g, u := couple(t)
	ids := family.NewSequentialIDs(g)
	for _, c := range []string{"C1", "C2"} {
		g = g.WithNode(family.NewPerson(c, family.Person{}))
		g = family.AddChildToUnion(g, u, c, ids)
	}
	g = place(t, g, map[string]family.Point{
		"C1": {X: -100, Y: 288},
		"C2": {X: 500, Y: 288},
	})
	n, _ := g.Node("C2")
	n.Size = family.Size{Width: 200, Height: 72}
	g.Nodes[len(g.Nodes)-1] = n

	out := SpanStrict(g)

	union := node(t, out, u)
	// span -100..700, width 780, centered at 300
	assert.Equal(t, family.Size{Width: 780, Height: 18}, union.Size)
	assert.Equal(t, -90.0, union.Position.X)
}

func TestSpanStrictMinimumWidth(t *testing.T) {
	g, u := couple(t)
	g = place(t, g, map[string]family.Point{"B": {X: 0, Y: 0}})

	union := node(t, SpanStrict(g), u)
	// span 0..180 minus inset is 160, above the minimum
	assert.Equal(t, 160.0, union.Size.Width)

	g.Nodes[0].Size = family.Size{Width: 60, Height: 72}
	g.Nodes[1].Size = family.Size{Width: 60, Height: 72}
	union = node(t, SpanStrict(g), u)
	assert.Equal(t, 80.0, union.Size.Width)
	assert.Equal(t, -10.0, union.Position.X)
}

func TestSpanStrictLonelyUnion(t *testing.T) {
	g := family.Graph{Nodes: []family.Node{family.NewUnion("U", "X", "Y")}}
	g.Nodes[0].Position = family.Point{X: 5, Y: 6}

	out := SpanStrict(g)
	assert.Equal(t, g.Nodes[0], out.Nodes[0])
}

func TestSpanFriendly(t *testing.T) {
	g, u := couple(t)
	g = g.WithNode(family.NewPerson("C", family.Person{}))
	g = family.AddChildToUnion(g, u, "C", family.NewSequentialIDs(g))
	g = place(t, g, map[string]family.Point{"C": {X: 100, Y: 288}})

	out := SpanFriendly(g)

	union := node(t, out, u)
	assert.Equal(t, family.Size{Width: 90, Height: 18}, union.Size)
	assert.Equal(t, 160.0, union.Position.X)
	assert.Equal(t, 162.0, union.Position.Y)
	for _, id := range []string{"A", "B", "C"} {
		assert.Equal(t, node(t, g, id), node(t, out, id))
	}
}

func TestSpanFriendlyWithoutParentsKeepsStrict(t *testing.T) {
	g := family.Graph{Nodes: []family.Node{
		family.NewUnion("U", "X", "Y"),
		family.NewPerson("C", family.Person{}),
	}}
	g = family.AddChildToUnion(g, "U", "C", &family.SequentialIDs{})
	g = place(t, g, map[string]family.Point{"C": {X: 0, Y: 100}})

	assert.Equal(t, SpanStrict(g), SpanFriendly(g))
}
