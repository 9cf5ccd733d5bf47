package editor

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout"
	"github.com/matzehuels/familymap/pkg/layout/layered"
	"github.com/matzehuels/familymap/pkg/observability"
)

// identityLayout returns its input and records the policies it was asked for.
type identityLayout struct {
	policies []layout.Policy
}

func (l *identityLayout) Compute(_ context.Context, g family.Graph, p layout.Policy) layout.Result {
	l.policies = append(l.policies, p)
	return layout.Result{Graph: g, Applied: true}
}

func newEditor(t *testing.T) (*Editor, *identityLayout) {
	t.Helper()
	l := &identityLayout{}
	e := New(State{}, Options{
		IDs:    &family.SequentialIDs{},
		Layout: l,
		Logger: log.New(&bytes.Buffer{}),
	})
	return e, l
}

// couple adds Ada and Bo and returns their IDs.
func couple(t *testing.T, e *Editor) (string, string) {
	t.Helper()
	ctx := context.Background()
	a, err := e.AddPerson(ctx, family.Person{Name: "Ada", Gender: family.GenderFemale})
	require.NoError(t, err)
	b, err := e.AddPerson(ctx, family.Person{Name: "Bo"})
	require.NoError(t, err)
	return a, b
}

func TestAddPerson(t *testing.T) {
	e, l := newEditor(t)

	id, err := e.AddPerson(context.Background(), family.Person{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "P_1", id)

	n, ok := e.Graph().Node(id)
	require.True(t, ok)
	assert.Equal(t, family.KindPerson, n.Kind)
	assert.Equal(t, "Ada", n.Person.Name)
	assert.Equal(t, family.Point{X: 40, Y: 40}, n.Position)
	assert.Equal(t, family.Size{Width: 180, Height: 72}, n.Size)
	assert.Empty(t, l.policies, "adding a person must not re-run the layout")
	assert.True(t, e.History().CanUndo())
}

func TestAddPersonRejectsGender(t *testing.T) {
	e, _ := newEditor(t)

	_, err := e.AddPerson(context.Background(), family.Person{Name: "X", Gender: "robot"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	assert.Empty(t, e.Graph().Nodes)
	assert.False(t, e.History().CanUndo())
}

func TestEditPerson(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t)
	a, _ := couple(t, e)

	require.NoError(t, e.EditPerson(ctx, a, family.Person{Name: "Ada King", Birth: "1815"}))
	n, _ := e.Graph().Node(a)
	assert.Equal(t, "Ada King", n.Person.Name)
	assert.Equal(t, "1815", n.Person.Birth)

	past, _ := e.History().Len()
	err := e.EditPerson(ctx, "P_404", family.Person{Name: "nobody"})
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	after, _ := e.History().Len()
	assert.Equal(t, past, after)
}

func TestConnectPersonsCreatesUnion(t *testing.T) {
	ctx := context.Background()
	e, l := newEditor(t)
	a, b := couple(t, e)
	g, err := e.Graph().MoveNode(b, family.Point{X: 240, Y: 40})
	require.NoError(t, err)
	require.NoError(t, e.Import(ctx, document.FromGraph(g, "")))

	conn, err := e.Connect(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, conn.Created)

	union, ok := e.Graph().Node(conn.Union)
	require.True(t, ok)
	assert.Equal(t, family.UnionKey(a, b), union.Union.Key)
	assert.Equal(t, family.Point{X: 140, Y: 40}, union.Position)
	assert.Equal(t, family.Size{Width: 36, Height: 36}, union.Size)
	assert.ElementsMatch(t, []string{a, b}, e.Graph().Partners(conn.Union))
	assert.Equal(t, []layout.Policy{layout.PolicyStrict}, l.policies)

	again, err := e.Connect(ctx, b, a)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, conn.Union, again.Union)
	assert.Len(t, e.Graph().Edges, 2, "parent edges are not duplicated")
	assert.Len(t, e.Graph().Unions(), 1)
}

func TestConnectUnionToPerson(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t)
	a, b := couple(t, e)
	c, err := e.AddPerson(ctx, family.Person{Name: "Cy"})
	require.NoError(t, err)
	conn, err := e.Connect(ctx, a, b)
	require.NoError(t, err)

	child, err := e.Connect(ctx, conn.Union, c)
	require.NoError(t, err)
	assert.Equal(t, c, child.Child)
	assert.Equal(t, []string{c}, e.Graph().Children(conn.Union))
	assert.True(t, e.Graph().IsChild(c))

	_, err = e.Connect(ctx, conn.Union, c)
	require.NoError(t, err)
	assert.Len(t, e.Graph().Edges, 3)
}

func TestConnectRejects(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t)
	a, b := couple(t, e)
	conn, err := e.Connect(ctx, a, b)
	require.NoError(t, err)
	c, err := e.AddPerson(ctx, family.Person{Name: "Cy"})
	require.NoError(t, err)
	d, err := e.AddPerson(ctx, family.Person{Name: "Di"})
	require.NoError(t, err)
	other, err := e.Connect(ctx, c, d)
	require.NoError(t, err)

	tests := []struct {
		name           string
		source, target string
		code           errors.Code
	}{
		{"self", a, a, errors.ErrCodeInvalidConnection},
		{"empty", "", b, errors.ErrCodeInvalidConnection},
		{"unknown source", "P_404", b, errors.ErrCodeInvalidConnection},
		{"unknown target", a, "P_404", errors.ErrCodeInvalidConnection},
		{"person to union", a, conn.Union, errors.ErrCodeInvalidConnection},
		{"union to union", conn.Union, other.Union, errors.ErrCodeInvalidConnection},
		{"partner as child", conn.Union, a, errors.ErrCodeCycleDetected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := e.State()
			past, future := e.History().Len()

			_, err := e.Connect(ctx, tt.source, tt.target)
			assert.True(t, errors.Is(err, tt.code), "err = %v", err)
			assert.Equal(t, before, e.State())
			p, f := e.History().Len()
			assert.Equal(t, past, p)
			assert.Equal(t, future, f)
		})
	}
}

func TestConnectRejectsDescendantAsPartner(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t)
	a, b := couple(t, e)
	c, err := e.AddPerson(ctx, family.Person{Name: "Cy"})
	require.NoError(t, err)
	conn, err := e.Connect(ctx, a, b)
	require.NoError(t, err)
	_, err = e.Connect(ctx, conn.Union, c)
	require.NoError(t, err)

	// Drop A's parent edge and make A a child of C and B, so that U_1 is
	// an ancestor of A when the partners are connected again.
	g := e.Graph().Clone()
	g.Edges = g.Edges[1:]
	g2, u2 := family.FindOrCreateUnion(g, c, b, family.NewSequentialIDs(g))
	g2 = family.AddChildToUnion(g2, u2, a, family.NewSequentialIDs(g2))
	require.NoError(t, e.Import(ctx, document.FromGraph(g2, "")))

	_, err = e.Connect(ctx, a, b)
	assert.True(t, errors.Is(err, errors.ErrCodeCycleDetected), "err = %v", err)
}

func TestDeletePerson(t *testing.T) {
	ctx := context.Background()
	e, l := newEditor(t)
	a, b := couple(t, e)
	c, err := e.AddPerson(ctx, family.Person{Name: "Cy"})
	require.NoError(t, err)
	conn, err := e.Connect(ctx, a, b)
	require.NoError(t, err)
	_, err = e.Connect(ctx, conn.Union, c)
	require.NoError(t, err)
	runs := len(l.policies)

	require.NoError(t, e.DeletePerson(ctx, a))

	g := e.Graph()
	_, ok := g.Node(a)
	assert.False(t, ok)
	_, ok = g.Node(conn.Union)
	assert.False(t, ok, "union of a deleted partner is removed")
	_, ok = g.Node(c)
	assert.True(t, ok, "children stay")
	assert.Empty(t, g.Edges)
	assert.False(t, g.IsChild(c))
	assert.Len(t, l.policies, runs+1)

	assert.True(t, errors.Is(e.DeletePerson(ctx, "P_404"), errors.ErrCodeNotFound))
}

func TestDeleteUnionRejected(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t)
	a, b := couple(t, e)
	conn, err := e.Connect(ctx, a, b)
	require.NoError(t, err)

	err = e.DeletePerson(ctx, conn.Union)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	_, ok := e.Graph().Node(conn.Union)
	assert.True(t, ok)
}

func TestSetFriendly(t *testing.T) {
	ctx := context.Background()
	e, l := newEditor(t)
	couple(t, e)

	res := e.SetFriendly(ctx, true)
	assert.True(t, res.Applied)
	assert.True(t, e.State().Friendly)
	assert.Equal(t, layout.PolicyFriendly, e.Policy())
	assert.Equal(t, []layout.Policy{layout.PolicyFriendly}, l.policies)

	require.True(t, e.Undo(ctx))
	assert.False(t, e.State().Friendly)
}

func TestRelayoutUsesPolicy(t *testing.T) {
	ctx := context.Background()
	e, l := newEditor(t)
	e.SetFriendly(ctx, true)
	e.Relayout(ctx)
	assert.Equal(t, []layout.Policy{layout.PolicyFriendly, layout.PolicyFriendly}, l.policies)
}

func TestUndoRedo(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t)
	assert.False(t, e.Undo(ctx))
	assert.False(t, e.Redo(ctx))

	a, b := couple(t, e)
	withBoth := e.State()

	require.True(t, e.Undo(ctx))
	assert.Len(t, e.Graph().Nodes, 1)
	require.True(t, e.Undo(ctx))
	assert.Empty(t, e.Graph().Nodes)
	assert.False(t, e.History().CanUndo())

	require.True(t, e.Redo(ctx))
	require.True(t, e.Redo(ctx))
	assert.Equal(t, withBoth, e.State())
	assert.False(t, e.History().CanRedo())

	e.Undo(ctx)
	_, err := e.AddPerson(ctx, family.Person{Name: "Cy"})
	require.NoError(t, err)
	assert.False(t, e.History().CanRedo(), "a new command clears redo")

	_, ok := e.Graph().Node(a)
	assert.True(t, ok)
	_, ok = e.Graph().Node(b)
	assert.False(t, ok)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t)
	couple(t, e)
	before := e.State()

	bad := document.Document{
		Nodes: []document.Node{{ID: "X", Kind: "person", Attributes: document.Attributes{Name: "X"}}},
		Edges: []document.Edge{{ID: "E", Source: "X", Target: "missing", Kind: "parent"}},
	}
	err := e.Import(ctx, bad)
	require.Error(t, err)
	assert.Equal(t, before, e.State())

	good := document.Document{
		Nodes: []document.Node{{ID: "X", Kind: "person", Attributes: document.Attributes{Name: "X"}}},
	}
	require.NoError(t, e.Import(ctx, good))
	assert.Len(t, e.Graph().Nodes, 1)
	assert.Equal(t, "X", e.Document().Nodes[0].ID)

	require.True(t, e.Undo(ctx))
	assert.Equal(t, before, e.State())
}

type recordingEditorHooks struct {
	observability.NoopEditorHooks
	mu       sync.Mutex
	commands []string
	failed   []string
}

func (h *recordingEditorHooks) OnCommand(_ context.Context, command string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, command)
	if err != nil {
		h.failed = append(h.failed, command)
	}
}

func TestCommandHooks(t *testing.T) {
	hooks := &recordingEditorHooks{}
	observability.SetEditorHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	e, _ := newEditor(t)
	a, b := couple(t, e)
	_, _ = e.Connect(ctx, a, b)
	_, _ = e.Connect(ctx, a, a)
	e.Undo(ctx)

	assert.Equal(t, []string{"add-person", "add-person", "connect", "connect", "undo"}, hooks.commands)
	assert.Equal(t, []string{"connect"}, hooks.failed)
}

func TestEditorWithLayeredEngine(t *testing.T) {
	ctx := context.Background()
	e := New(State{}, Options{
		IDs:    &family.SequentialIDs{},
		Layout: layout.NewEngine(layered.New(), log.New(&bytes.Buffer{})),
		Logger: log.New(&bytes.Buffer{}),
	})
	a, b := couple(t, e)
	c, err := e.AddPerson(ctx, family.Person{Name: "Cy"})
	require.NoError(t, err)
	conn, err := e.Connect(ctx, a, b)
	require.NoError(t, err)
	_, err = e.Connect(ctx, conn.Union, c)
	require.NoError(t, err)

	require.True(t, e.LastLayout().Applied)
	g := e.Graph()
	pa, _ := g.Node(a)
	pc, _ := g.Node(c)
	u, _ := g.Node(conn.Union)
	assert.Greater(t, pc.Position.Y, pa.Position.Y)
	assert.Equal(t, layout.UnionBarHeight, u.Size.Height)
	assert.Equal(t, family.HandleBottom, pa.SourceHandle)
}
