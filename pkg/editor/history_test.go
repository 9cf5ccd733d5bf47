package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/familymap/pkg/family"
)

func stateWith(names ...string) State {
	var g family.Graph
	for _, n := range names {
		g = g.WithNode(family.NewPerson(n, family.Person{Name: n}))
	}
	return State{Graph: g}
}

func TestHistoryLimit(t *testing.T) {
	h := NewHistory(2)
	h.Record(stateWith("a"))
	h.Record(stateWith("a", "b"))
	h.Record(stateWith("a", "b", "c"))

	past, _ := h.Len()
	assert.Equal(t, 2, past)

	s, ok := h.Undo(stateWith())
	require.True(t, ok)
	assert.Len(t, s.Graph.Nodes, 3)
	s, ok = h.Undo(s)
	require.True(t, ok)
	assert.Len(t, s.Graph.Nodes, 2)
	_, ok = h.Undo(s)
	assert.False(t, ok, "oldest snapshot was dropped")
}

func TestHistoryDefaultLimit(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < DefaultHistoryLimit+5; i++ {
		h.Record(State{})
	}
	past, _ := h.Len()
	assert.Equal(t, DefaultHistoryLimit, past)
}

func TestHistorySnapshotsAreCopies(t *testing.T) {
	h := NewHistory(10)
	s := stateWith("a")
	h.Record(s)
	s.Graph.Nodes[0].Person.Name = "changed"

	prev, ok := h.Undo(State{})
	require.True(t, ok)
	assert.Equal(t, "a", prev.Graph.Nodes[0].Person.Name)
}

func TestHistoryRecordClearsFuture(t *testing.T) {
	h := NewHistory(10)
	h.Record(stateWith("a"))
	cur, _ := h.Undo(stateWith("a", "b"))
	assert.True(t, h.CanRedo())

	h.Record(cur)
	assert.False(t, h.CanRedo())
}
