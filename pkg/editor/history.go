package editor

import (
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout/rank"
)

// DefaultHistoryLimit bounds the undo stack.
const DefaultHistoryLimit = 100

// State is the complete editable state: the graph plus view settings.
type State struct {
	Graph     family.Graph
	Direction rank.Direction
	Friendly  bool
}

func (s State) clone() State {
	s.Graph = s.Graph.Clone()
	return s
}

// History keeps value-copy snapshots for undo and redo. Recording a new
// snapshot clears the redo stack. When more than Limit snapshots are
// recorded the oldest is dropped.
type History struct {
	past   []State
	future []State
	limit  int
}

// NewHistory returns a History bounded to limit snapshots. A non-positive
// limit uses DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Record pushes s onto the undo stack and clears the redo stack.
func (h *History) Record(s State) {
	h.past = append(h.past, s.clone())
	if over := len(h.past) - h.limit; over > 0 {
		h.past = append(h.past[:0:0], h.past[over:]...)
	}
	h.future = nil
}

// Undo pops the latest snapshot, pushing current onto the redo stack.
func (h *History) Undo(current State) (State, bool) {
	if len(h.past) == 0 {
		return current, false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current.clone())
	return prev, true
}

// Redo pops the latest undone snapshot, pushing current onto the undo stack.
func (h *History) Redo(current State) (State, bool) {
	if len(h.future) == 0 {
		return current, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current.clone())
	return next, true
}

// CanUndo reports whether Undo would change state.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether Redo would change state.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Len returns the sizes of the undo and redo stacks.
func (h *History) Len() (past, future int) { return len(h.past), len(h.future) }
