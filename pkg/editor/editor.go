// Package editor holds the interactive editing state of a family diagram
// and the commands that change it.
//
// An [Editor] owns one [State] and a bounded [History]. Every successful
// command records the previous state before committing, so it can be undone;
// a command that fails validation leaves both state and history untouched.
// Structural commands re-run the layout with the current policy.
//
// Editor is not safe for concurrent use.
package editor

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout"
	"github.com/matzehuels/familymap/pkg/layout/rank"
	"github.com/matzehuels/familymap/pkg/observability"
)

// NewPersonPosition is where AddPerson places a new person.
var NewPersonPosition = family.Point{X: 40, Y: 40}

// Layouter computes a layout for a policy. *layout.Engine implements it.
type Layouter interface {
	Compute(ctx context.Context, g family.Graph, policy layout.Policy) layout.Result
}

// Options configure an Editor. Zero fields get defaults: random IDs, the
// default layout engine, DefaultHistoryLimit and log.Default().
type Options struct {
	IDs          family.IDGenerator
	Layout       Layouter
	HistoryLimit int
	Logger       *log.Logger
}

// Editor applies commands to a State.
type Editor struct {
	state   State
	history *History
	ids     family.IDGenerator
	layout  Layouter
	logger  *log.Logger
	last    layout.Result
}

// New returns an Editor starting from initial.
func New(initial State, opts Options) *Editor {
	if opts.IDs == nil {
		opts.IDs = family.RandomIDs{}
	}
	if opts.Layout == nil {
		opts.Layout = layout.DefaultEngine()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if initial.Direction == "" {
		initial.Direction = rank.TopToBottom
	}
	return &Editor{
		state:   initial.clone(),
		history: NewHistory(opts.HistoryLimit),
		ids:     opts.IDs,
		layout:  opts.Layout,
		logger:  opts.Logger,
		last:    layout.Result{Applied: true},
	}
}

// State returns a copy of the current state.
func (e *Editor) State() State { return e.state.clone() }

// Graph returns the current graph. The caller must not modify it.
func (e *Editor) Graph() family.Graph { return e.state.Graph }

// Policy returns the span policy in effect.
func (e *Editor) Policy() layout.Policy { return policyFor(e.state.Friendly) }

func policyFor(friendly bool) layout.Policy {
	if friendly {
		return layout.PolicyFriendly
	}
	return layout.PolicyStrict
}

// History exposes the undo/redo stacks for inspection.
func (e *Editor) History() *History { return e.history }

// LastLayout returns the result of the most recent layout run. When it was
// not applied, Err explains why.
func (e *Editor) LastLayout() layout.Result { return e.last }

// Document exports the current state.
func (e *Editor) Document() document.Document {
	return document.FromGraph(e.state.Graph, e.state.Direction)
}

// run wraps a command with timing, hooks and logging.
func (e *Editor) run(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	observability.Editor().OnCommand(ctx, name, time.Since(start), err)
	if err != nil {
		e.logger.Debug("command rejected", "command", name, "err", err)
	}
	return err
}

// commit records the current state and installs next.
func (e *Editor) commit(next State) {
	e.history.Record(e.state)
	e.state = next
}

func (e *Editor) relayout(ctx context.Context, s State) State {
	e.last = e.layout.Compute(ctx, s.Graph, policyFor(s.Friendly))
	s.Graph = e.last.Graph
	return s
}

// AddPerson appends a person at NewPersonPosition with the default person
// size and returns its ID. It does not re-run the layout.
func (e *Editor) AddPerson(ctx context.Context, p family.Person) (string, error) {
	var id string
	err := e.run(ctx, "add-person", func() error {
		if !p.Gender.Valid() {
			return errors.New(errors.ErrCodeInvalidInput, "unknown gender %q", p.Gender)
		}
		id = e.ids.NewID(family.PrefixPerson)
		n := family.NewPerson(id, p)
		n.Position = NewPersonPosition
		n.Size = family.DefaultSize(family.KindPerson)

		next := e.state
		next.Graph = e.state.Graph.WithNode(n)
		e.commit(next)
		return nil
	})
	return id, err
}

// EditPerson replaces the attributes of person id.
func (e *Editor) EditPerson(ctx context.Context, id string, p family.Person) error {
	return e.run(ctx, "edit-person", func() error {
		if !p.Gender.Valid() {
			return errors.New(errors.ErrCodeInvalidInput, "unknown gender %q", p.Gender)
		}
		g, err := e.state.Graph.SetPerson(id, p)
		if err != nil {
			return errors.Wrap(errors.ErrCodeNotFound, err, "edit %q", id)
		}
		next := e.state
		next.Graph = g
		e.commit(next)
		return nil
	})
}

// DeletePerson removes person id with its unions and their edges, then
// re-runs the layout.
func (e *Editor) DeletePerson(ctx context.Context, id string) error {
	return e.run(ctx, "delete-person", func() error {
		n, ok := e.state.Graph.Node(id)
		if !ok {
			return errors.New(errors.ErrCodeNotFound, "no node %q", id)
		}
		if !n.IsPerson() {
			return errors.New(errors.ErrCodeInvalidInput, "%q is a union; delete one of its partners instead", id)
		}
		next := e.state
		next.Graph = family.DeletePersonCascade(e.state.Graph, id)
		e.commit(e.relayout(ctx, next))
		return nil
	})
}

// Relayout re-runs the layout with the current policy as an undoable step.
func (e *Editor) Relayout(ctx context.Context) layout.Result {
	_ = e.run(ctx, "relayout", func() error {
		e.commit(e.relayout(ctx, e.state))
		return e.last.Err
	})
	return e.last
}

// SetFriendly switches the span policy and re-runs the layout in the new mode.
func (e *Editor) SetFriendly(ctx context.Context, friendly bool) layout.Result {
	_ = e.run(ctx, "set-friendly", func() error {
		next := e.state
		next.Friendly = friendly
		e.commit(e.relayout(ctx, next))
		return e.last.Err
	})
	return e.last
}

// Connection describes the outcome of Connect.
type Connection struct {
	// Union is the union the connection went through.
	Union string
	// Created is true when Connect made a new union.
	Created bool
	// Child is the person attached as a child, if any.
	Child string
}

// Connect links source to target. Two persons are joined through their union,
// which is created when missing. A union and a person make the person a child of
// the union. Any other pairing, a self connection or a connection that would
// close an ancestry cycle is rejected. A successful connection re-runs the
// layout.
func (e *Editor) Connect(ctx context.Context, source, target string) (Connection, error) {
	var conn Connection
	err := e.run(ctx, "connect", func() error {
		g := e.state.Graph
		if source == "" || target == "" {
			return errors.New(errors.ErrCodeInvalidConnection, "source and target are required")
		}
		if source == target {
			return errors.New(errors.ErrCodeInvalidConnection, "cannot connect %q to itself", source)
		}
		src, ok := g.Node(source)
		if !ok {
			return errors.New(errors.ErrCodeInvalidConnection, "unknown node %q", source)
		}
		dst, ok := g.Node(target)
		if !ok {
			return errors.New(errors.ErrCodeInvalidConnection, "unknown node %q", target)
		}

		var next family.Graph
		var err error
		switch {
		case src.IsPerson() && dst.IsPerson():
			next, conn, err = e.joinPartners(g, src, dst)
		case src.IsUnion() && dst.IsPerson():
			next, conn, err = e.attachChild(g, src.ID, dst.ID)
		default:
			return errors.New(errors.ErrCodeInvalidConnection,
				"Connect person→person to create a union, or union→person to add a child.")
		}
		if err != nil {
			return err
		}

		s := e.state
		s.Graph = next
		e.commit(e.relayout(ctx, s))
		return nil
	})
	return conn, err
}

func (e *Editor) joinPartners(g family.Graph, a, b family.Node) (family.Graph, Connection, error) {
	_, existed := g.UnionFor(a.ID, b.ID)
	next, uid := family.FindOrCreateUnion(g, a.ID, b.ID, e.ids)
	conn := Connection{Union: uid, Created: !existed}

	if !existed {
		mid := family.Point{X: (a.Position.X + b.Position.X) / 2, Y: (a.Position.Y + b.Position.Y) / 2}
		var err error
		if next, err = next.MoveNode(uid, mid); err != nil {
			return g, conn, errors.Wrap(errors.ErrCodeInternal, err, "place union")
		}
	}
	for _, p := range []string{a.ID, b.ID} {
		if family.HasEdge(next.Edges, p, uid, family.EdgeParent) {
			continue
		}
		if family.WouldCreateCycle(next, p, uid) {
			return g, conn, errors.New(errors.ErrCodeCycleDetected,
				"%q is already a descendant of union %q", p, uid)
		}
		next = family.EnsureEdge(next, p, uid, family.EdgeParent, e.ids)
	}
	return next, conn, nil
}

func (e *Editor) attachChild(g family.Graph, unionID, childID string) (family.Graph, Connection, error) {
	conn := Connection{Union: unionID, Child: childID}
	if family.HasEdge(g.Edges, unionID, childID, family.EdgeChild) {
		return g, conn, nil
	}
	if family.WouldCreateCycle(g, unionID, childID) {
		return g, conn, errors.New(errors.ErrCodeCycleDetected,
			"%q is an ancestor of union %q", childID, unionID)
	}
	return family.AddChildToUnion(g, unionID, childID, e.ids), conn, nil
}

// Import replaces the state with doc. The document is fully validated first;
// on error nothing changes.
func (e *Editor) Import(ctx context.Context, doc document.Document) error {
	return e.run(ctx, "import", func() error {
		g, dir, err := doc.ToGraph()
		if err != nil {
			return err
		}
		next := e.state
		next.Graph = g
		next.Direction = dir
		e.commit(next)
		return nil
	})
}

// Undo restores the previous state. It reports false when there is nothing
// to undo.
func (e *Editor) Undo(ctx context.Context) bool {
	var ok bool
	_ = e.run(ctx, "undo", func() error {
		e.state, ok = e.history.Undo(e.state)
		return nil
	})
	return ok
}

// Redo re-applies the most recently undone state. It reports false when
// there is nothing to redo.
func (e *Editor) Redo(ctx context.Context) bool {
	var ok bool
	_ = e.run(ctx, "redo", func() error {
		e.state, ok = e.history.Redo(e.state)
		return nil
	})
	return ok
}
