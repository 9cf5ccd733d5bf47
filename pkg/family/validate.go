package family

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGraph is wrapped by every structural problem Validate reports.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrAncestryCycle is returned by Validate when parent and child edges
	// form a directed cycle.
	ErrAncestryCycle = errors.New("ancestry contains a cycle")
)

// Validate checks the structural invariants of g: unique non-empty IDs,
// payloads matching node kinds, well-formed unions with distinct person
// partners and unique keys, edges between existing nodes of the right kinds,
// and an acyclic ancestry subgraph. It returns the first problem found.
func (g Graph) Validate() error {
	kinds := make(map[string]NodeKind, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has an empty id", ErrInvalidGraph, i)
		}
		if _, dup := kinds[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidGraph, n.ID)
		}
		switch n.Kind {
		case KindPerson:
			if n.Person == nil || n.Union != nil {
				return fmt.Errorf("%w: person %q must carry person attributes only", ErrInvalidGraph, n.ID)
			}
			if !n.Person.Gender.Valid() {
				return fmt.Errorf("%w: person %q has unknown gender %q", ErrInvalidGraph, n.ID, n.Person.Gender)
			}
		case KindUnion:
			if n.Union == nil || n.Person != nil {
				return fmt.Errorf("%w: union %q must carry union attributes only", ErrInvalidGraph, n.ID)
			}
		default:
			return fmt.Errorf("%w: node %q has unknown kind %q", ErrInvalidGraph, n.ID, n.Kind)
		}
		if n.Size.Width < 0 || n.Size.Height < 0 {
			return fmt.Errorf("%w: node %q has a negative size", ErrInvalidGraph, n.ID)
		}
		kinds[n.ID] = n.Kind
	}

	keys := make(map[string]string)
	partners := make(map[string][2]string)
	for _, n := range g.Nodes {
		if !n.IsUnion() {
			continue
		}
		partners[n.ID] = n.Union.Partners
		a, b := n.Union.Partners[0], n.Union.Partners[1]
		if a == "" || b == "" || a == b {
			return fmt.Errorf("%w: union %q needs two distinct partners", ErrInvalidGraph, n.ID)
		}
		for _, p := range n.Union.Partners {
			if kinds[p] != KindPerson {
				return fmt.Errorf("%w: union %q partner %q is not a person", ErrInvalidGraph, n.ID, p)
			}
		}
		if n.Union.Key != UnionKey(a, b) {
			return fmt.Errorf("%w: union %q key %q does not match its partners", ErrInvalidGraph, n.ID, n.Union.Key)
		}
		if other, dup := keys[n.Union.Key]; dup {
			return fmt.Errorf("%w: unions %q and %q share partners %q", ErrInvalidGraph, other, n.ID, n.Union.Key)
		}
		keys[n.Union.Key] = n.ID
	}

	type triple struct {
		source, target string
		kind           EdgeKind
	}
	edgeIDs := make(map[string]bool, len(g.Edges))
	seen := make(map[triple]bool, len(g.Edges))
	for i, e := range g.Edges {
		if e.ID == "" {
			return fmt.Errorf("%w: edge %d has an empty id", ErrInvalidGraph, i)
		}
		if edgeIDs[e.ID] {
			return fmt.Errorf("%w: duplicate edge id %q", ErrInvalidGraph, e.ID)
		}
		edgeIDs[e.ID] = true

		src, okS := kinds[e.Source]
		dst, okT := kinds[e.Target]
		if !okS || !okT {
			return fmt.Errorf("%w: edge %q references a missing node", ErrInvalidGraph, e.ID)
		}
		var want [2]NodeKind
		switch e.Kind {
		case EdgePartner:
			want = [2]NodeKind{KindPerson, KindPerson}
		case EdgeParent:
			want = [2]NodeKind{KindPerson, KindUnion}
		case EdgeChild:
			want = [2]NodeKind{KindUnion, KindPerson}
		default:
			return fmt.Errorf("%w: edge %q has unknown kind %q", ErrInvalidGraph, e.ID, e.Kind)
		}
		if src != want[0] || dst != want[1] {
			return fmt.Errorf("%w: %s edge %q must run %s -> %s", ErrInvalidGraph, e.Kind, e.ID, want[0], want[1])
		}
		if e.Kind == EdgeParent {
			if p := partners[e.Target]; p[0] != e.Source && p[1] != e.Source {
				return fmt.Errorf("%w: parent edge %q from %q, which is not a partner of %q", ErrInvalidGraph, e.ID, e.Source, e.Target)
			}
		}
		t := triple{e.Source, e.Target, e.Kind}
		if seen[t] {
			return fmt.Errorf("%w: duplicate %s edge %s -> %s", ErrInvalidGraph, e.Kind, e.Source, e.Target)
		}
		seen[t] = true
	}

	if HasAncestryCycle(g) {
		return ErrAncestryCycle
	}
	return nil
}
