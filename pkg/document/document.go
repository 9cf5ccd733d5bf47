// Package document is the exchange format for family diagrams.
//
// A [Document] is a flat, tool-neutral rendering of a family graph:
//
//	{
//	  "nodes": [{"id": "P_1", "kind": "person", "attributes": {...},
//	             "position": {"x": 0, "y": 0}, "size": {"width": 180, "height": 72}}],
//	  "edges": [{"id": "E_1", "source": "P_1", "target": "U_1", "kind": "parent"}],
//	  "layoutDirection": "TB"
//	}
//
// Documents are read and written as JSON, YAML or TOML (see [Format]).
// [Document.ToGraph] validates the whole document before returning a graph,
// so an import either succeeds completely or changes nothing.
package document

import (
	stderrors "errors"
	"math"

	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout/rank"
)

// Document is the serialized form of a family graph.
type Document struct {
	Nodes           []Node `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges           []Edge `json:"edges" yaml:"edges" toml:"edges"`
	LayoutDirection string `json:"layoutDirection" yaml:"layoutDirection" toml:"layoutDirection"`
}

// Node is a serialized person or union.
type Node struct {
	ID             string     `json:"id" yaml:"id" toml:"id"`
	Kind           string     `json:"kind" yaml:"kind" toml:"kind"`
	Attributes     Attributes `json:"attributes" yaml:"attributes" toml:"attributes"`
	Position       Point      `json:"position" yaml:"position" toml:"position"`
	Size           *Size      `json:"size,omitempty" yaml:"size,omitempty" toml:"size,omitempty"`
	TargetPosition string     `json:"targetPosition,omitempty" yaml:"targetPosition,omitempty" toml:"targetPosition,omitempty"`
	SourcePosition string     `json:"sourcePosition,omitempty" yaml:"sourcePosition,omitempty" toml:"sourcePosition,omitempty"`
}

// Attributes holds the fields of either kind. Persons use Name, Birth, Death
// and Gender; unions use Key and Partners.
type Attributes struct {
	Name     string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Birth    string   `json:"birth,omitempty" yaml:"birth,omitempty" toml:"birth,omitempty"`
	Death    string   `json:"death,omitempty" yaml:"death,omitempty" toml:"death,omitempty"`
	Gender   string   `json:"gender,omitempty" yaml:"gender,omitempty" toml:"gender,omitempty"`
	Key      string   `json:"key,omitempty" yaml:"key,omitempty" toml:"key,omitempty"`
	Partners []string `json:"partners,omitempty" yaml:"partners,omitempty" toml:"partners,omitempty"`
}

// Point is a serialized position.
type Point struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
}

// Size is a serialized footprint.
type Size struct {
	Width  float64 `json:"width" yaml:"width" toml:"width"`
	Height float64 `json:"height" yaml:"height" toml:"height"`
}

// Edge is a serialized relation.
type Edge struct {
	ID     string `json:"id" yaml:"id" toml:"id"`
	Source string `json:"source" yaml:"source" toml:"source"`
	Target string `json:"target" yaml:"target" toml:"target"`
	Kind   string `json:"kind" yaml:"kind" toml:"kind"`
}

// FromGraph serializes g. Nodes without an explicit size are written
// without one.
func FromGraph(g family.Graph, dir rank.Direction) Document {
	if dir == "" {
		dir = rank.TopToBottom
	}
	doc := Document{
		Nodes:           make([]Node, 0, len(g.Nodes)),
		Edges:           make([]Edge, 0, len(g.Edges)),
		LayoutDirection: string(dir),
	}
	for _, n := range g.Nodes {
		out := Node{
			ID:             n.ID,
			Kind:           string(n.Kind),
			Position:       Point{X: n.Position.X, Y: n.Position.Y},
			TargetPosition: string(n.TargetHandle),
			SourcePosition: string(n.SourceHandle),
		}
		if !n.Size.IsZero() {
			out.Size = &Size{Width: n.Size.Width, Height: n.Size.Height}
		}
		switch {
		case n.Person != nil:
			out.Attributes = Attributes{
				Name:   n.Person.Name,
				Birth:  n.Person.Birth,
				Death:  n.Person.Death,
				Gender: string(n.Person.Gender),
			}
		case n.Union != nil:
			out.Attributes = Attributes{
				Key:      n.Union.Key,
				Partners: []string{n.Union.Partners[0], n.Union.Partners[1]},
			}
		}
		doc.Nodes = append(doc.Nodes, out)
	}
	for _, e := range g.Edges {
		doc.Edges = append(doc.Edges, Edge{ID: e.ID, Source: e.Source, Target: e.Target, Kind: string(e.Kind)})
	}
	return doc
}

// ToGraph validates d and converts it to a graph. Any malformed field fails
// the whole conversion with an INVALID_DOCUMENT error (CYCLE_DETECTED for
// cyclic ancestry); no partial graph is returned.
func (d Document) ToGraph() (family.Graph, rank.Direction, error) {
	dir := rank.Direction(d.LayoutDirection)
	if dir == "" {
		dir = rank.TopToBottom
	}
	if !dir.Valid() {
		return family.Graph{}, "", invalid("unknown layoutDirection %q", d.LayoutDirection)
	}

	g := family.Graph{
		Nodes: make([]family.Node, 0, len(d.Nodes)),
		Edges: make([]family.Edge, 0, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		node, err := n.toNode(i)
		if err != nil {
			return family.Graph{}, "", err
		}
		g.Nodes = append(g.Nodes, node)
	}
	for i, e := range d.Edges {
		if err := errors.ValidateNodeID(e.ID); err != nil {
			return family.Graph{}, "", errors.Wrap(errors.ErrCodeInvalidDocument, err, "edge %d", i)
		}
		g.Edges = append(g.Edges, family.Edge{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			Kind:   family.EdgeKind(e.Kind),
		})
	}

	if err := g.Validate(); err != nil {
		if stderrors.Is(err, family.ErrAncestryCycle) {
			return family.Graph{}, "", errors.Wrap(errors.ErrCodeCycleDetected, err, "document ancestry is cyclic")
		}
		return family.Graph{}, "", errors.Wrap(errors.ErrCodeInvalidDocument, err, "invalid document")
	}
	return g, dir, nil
}

func (n Node) toNode(i int) (family.Node, error) {
	if err := errors.ValidateNodeID(n.ID); err != nil {
		return family.Node{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "node %d", i)
	}
	if !finite(n.Position.X) || !finite(n.Position.Y) {
		return family.Node{}, invalid("node %q has a non-finite position", n.ID)
	}

	a := n.Attributes
	var out family.Node
	switch family.NodeKind(n.Kind) {
	case family.KindPerson:
		if a.Key != "" || len(a.Partners) > 0 {
			return family.Node{}, invalid("person %q cannot carry union attributes", n.ID)
		}
		gender := family.Gender(a.Gender)
		if !gender.Valid() {
			return family.Node{}, invalid("person %q has unknown gender %q", n.ID, a.Gender)
		}
		out = family.NewPerson(n.ID, family.Person{Name: a.Name, Birth: a.Birth, Death: a.Death, Gender: gender})
	case family.KindUnion:
		if a.Name != "" || a.Birth != "" || a.Death != "" || a.Gender != "" {
			return family.Node{}, invalid("union %q cannot carry person attributes", n.ID)
		}
		if len(a.Partners) != 2 {
			return family.Node{}, invalid("union %q needs exactly two partners, got %d", n.ID, len(a.Partners))
		}
		out = family.NewUnion(n.ID, a.Partners[0], a.Partners[1])
		if a.Key != "" && a.Key != out.Union.Key {
			return family.Node{}, invalid("union %q key %q does not match partners %v", n.ID, a.Key, a.Partners)
		}
	default:
		return family.Node{}, invalid("node %q has unknown kind %q", n.ID, n.Kind)
	}

	out.Position = family.Point{X: n.Position.X, Y: n.Position.Y}
	if n.Size != nil {
		if !finite(n.Size.Width) || !finite(n.Size.Height) || n.Size.Width < 0 || n.Size.Height < 0 {
			return family.Node{}, invalid("node %q has an invalid size", n.ID)
		}
		out.Size = family.Size{Width: n.Size.Width, Height: n.Size.Height}
	}

	var err error
	if out.TargetHandle, err = handle(n.ID, n.TargetPosition); err != nil {
		return family.Node{}, err
	}
	if out.SourceHandle, err = handle(n.ID, n.SourcePosition); err != nil {
		return family.Node{}, err
	}
	return out, nil
}

func handle(id, s string) (family.Handle, error) {
	switch h := family.Handle(s); h {
	case family.HandleNone, family.HandleTop, family.HandleBottom:
		return h, nil
	default:
		return "", invalid("node %q has unknown connector position %q", id, s)
	}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidDocument, format, args...)
}
