package family

import (
	"errors"
	"slices"
	"strings"
)

var (
	// ErrUnknownNode is returned when an operation names a node that is not
	// in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrNotPerson is returned when a person is required but the node is a union.
	ErrNotPerson = errors.New("node is not a person")

	// ErrNotUnion is returned when a union is required but the node is a person.
	ErrNotUnion = errors.New("node is not a union")
)

// Default footprints, in pixels, for nodes without an explicit size.
const (
	DefaultPersonWidth  = 180.0
	DefaultPersonHeight = 72.0
	DefaultUnionWidth   = 36.0
	DefaultUnionHeight  = 36.0
)

// Prefixes passed to the IDGenerator for each kind of entity.
const (
	PrefixPerson = "P"
	PrefixUnion  = "U"
	PrefixEdge   = "E"
)

// NodeKind tags a node as a person or a union.
type NodeKind string

const (
	KindPerson NodeKind = "person"
	KindUnion  NodeKind = "union"
)

// EdgeKind tags the relation an edge expresses.
type EdgeKind string

const (
	EdgePartner EdgeKind = "partner"
	EdgeParent  EdgeKind = "parent"
	EdgeChild   EdgeKind = "child"
)

// Gender is optional; the zero value means unspecified.
type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderUnspecified, GenderMale, GenderFemale:
		return true
	}
	return false
}

// Handle names the side of a node an edge attaches to.
type Handle string

const (
	HandleNone   Handle = ""
	HandleTop    Handle = "top"
	HandleBottom Handle = "bottom"
)

// Point is a position in diagram pixels. For nodes it is the top-left corner.
type Point struct {
	X, Y float64
}

// Size is a node footprint in pixels. The zero value means "use the default".
type Size struct {
	Width, Height float64
}

// IsZero reports whether no explicit size was set.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Person holds the biographical attributes of a person node. Birth and Death
// are free text; nothing here validates them as dates.
type Person struct {
	Name   string
	Birth  string
	Death  string
	Gender Gender
}

// Union holds the partners of a union node.
type Union struct {
	Key      string
	Partners [2]string
}

// Node is a vertex of the diagram. Exactly one of Person and Union is set,
// matching Kind.
type Node struct {
	ID     string
	Kind   NodeKind
	Person *Person
	Union  *Union

	Position Point
	Size     Size

	// Connector hints written by the layout engine.
	TargetHandle Handle
	SourceHandle Handle
}

// NewPerson returns a person node with the given attributes.
func NewPerson(id string, p Person) Node {
	return Node{ID: id, Kind: KindPerson, Person: &p}
}

// NewUnion returns a union node for partners a and b.
func NewUnion(id, a, b string) Node {
	lo, hi := sortedPair(a, b)
	return Node{
		ID:   id,
		Kind: KindUnion,
		Union: &Union{
			Key:      UnionKey(a, b),
			Partners: [2]string{lo, hi},
		},
	}
}

// IsPerson reports whether the node is a person.
func (n Node) IsPerson() bool { return n.Kind == KindPerson }

// IsUnion reports whether the node is a union.
func (n Node) IsUnion() bool { return n.Kind == KindUnion }

// EffectiveSize returns the explicit size, or the default for the node kind.
// A partially set size keeps its non-zero dimension.
func (n Node) EffectiveSize() Size {
	def := DefaultSize(n.Kind)
	s := n.Size
	if s.Width <= 0 {
		s.Width = def.Width
	}
	if s.Height <= 0 {
		s.Height = def.Height
	}
	return s
}

// DefaultSize returns the default footprint for kind.
func DefaultSize(kind NodeKind) Size {
	if kind == KindUnion {
		return Size{Width: DefaultUnionWidth, Height: DefaultUnionHeight}
	}
	return Size{Width: DefaultPersonWidth, Height: DefaultPersonHeight}
}

// Edge is a directed relation between two nodes.
type Edge struct {
	ID     string
	Source string
	Target string
	Kind   EdgeKind
}

// Graph is the full diagram. The zero value is an empty graph.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// UnionKey returns the dedup key for a partnership: the partner IDs sorted
// and joined by "|". It is symmetric in a and b.
func UnionKey(a, b string) string {
	lo, hi := sortedPair(a, b)
	return lo + "|" + hi
}

func sortedPair(a, b string) (string, string) {
	if strings.Compare(a, b) > 0 {
		return b, a
	}
	return a, b
}

// Clone returns a deep copy of g.
func (g Graph) Clone() Graph {
	out := Graph{Edges: slices.Clone(g.Edges)}
	if g.Nodes != nil {
		out.Nodes = make([]Node, len(g.Nodes))
	}
	for i, n := range g.Nodes {
		if n.Person != nil {
			p := *n.Person
			n.Person = &p
		}
		if n.Union != nil {
			u := *n.Union
			n.Union = &u
		}
		out.Nodes[i] = n
	}
	return out
}

// Node returns the node with the given ID.
func (g Graph) Node(id string) (Node, bool) {
	if i := g.indexOf(id); i >= 0 {
		return g.Nodes[i], true
	}
	return Node{}, false
}

func (g Graph) indexOf(id string) int {
	return slices.IndexFunc(g.Nodes, func(n Node) bool { return n.ID == id })
}

// Index maps node IDs to their position in g.Nodes.
func (g Graph) Index() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// Persons returns the person nodes in insertion order.
func (g Graph) Persons() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.IsPerson() {
			out = append(out, n)
		}
	}
	return out
}

// Unions returns the union nodes in insertion order.
func (g Graph) Unions() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.IsUnion() {
			out = append(out, n)
		}
	}
	return out
}

// IsChild reports whether some child edge targets id. The flag is derived
// from the edges on every call and never stored.
func (g Graph) IsChild(id string) bool {
	return slices.ContainsFunc(g.Edges, func(e Edge) bool {
		return e.Kind == EdgeChild && e.Target == id
	})
}

// Partners returns the sources of parent edges into unionID, in edge order.
func (g Graph) Partners(unionID string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.Kind == EdgeParent && e.Target == unionID && !slices.Contains(out, e.Source) {
			out = append(out, e.Source)
		}
	}
	return out
}

// Children returns the targets of child edges out of unionID, in edge order.
func (g Graph) Children(unionID string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.Kind == EdgeChild && e.Source == unionID && !slices.Contains(out, e.Target) {
			out = append(out, e.Target)
		}
	}
	return out
}

// UnionFor returns the union whose key matches the pair a, b.
func (g Graph) UnionFor(a, b string) (Node, bool) {
	key := UnionKey(a, b)
	for _, n := range g.Nodes {
		if n.IsUnion() && n.Union != nil && n.Union.Key == key {
			return n, true
		}
	}
	return Node{}, false
}

// SetPerson returns a copy of g with the person attributes of id replaced.
func (g Graph) SetPerson(id string, p Person) (Graph, error) {
	i := g.indexOf(id)
	if i < 0 {
		return g, ErrUnknownNode
	}
	if !g.Nodes[i].IsPerson() {
		return g, ErrNotPerson
	}
	nodes := slices.Clone(g.Nodes)
	nodes[i].Person = &p
	return Graph{Nodes: nodes, Edges: g.Edges}, nil
}

// WithNode returns a copy of g with n appended.
func (g Graph) WithNode(n Node) Graph {
	nodes := make([]Node, 0, len(g.Nodes)+1)
	nodes = append(nodes, g.Nodes...)
	return Graph{Nodes: append(nodes, n), Edges: g.Edges}
}

// MoveNode returns a copy of g with the node id placed at p.
func (g Graph) MoveNode(id string, p Point) (Graph, error) {
	i := g.indexOf(id)
	if i < 0 {
		return g, ErrUnknownNode
	}
	nodes := slices.Clone(g.Nodes)
	nodes[i].Position = p
	return Graph{Nodes: nodes, Edges: g.Edges}, nil
}
