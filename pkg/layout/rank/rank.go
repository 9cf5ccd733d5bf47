// Package rank defines the graph handed to a layered-layout solver and the
// [Solver] interface backends implement.
//
// A [Graph] lists sized nodes, weighted directed edges and groups of nodes
// that must share a rank. A solver assigns every node a rank along the
// layout direction and a coordinate within its rank, and reports node
// centers in pixels with a top-left origin.
package rank

import (
	"context"
	"errors"
)

// ErrUnavailable is returned (possibly wrapped) by a Solver whose backend
// cannot run at all, as opposed to one that failed on a particular graph.
var ErrUnavailable = errors.New("layout solver unavailable")

// Direction is the flow of ranks.
type Direction string

const (
	TopToBottom Direction = "TB"
	LeftToRight Direction = "LR"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == TopToBottom || d == LeftToRight
}

// Default separations, in pixels.
const (
	DefaultNodeSep = 50.0
	DefaultRankSep = 90.0
	DefaultEdgeSep = 10.0
)

// Options configure a solve.
type Options struct {
	Direction Direction
	NodeSep   float64 // between adjacent nodes in a rank
	RankSep   float64 // between ranks
	EdgeSep   float64 // between adjacent edges; advisory, not every solver honors it
}

// DefaultOptions returns top-to-bottom layout with the default separations.
func DefaultOptions() Options {
	return Options{
		Direction: TopToBottom,
		NodeSep:   DefaultNodeSep,
		RankSep:   DefaultRankSep,
		EdgeSep:   DefaultEdgeSep,
	}
}

// WithDefaults fills zero fields of o from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Direction == "" {
		o.Direction = d.Direction
	}
	if o.NodeSep <= 0 {
		o.NodeSep = d.NodeSep
	}
	if o.RankSep <= 0 {
		o.RankSep = d.RankSep
	}
	if o.EdgeSep <= 0 {
		o.EdgeSep = d.EdgeSep
	}
	return o
}

// Node is a box to place.
type Node struct {
	ID            string
	Width, Height float64
}

// Edge is a directed, weighted constraint from → to. Heavier edges are kept
// shorter and straighter. Aux edges only pull nodes together within a rank
// and never separate ranks.
type Edge struct {
	From, To string
	Weight   float64
	Aux      bool
}

// Graph is the input of a solve. Node and edge order is significant: solvers
// use it to break ties so results are deterministic.
type Graph struct {
	Nodes    []Node
	Edges    []Edge
	SameRank [][]string
	Options  Options
}

// Point is a node center in pixels.
type Point struct {
	X, Y float64
}

// Solver assigns positions to every node of a Graph.
type Solver interface {
	// Name identifies the backend in logs and cache keys.
	Name() string
	// Solve returns a center for every node in g.Nodes.
	Solve(ctx context.Context, g Graph) (map[string]Point, error)
}
