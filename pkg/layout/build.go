package layout

import (
	"slices"

	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout/rank"
)

// Edge weights handed to the solver. Parent and child edges pull harder than
// partner edges; sibling links only nudge children together.
const (
	WeightPartner = 1.0
	WeightParent  = 2.0
	WeightChild   = 2.0
	WeightOther   = 1.0
	WeightSibling = 0.5
)

// EdgeWeight returns the solver weight for kind.
func EdgeWeight(kind family.EdgeKind) float64 {
	switch kind {
	case family.EdgePartner:
		return WeightPartner
	case family.EdgeParent:
		return WeightParent
	case family.EdgeChild:
		return WeightChild
	default:
		return WeightOther
	}
}

// Footprint returns the size a node occupies during ranking. Persons use
// their effective size. Unions always rank as the default 36x36 even when
// they carry an explicit size: that size is written by the span pass, and
// feeding it back would make a second layout differ from the first.
func Footprint(n family.Node) family.Size {
	if n.IsUnion() {
		return family.DefaultSize(family.KindUnion)
	}
	return n.EffectiveSize()
}

// BuildRankGraph translates g into solver input. Every node is registered
// with its footprint, every edge with its weight. Consecutive children of
// each union (edge order) are linked by auxiliary sibling edges and grouped
// to share a rank. Edges with a missing endpoint are skipped.
func BuildRankGraph(g family.Graph, opts rank.Options) rank.Graph {
	rg := rank.Graph{
		Nodes:   make([]rank.Node, 0, len(g.Nodes)),
		Edges:   make([]rank.Edge, 0, len(g.Edges)),
		Options: opts.WithDefaults(),
	}

	present := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		size := Footprint(n)
		rg.Nodes = append(rg.Nodes, rank.Node{ID: n.ID, Width: size.Width, Height: size.Height})
		present[n.ID] = true
	}

	var unionOrder []string
	children := make(map[string][]string)
	for _, e := range g.Edges {
		if e.Source == "" || e.Target == "" || !present[e.Source] || !present[e.Target] {
			continue
		}
		rg.Edges = append(rg.Edges, rank.Edge{From: e.Source, To: e.Target, Weight: EdgeWeight(e.Kind)})
		if e.Kind != family.EdgeChild {
			continue
		}
		if _, ok := children[e.Source]; !ok {
			unionOrder = append(unionOrder, e.Source)
		}
		if !slices.Contains(children[e.Source], e.Target) {
			children[e.Source] = append(children[e.Source], e.Target)
		}
	}

	for _, u := range unionOrder {
		kids := children[u]
		if len(kids) < 2 {
			continue
		}
		for i := 1; i < len(kids); i++ {
			rg.Edges = append(rg.Edges, rank.Edge{From: kids[i-1], To: kids[i], Weight: WeightSibling, Aux: true})
		}
		rg.SameRank = append(rg.SameRank, kids)
	}
	return rg
}
