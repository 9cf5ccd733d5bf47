package layout

import (
	"slices"

	"github.com/matzehuels/familymap/pkg/family"
)

// Union bar geometry produced by the span passes.
const (
	UnionBarHeight     = 18.0
	UnionMinWidth      = 80.0
	UnionSpanInset     = 20.0
	UnionFriendlyWidth = 90.0
)

type span struct {
	minX, maxX float64
	count      int
}

func spanOf(g family.Graph, idx map[string]int, ids []string) span {
	s := span{}
	for _, id := range ids {
		i, ok := idx[id]
		if !ok {
			continue
		}
		n := g.Nodes[i]
		left, right := n.Position.X, n.Position.X+n.EffectiveSize().Width
		if s.count == 0 || left < s.minX {
			s.minX = left
		}
		if s.count == 0 || right > s.maxX {
			s.maxX = right
		}
		s.count++
	}
	return s
}

// SpanStrict stretches each union over its children, or over its partners
// when it has no children. With two or more entities the union becomes
// max(80, span-20) wide and is centered over the span; with exactly one it
// becomes 80 wide and is centered over that node; with none it is left
// alone. Unions get height 18; their y and every person are unchanged.
func SpanStrict(g family.Graph) family.Graph {
	nodes := slices.Clone(g.Nodes)
	out := family.Graph{Nodes: nodes, Edges: g.Edges}
	idx := out.Index()

	for i, n := range nodes {
		if !n.IsUnion() {
			continue
		}
		ids := g.Children(n.ID)
		s := spanOf(out, idx, ids)
		if s.count == 0 {
			s = spanOf(out, idx, g.Partners(n.ID))
		}
		switch {
		case s.count >= 2:
			w := max(UnionMinWidth, s.maxX-s.minX-UnionSpanInset)
			nodes[i].Size = family.Size{Width: w, Height: UnionBarHeight}
			nodes[i].Position.X = s.minX + (s.maxX-s.minX)/2 - w/2
		case s.count == 1:
			nodes[i].Size = family.Size{Width: UnionMinWidth, Height: UnionBarHeight}
			nodes[i].Position.X = s.minX + (s.maxX-s.minX)/2 - UnionMinWidth/2
		}
	}
	return out
}

// SpanFriendly runs SpanStrict, then recenters every union that has parent
// edges over the midpoint of its partners with a fixed width of 90 and
// height 18. Unions without parent edges keep the strict result.
func SpanFriendly(g family.Graph) family.Graph {
	out := SpanStrict(g)
	idx := out.Index()

	for i, n := range out.Nodes {
		if !n.IsUnion() {
			continue
		}
		s := spanOf(out, idx, g.Partners(n.ID))
		if s.count == 0 {
			continue
		}
		center := (s.minX + s.maxX) / 2
		out.Nodes[i].Size = family.Size{Width: UnionFriendlyWidth, Height: UnionBarHeight}
		out.Nodes[i].Position.X = center - UnionFriendlyWidth/2
	}
	return out
}
