package family

import "slices"

// FindOrCreateUnion returns the union for partners a and b, creating it when
// no union with key UnionKey(a, b) exists. A new union gets the default
// union size, the zero position and a parent edge from each partner. An
// existing union is returned with g unchanged.
//
// Callers ensure a != b and that both are persons.
func FindOrCreateUnion(g Graph, a, b string, ids IDGenerator) (Graph, string) {
	if u, ok := g.UnionFor(a, b); ok {
		return g, u.ID
	}

	union := NewUnion(ids.NewID(PrefixUnion), a, b)
	union.Size = DefaultSize(KindUnion)

	nodes := make([]Node, 0, len(g.Nodes)+1)
	nodes = append(append(nodes, g.Nodes...), union)

	edges := make([]Edge, 0, len(g.Edges)+2)
	edges = append(edges, g.Edges...)
	edges = append(edges,
		Edge{ID: ids.NewID(PrefixEdge), Source: a, Target: union.ID, Kind: EdgeParent},
		Edge{ID: ids.NewID(PrefixEdge), Source: b, Target: union.ID, Kind: EdgeParent},
	)
	return Graph{Nodes: nodes, Edges: edges}, union.ID
}

// AddChildToUnion appends a child edge unionID -> childID. The edge is not
// added again if it already exists.
func AddChildToUnion(g Graph, unionID, childID string, ids IDGenerator) Graph {
	return EnsureEdge(g, unionID, childID, EdgeChild, ids)
}

// EnsureEdge appends a source -> target edge of kind unless an edge with the
// same triple is already present.
func EnsureEdge(g Graph, source, target string, kind EdgeKind, ids IDGenerator) Graph {
	if HasEdge(g.Edges, source, target, kind) {
		return g
	}
	edges := make([]Edge, 0, len(g.Edges)+1)
	edges = append(edges, g.Edges...)
	edges = append(edges, Edge{ID: ids.NewID(PrefixEdge), Source: source, Target: target, Kind: kind})
	return Graph{Nodes: g.Nodes, Edges: edges}
}

// AddPartnerEdge links persons a and b directly. It is a no-op when a partner
// edge exists in either direction.
func AddPartnerEdge(g Graph, a, b string, ids IDGenerator) Graph {
	if HasPartnerEdge(g.Edges, a, b) {
		return g
	}
	return EnsureEdge(g, a, b, EdgePartner, ids)
}

// HasEdge reports whether edges contain source -> target with the given kind.
func HasEdge(edges []Edge, source, target string, kind EdgeKind) bool {
	return slices.ContainsFunc(edges, func(e Edge) bool {
		return e.Kind == kind && e.Source == source && e.Target == target
	})
}

// HasPartnerEdge reports whether a partner edge links a and b in either
// direction.
func HasPartnerEdge(edges []Edge, a, b string) bool {
	return slices.ContainsFunc(edges, func(e Edge) bool {
		return e.Kind == EdgePartner &&
			((e.Source == a && e.Target == b) || (e.Source == b && e.Target == a))
	})
}

// DeletePersonCascade removes personID, every union listing it as a partner,
// and every edge whose source or target was removed. Children of a removed
// union stay in the graph without parents. Deleting an unknown ID returns an
// equal graph.
func DeletePersonCascade(g Graph, personID string) Graph {
	removed := map[string]bool{personID: true}
	for _, n := range g.Nodes {
		if n.IsUnion() && n.Union != nil && slices.Contains(n.Union.Partners[:], personID) {
			removed[n.ID] = true
		}
	}

	nodes := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if !removed[n.ID] {
			nodes = append(nodes, n)
		}
	}
	edges := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if !removed[e.Source] && !removed[e.Target] {
			edges = append(edges, e)
		}
	}
	return Graph{Nodes: nodes, Edges: edges}
}
