// Package layered is a pure-Go [rank.Solver] for small and medium family
// graphs. It needs no external engine and produces deterministic output.
//
// # Algorithm
//
// Solve runs the classic layered-drawing phases:
//  1. Nodes in each SameRank group are merged into one component.
//  2. Back edges found by a depth-first search over the components are
//     ignored, so the remaining constraint graph is acyclic.
//  3. Components get ranks by longest path (Kahn's algorithm): sources at
//     rank 0, every other component one below its deepest predecessor.
//  4. Nodes within each rank are reordered by weighted barycenter sweeps. An
//     ordering is kept only if it lowers the crossing count.
//  5. Ranks are stacked with the rank separation, nodes are pulled toward
//     the weighted mean of their neighbors, and overlaps are resolved left to
//     right with the node separation.
//
// Edge separation is not used.
package layered

import (
	"context"

	"github.com/matzehuels/familymap/pkg/layout/rank"
)

// Name is the solver identifier used in logs and cache keys.
const Name = "layered"

// DefaultSweeps is the number of down/up barycenter passes.
const DefaultSweeps = 8

// Solver is a pure-Go layered layout. The zero value uses DefaultSweeps.
type Solver struct {
	Sweeps int
}

// New returns a Solver with default settings.
func New() *Solver { return &Solver{Sweeps: DefaultSweeps} }

// Name implements rank.Solver.
func (s *Solver) Name() string { return Name }

// Solve implements rank.Solver.
func (s *Solver) Solve(ctx context.Context, g rank.Graph) (map[string]rank.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(g.Nodes) == 0 {
		return map[string]rank.Point{}, nil
	}
	sweeps := s.Sweeps
	if sweeps <= 0 {
		sweeps = DefaultSweeps
	}

	l := newLayout(g)
	l.assignRanks()
	l.order(sweeps)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.coordinates(g.Options.WithDefaults()), nil
}

var _ rank.Solver = (*Solver)(nil)

type link struct {
	to     int
	weight float64
}

// layout holds the index-based working state of one solve.
type layout struct {
	nodes []rank.Node
	edges [][2]int
	wts   []float64

	comp  []int // node -> component
	ncomp int
	rank  []int // node -> rank

	layers [][]int // rank -> node indices, left to right
}

func newLayout(g rank.Graph) *layout {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}

	l := &layout{nodes: g.Nodes}
	for _, e := range g.Edges {
		from, okF := idx[e.From]
		to, okT := idx[e.To]
		if !okF || !okT || e.Aux || from == to {
			continue
		}
		l.edges = append(l.edges, [2]int{from, to})
		l.wts = append(l.wts, e.Weight)
	}

	parent := make([]int, len(g.Nodes))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, group := range g.SameRank {
		first := -1
		for _, id := range group {
			i, ok := idx[id]
			if !ok {
				continue
			}
			if first < 0 {
				first = i
				continue
			}
			a, b := find(first), find(i)
			if a != b {
				// Keep the lowest index as root so component numbering
				// follows node order.
				if a < b {
					parent[b] = a
				} else {
					parent[a] = b
				}
			}
		}
	}

	l.comp = make([]int, len(g.Nodes))
	number := make(map[int]int)
	for i := range g.Nodes {
		root := find(i)
		c, ok := number[root]
		if !ok {
			c = len(number)
			number[root] = c
		}
		l.comp[i] = c
	}
	l.ncomp = len(number)
	return l
}

// assignRanks breaks cycles among components and ranks them by longest path.
func (l *layout) assignRanks() {
	const (
		white = iota
		gray
		black
	)

	adj := make([][]int, l.ncomp)
	seen := make(map[[2]int]bool)
	for _, e := range l.edges {
		a, b := l.comp[e[0]], l.comp[e[1]]
		if a == b || seen[[2]int{a, b}] {
			continue
		}
		seen[[2]int{a, b}] = true
		adj[a] = append(adj[a], b)
	}

	color := make([]int, l.ncomp)
	back := make(map[[2]int]bool)
	var dfs func(c int)
	dfs = func(c int) {
		color[c] = gray
		for _, next := range adj[c] {
			switch color[next] {
			case white:
				dfs(next)
			case gray:
				back[[2]int{c, next}] = true
			}
		}
		color[c] = black
	}
	for c := range l.ncomp {
		if color[c] == white {
			dfs(c)
		}
	}

	inDegree := make([]int, l.ncomp)
	for c, nexts := range adj {
		for _, next := range nexts {
			if !back[[2]int{c, next}] {
				inDegree[next]++
			}
		}
	}
	queue := make([]int, 0, l.ncomp)
	for c := range l.ncomp {
		if inDegree[c] == 0 {
			queue = append(queue, c)
		}
	}
	compRank := make([]int, l.ncomp)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if back[[2]int{cur, next}] {
				continue
			}
			if r := compRank[cur] + 1; r > compRank[next] {
				compRank[next] = r
			}
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	l.rank = make([]int, len(l.nodes))
	maxRank := 0
	for i := range l.nodes {
		l.rank[i] = compRank[l.comp[i]]
		maxRank = max(maxRank, l.rank[i])
	}
	l.layers = make([][]int, maxRank+1)
	for i := range l.nodes {
		r := l.rank[i]
		l.layers[r] = append(l.layers[r], i)
	}
}

// neighbors returns, for every node, its weighted links to nodes one rank
// above (up) and one rank below (down).
func (l *layout) neighbors() (up, down [][]link) {
	up = make([][]link, len(l.nodes))
	down = make([][]link, len(l.nodes))
	for k, e := range l.edges {
		a, b := e[0], e[1]
		switch l.rank[b] - l.rank[a] {
		case 1:
		case -1:
			a, b = b, a
		default:
			continue
		}
		w := l.wts[k]
		if w <= 0 {
			w = 1
		}
		down[a] = append(down[a], link{b, w})
		up[b] = append(up[b], link{a, w})
	}
	return up, down
}
