package layered

import (
	"slices"
	"sort"

	"github.com/matzehuels/familymap/pkg/layout/rank"
)

// order runs barycenter sweeps and keeps the ordering with fewest crossings.
func (l *layout) order(sweeps int) {
	up, down := l.neighbors()
	pos := make([]int, len(l.nodes))
	l.indexPositions(pos)

	best := cloneLayers(l.layers)
	bestCross := l.crossings(down, pos)
	for s := 0; s < sweeps && bestCross > 0; s++ {
		for r := 1; r < len(l.layers); r++ {
			l.sortByBarycenter(r, up, pos)
		}
		for r := len(l.layers) - 2; r >= 0; r-- {
			l.sortByBarycenter(r, down, pos)
		}
		if c := l.crossings(down, pos); c < bestCross {
			best, bestCross = cloneLayers(l.layers), c
		}
	}
	l.layers = best
}

func cloneLayers(layers [][]int) [][]int {
	out := make([][]int, len(layers))
	for i, layer := range layers {
		out[i] = slices.Clone(layer)
	}
	return out
}

func (l *layout) indexPositions(pos []int) {
	for _, layer := range l.layers {
		for p, i := range layer {
			pos[i] = p
		}
	}
}

// sortByBarycenter reorders rank r by the weighted mean position of each
// node's links. Nodes without links keep their current position as key, and
// ties keep their current relative order.
func (l *layout) sortByBarycenter(r int, links [][]link, pos []int) {
	layer := l.layers[r]
	key := make(map[int]float64, len(layer))
	for _, i := range layer {
		var sum, wsum float64
		for _, lk := range links[i] {
			sum += lk.weight * float64(pos[lk.to])
			wsum += lk.weight
		}
		if wsum == 0 {
			key[i] = float64(pos[i])
			continue
		}
		key[i] = sum / wsum
	}
	sort.SliceStable(layer, func(a, b int) bool { return key[layer[a]] < key[layer[b]] })
	for p, i := range layer {
		pos[i] = p
	}
}

// crossings returns the number of edge crossings between consecutive ranks.
func (l *layout) crossings(down [][]link, pos []int) int {
	total := 0
	for r := 0; r+1 < len(l.layers); r++ {
		total += layerCrossings(l.layers[r], len(l.layers[r+1]), down, pos)
	}
	return total
}

// layerCrossings counts inversions of lower-rank positions when edges are
// sorted by upper-rank position, using a Fenwick tree.
func layerCrossings(upper []int, lowerLen int, down [][]link, pos []int) int {
	type edge struct{ upper, lower int }
	var edges []edge
	for _, i := range upper {
		for _, lk := range down[i] {
			edges = append(edges, edge{pos[i], pos[lk.to]})
		}
	}
	if len(edges) < 2 {
		return 0
	}
	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, lowerLen+1)
	crossings, seen := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += seen - lessOrEqual
		seen++
		for q := e.lower + 1; q < len(fenwick); q += q & (-q) {
			fenwick[q]++
		}
	}
	return crossings
}

// refinePasses is the number of down/up coordinate refinement passes.
const refinePasses = 4

// coordinates stacks ranks and places nodes within them, returning centers
// with the top-left of the drawing at the origin.
func (l *layout) coordinates(opts rank.Options) map[string]rank.Point {
	lr := opts.Direction == rank.LeftToRight
	across := func(n rank.Node) float64 {
		if lr {
			return n.Height
		}
		return n.Width
	}
	along := func(n rank.Node) float64 {
		if lr {
			return n.Width
		}
		return n.Height
	}

	center := make([]float64, len(l.layers))
	top := 0.0
	for r, layer := range l.layers {
		thick := 0.0
		for _, i := range layer {
			thick = max(thick, along(l.nodes[i]))
		}
		center[r] = top + thick/2
		top += thick + opts.RankSep
	}

	x := make([]float64, len(l.nodes))
	for _, layer := range l.layers {
		cursor := 0.0
		for _, i := range layer {
			w := across(l.nodes[i])
			x[i] = cursor + w/2
			cursor += w + opts.NodeSep
		}
		shift := (cursor - opts.NodeSep) / 2
		for _, i := range layer {
			x[i] -= shift
		}
	}

	up, down := l.neighbors()
	for range refinePasses {
		for r := 1; r < len(l.layers); r++ {
			l.pull(r, up, x, across, opts.NodeSep)
		}
		for r := len(l.layers) - 2; r >= 0; r-- {
			l.pull(r, down, x, across, opts.NodeSep)
		}
	}

	minX := 0.0
	for i, n := range l.nodes {
		if left := x[i] - across(n)/2; i == 0 || left < minX {
			minX = left
		}
	}

	out := make(map[string]rank.Point, len(l.nodes))
	for i, n := range l.nodes {
		a, b := x[i]-minX, center[l.rank[i]]
		if lr {
			out[n.ID] = rank.Point{X: b, Y: a}
			continue
		}
		out[n.ID] = rank.Point{X: a, Y: b}
	}
	return out
}

// pull moves each node of rank r toward the weighted mean of its links, then
// resolves overlaps by averaging a left-to-right and a right-to-left packing.
// Both packings respect the separation, so their mean does too.
func (l *layout) pull(r int, links [][]link, x []float64, across func(rank.Node) float64, sep float64) {
	layer := l.layers[r]
	if len(layer) == 0 {
		return
	}
	want := make([]float64, len(layer))
	for p, i := range layer {
		var sum, wsum float64
		for _, lk := range links[i] {
			sum += lk.weight * x[lk.to]
			wsum += lk.weight
		}
		if wsum == 0 {
			want[p] = x[i]
			continue
		}
		want[p] = sum / wsum
	}

	gap := func(p int) float64 {
		return (across(l.nodes[layer[p-1]])+across(l.nodes[layer[p]]))/2 + sep
	}
	left := slices.Clone(want)
	for p := 1; p < len(layer); p++ {
		left[p] = max(left[p], left[p-1]+gap(p))
	}
	right := slices.Clone(want)
	for p := len(layer) - 2; p >= 0; p-- {
		right[p] = min(right[p], right[p+1]-gap(p+1))
	}
	for p, i := range layer {
		x[i] = (left[p] + right[p]) / 2
	}
}
