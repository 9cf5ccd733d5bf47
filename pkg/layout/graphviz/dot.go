package graphviz

import (
	"bytes"
	"fmt"
	"math"

	"github.com/matzehuels/familymap/pkg/layout/rank"
)

// pointsPerInch converts between pixels and graphviz inches.
const pointsPerInch = 72.0

// ToDOT renders g as a DOT digraph for the dot engine. Nodes are emitted
// under synthetic names n0, n1, ... in g.Nodes order so that arbitrary IDs
// never need escaping; names maps each synthetic name back to its node ID.
//
// dot only accepts integer edge weights, so every weight is doubled and
// rounded. Aux edges become invisible, non-constraining edges, and each
// SameRank group becomes a rank=same subgraph.
func ToDOT(g rank.Graph) (dot string, names map[string]string) {
	opts := g.Options.WithDefaults()
	byID := make(map[string]string, len(g.Nodes))
	names = make(map[string]string, len(g.Nodes))

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(opts.Direction))
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(opts.NodeSep))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(opts.RankSep))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\", margin=0];\n")
	buf.WriteString("\n")

	for i, n := range g.Nodes {
		name := fmt.Sprintf("n%d", i)
		byID[n.ID] = name
		names[name] = n.ID
		fmt.Fprintf(&buf, "  %s [width=%s, height=%s];\n", name, inches(n.Width), inches(n.Height))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		from, okF := byID[e.From]
		to, okT := byID[e.To]
		if !okF || !okT {
			continue
		}
		w := weight(e.Weight)
		if e.Aux {
			fmt.Fprintf(&buf, "  %s -> %s [weight=%d, constraint=false, style=invis];\n", from, to, w)
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s [weight=%d];\n", from, to, w)
	}

	for _, group := range g.SameRank {
		if len(group) < 2 {
			continue
		}
		buf.WriteString("  { rank=same;")
		for _, id := range group {
			if name, ok := byID[id]; ok {
				fmt.Fprintf(&buf, " %s;", name)
			}
		}
		buf.WriteString(" }\n")
	}

	buf.WriteString("}\n")
	return buf.String(), names
}

func rankdir(d rank.Direction) string {
	if d == rank.LeftToRight {
		return "LR"
	}
	return "TB"
}

func inches(px float64) string {
	return fmt.Sprintf("%.4f", px/pointsPerInch)
}

func weight(w float64) int {
	if w <= 0 {
		return 0
	}
	return max(1, int(math.Round(w*2)))
}
