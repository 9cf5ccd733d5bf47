package family

// ancestry returns the adjacency of the ancestry subgraph: parent and child
// edges only. Partner edges never take part in cycles.
func ancestry(edges []Edge) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		if e.Kind == EdgeParent || e.Kind == EdgeChild {
			adj[e.Source] = append(adj[e.Source], e.Target)
		}
	}
	return adj
}

// WouldCreateCycle reports whether adding an ancestry edge u -> v to g would
// close a directed cycle over parent and child edges. It runs an iterative
// depth-first search from v over the graph with u -> v added and returns
// true iff u is reachable. Adding u -> u is a cycle.
func WouldCreateCycle(g Graph, u, v string) bool {
	adj := ancestry(g.Edges)
	adj[u] = append(adj[u], v)

	seen := make(map[string]bool)
	stack := []string{v}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == u {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		for _, next := range adj[cur] {
			if !seen[next] {
				stack = append(stack, next)
			}
		}
	}
	return false
}

// HasAncestryCycle reports whether the parent/child subgraph of g already
// contains a directed cycle.
func HasAncestryCycle(g Graph) bool {
	const (
		white = iota
		gray
		black
	)

	adj := ancestry(g.Edges)
	color := make(map[string]int, len(adj))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, next := range adj[id] {
			switch color[next] {
			case white:
				dfs(next)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	// Walk sources in edge order so results do not depend on map iteration.
	for _, e := range g.Edges {
		if color[e.Source] == white {
			dfs(e.Source)
			if hasCycle {
				return true
			}
		}
	}
	return false
}
