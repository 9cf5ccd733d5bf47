package layout

import (
	"context"

	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout/rank"
)

// ComputeLayout lays g out with the default engine and the strict span pass.
// Only top-to-bottom is supported; other directions are logged and ignored.
// If the solver is unavailable, g is returned unchanged.
func ComputeLayout(ctx context.Context, g family.Graph, dir rank.Direction) family.Graph {
	return withDirection(DefaultEngine(), dir).Compute(ctx, g, PolicyStrict).Graph
}

// ComputeFriendlyLayout is ComputeLayout with the friendly span pass, which
// keeps unions at a fixed width centered over their partners.
func ComputeFriendlyLayout(ctx context.Context, g family.Graph, dir rank.Direction) family.Graph {
	return withDirection(DefaultEngine(), dir).Compute(ctx, g, PolicyFriendly).Graph
}

func withDirection(e *Engine, dir rank.Direction) *Engine {
	if dir == "" || dir == e.Options.Direction {
		return e
	}
	c := *e
	c.Options.Direction = dir
	return &c
}
