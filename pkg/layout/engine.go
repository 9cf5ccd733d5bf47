package layout

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout/graphviz"
	"github.com/matzehuels/familymap/pkg/layout/rank"
	"github.com/matzehuels/familymap/pkg/observability"
)

// Policy selects the span post-processing pass.
type Policy string

const (
	PolicyStrict   Policy = "strict"
	PolicyFriendly Policy = "friendly"
)

// DefaultPolicy is used when none is given.
const DefaultPolicy = PolicyStrict

// ParsePolicy parses a policy name. The empty string yields DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultPolicy, nil
	case PolicyStrict, PolicyFriendly:
		return p, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidPolicy, "unknown layout policy %q (want strict or friendly)", s)
	}
}

// Result is the outcome of a layout. When Applied is false, Graph is the
// input unchanged and Err says why.
type Result struct {
	Graph   family.Graph
	Applied bool
	Err     error
}

// Engine runs rank layout with a pluggable solver.
type Engine struct {
	Solver  rank.Solver
	Options rank.Options
	Logger  *log.Logger
}

// NewEngine returns an Engine using solver with default options. A nil
// logger falls back to log.Default().
func NewEngine(solver rank.Solver, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{Solver: solver, Options: rank.DefaultOptions(), Logger: logger}
}

var defaultEngine = NewEngine(graphviz.New(), nil)

// DefaultEngine returns the shared graphviz-backed engine.
func DefaultEngine() *Engine { return defaultEngine }

// SolverName returns the configured solver's name, or "none".
func (e *Engine) SolverName() string {
	if e.Solver == nil {
		return "none"
	}
	return e.Solver.Name()
}

func (e *Engine) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}

// Rank positions every node with the solver. Positions are top-left corners
// computed from the solver's centers and each node's footprint; target and
// source handles are set to top and bottom. Edges are returned as they came.
func (e *Engine) Rank(ctx context.Context, g family.Graph) Result {
	if len(g.Nodes) == 0 {
		return Result{Graph: g, Applied: true}
	}

	opts := e.Options.WithDefaults()
	if opts.Direction != rank.TopToBottom {
		e.logger().Warn("only top-to-bottom layout is supported; using TB", "direction", opts.Direction)
		opts.Direction = rank.TopToBottom
	}

	if e.Solver == nil {
		return e.degrade(ctx, g, rank.ErrUnavailable)
	}
	centers, err := e.Solver.Solve(ctx, BuildRankGraph(g, opts))
	if err != nil {
		return e.degrade(ctx, g, err)
	}

	nodes := slices.Clone(g.Nodes)
	for i, n := range nodes {
		c, ok := centers[n.ID]
		if !ok || math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) {
			return e.degrade(ctx, g, fmt.Errorf("solver %s returned no position for %q", e.SolverName(), n.ID))
		}
		size := Footprint(n)
		nodes[i].Position = family.Point{X: c.X - size.Width/2, Y: c.Y - size.Height/2}
		nodes[i].TargetHandle = family.HandleTop
		nodes[i].SourceHandle = family.HandleBottom
	}
	return Result{Graph: family.Graph{Nodes: nodes, Edges: g.Edges}, Applied: true}
}

func (e *Engine) degrade(ctx context.Context, g family.Graph, err error) Result {
	code := errors.ErrCodeInternal
	if stderrors.Is(err, rank.ErrUnavailable) {
		code = errors.ErrCodeSolverUnavailable
	}
	wrapped := errors.Wrap(code, err, "layout with %s", e.SolverName())
	e.logger().Warn("layout unavailable; returning input unchanged", "solver", e.SolverName(), "err", err)
	observability.Layout().OnLayoutDegraded(ctx, e.SolverName(), err)
	return Result{Graph: g, Applied: false, Err: wrapped}
}

// Compute runs rank layout followed by the span pass for policy. Unknown
// policies are treated as strict. A degraded rank layout is returned without
// post-processing.
func (e *Engine) Compute(ctx context.Context, g family.Graph, policy Policy) Result {
	if policy != PolicyFriendly {
		policy = PolicyStrict
	}
	start := time.Now()
	observability.Layout().OnLayoutStart(ctx, string(policy), len(g.Nodes))

	res := e.Rank(ctx, g)
	if res.Applied {
		if policy == PolicyFriendly {
			res.Graph = SpanFriendly(res.Graph)
		} else {
			res.Graph = SpanStrict(res.Graph)
		}
	}

	elapsed := time.Since(start)
	observability.Layout().OnLayoutComplete(ctx, string(policy), elapsed, res.Err)
	e.logger().Debug("layout complete",
		"policy", policy, "solver", e.SolverName(), "nodes", len(g.Nodes), "applied", res.Applied, "duration", elapsed)
	return res
}
