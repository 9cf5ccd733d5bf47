// Package layout turns a family graph into a positioned top-to-bottom
// diagram.
//
// # Pipeline
//
// Layout runs in two stages:
//
//  1. Rank layout ([Engine.Rank]): the graph is translated into a
//     [rank.Graph] by [BuildRankGraph] (sizes, weighted edges, sibling
//     groups) and handed to a [rank.Solver]. Solver centers are converted to
//     top-left positions and connector hints are set.
//  2. Span post-processing ([SpanStrict] or [SpanFriendly]): union nodes are
//     resized and centered over the persons they join.
//
// [Engine.Compute] runs both stages for a [Policy]. [ComputeLayout] and
// [ComputeFriendlyLayout] do the same with the default graphviz engine.
//
// # Degradation
//
// A layout never fails. When the solver is missing or returns an error the
// input graph is returned unchanged, the [Result] is marked not applied, a
// warning is logged and observability hooks are notified.
//
// # Invariants
//
// Edges come back untouched in the same order. Post-processing only moves and
// resizes unions; person positions are exactly what the rank stage produced.
// Rank inputs depend only on person sizes and the union default footprint,
// so laying out an already laid-out graph reproduces the same positions.
package layout
