// Package pkg provides the libraries behind familymap, a genealogy diagram
// editor and layout engine.
//
// # Overview
//
// A family diagram is a graph of persons and unions. Partners point at their
// union with parent edges and the union points at each child with a child
// edge, so every generation sits between two layers of unions. The pkg
// directory is organized around that model:
//
//  1. [family] - Graph model, identifiers, union and cascade mutations, cycle checks
//  2. [layout] - Rank layout with pluggable solvers and span post-processing
//  3. [document] - JSON, YAML and TOML exchange format
//  4. [editor] - Editing commands with bounded undo/redo history
//  5. [render] - SVG drawing and PNG/PDF conversion
//  6. [pipeline] - Cached document → layout → render orchestration
//
// Supporting packages: [cache] (none, file and redis backends), [config]
// (TOML settings), [errors] (coded errors), [observability] (hooks, with an
// OpenTelemetry adapter), [httputil] (JSON API helpers) and [buildinfo].
//
// # Architecture
//
//	document (JSON/YAML/TOML)
//	         ↓
//	    [document] package (validate, convert to family.Graph)
//	         ↓
//	    [layout] package (rank solve on graphviz or layered, then span policy)
//	         ↓
//	    [render] package (SVG, then PNG/PDF via rsvg-convert)
//
// [editor] sits beside this flow: each command validates, records a snapshot
// and re-runs the layout when the structure changed.
//
// # Quick Start
//
//	g, dir, err := document.Load("tree.json")
//	if err != nil {
//	    return err
//	}
//	res := layout.DefaultEngine().Compute(ctx, g, layout.PolicyFriendly)
//	if !res.Applied {
//	    log.Warn("layout unavailable", "err", res.Err)
//	}
//	svg := svg.RenderSVG(res.Graph, svg.WithTitle("Family"))
//	_ = document.Save("tree.json", res.Graph, dir)
//
// [family]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/family
// [layout]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/layout
// [document]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/document
// [editor]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/editor
// [render]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/httputil
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/familymap/pkg/buildinfo
package pkg
