// Package pipeline runs the document -> layout -> render sequence shared by
// the CLI and the HTTP API.
//
// A [Runner] caches both stages. Layouts are keyed by the document content,
// policy and solver; artifacts by the laid-out document and format:
//
//	runner := pipeline.NewRunner(c, nil, layout.DefaultEngine(), logger)
//	res, err := runner.Layout(ctx, doc, pipeline.Options{Policy: "friendly"})
//	if err != nil { ... }
//	out, err := runner.Render(ctx, res.Document, pipeline.Options{Formats: []string{"svg", "png"}})
//	svg := out.Artifacts["svg"]
//
// A layout the solver could not compute is returned unchanged with
// Applied=false and is never cached.
package pipeline

import (
	"strings"
	"time"

	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout"
	"github.com/matzehuels/familymap/pkg/render"
)

// DefaultTTL is how long cached layouts and artifacts live.
const DefaultTTL = 24 * time.Hour

// =============================================================================
// Options
// =============================================================================

// Options configure a pipeline run. The zero value lays out with the default
// policy and renders SVG.
type Options struct {
	Policy  string   `json:"policy,omitempty"`
	Formats []string `json:"formats,omitempty"`
	// Relayout makes Render compute a fresh layout first.
	Relayout bool `json:"relayout,omitempty"`
	// Refresh skips cache reads; results are still written.
	Refresh bool   `json:"refresh,omitempty"`
	Title   string `json:"title,omitempty"`

	policy  layout.Policy
	formats []render.Format
}

// ValidateAndSetDefaults parses Policy and Formats, normalizing both.
func (o *Options) ValidateAndSetDefaults() error {
	p, err := layout.ParsePolicy(o.Policy)
	if err != nil {
		return err
	}
	o.policy, o.Policy = p, string(p)

	formats, err := render.ParseFormats(strings.Join(o.Formats, ","))
	if err != nil {
		return err
	}
	o.formats = formats
	o.Formats = make([]string, len(formats))
	for i, f := range formats {
		o.Formats[i] = string(f)
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// LayoutResult is the outcome of Runner.Layout.
type LayoutResult struct {
	Document document.Document
	Graph    family.Graph
	CacheHit bool
	// Applied is false when the solver failed and the input came back
	// unchanged; Diagnostic then holds the reason.
	Applied    bool
	Diagnostic error
	Duration   time.Duration
}

// RenderResult is the outcome of Runner.Render.
type RenderResult struct {
	// Artifacts maps a format name to its bytes.
	Artifacts map[string][]byte
	// Layout is set when Options.Relayout was requested.
	Layout   *LayoutResult
	CacheHit map[string]bool
	Duration time.Duration
}
