package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/matzehuels/familymap/pkg/cache"
	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/render"
	"github.com/matzehuels/familymap/pkg/render/svg"
)

// Render draws doc in every requested format. With opts.Relayout the
// document is laid out first; otherwise its positions are used as stored.
// Artifacts are cached per laid-out document and format.
func (r *Runner) Render(ctx context.Context, doc document.Document, opts Options) (res *RenderResult, err error) {
	ctx, span := r.tracer().Start(ctx, "familymap.render")
	defer func() { endSpan(span, err) }()

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.StringSlice("formats", opts.Formats))

	start := time.Now()
	res = &RenderResult{
		Artifacts: make(map[string][]byte, len(opts.formats)),
		CacheHit:  make(map[string]bool, len(opts.formats)),
	}

	g, _, err := doc.ToGraph()
	if err != nil {
		return nil, err
	}
	if opts.Relayout {
		lr, err := r.Layout(ctx, doc, opts)
		if err != nil {
			return nil, err
		}
		res.Layout = lr
		doc, g = lr.Document, lr.Graph
	}

	r.hooksStart(ctx, opts.Formats)
	defer func() { r.hooksDone(ctx, opts.Formats, time.Since(start), err) }()

	raw, err := document.Marshal(doc, document.FormatJSON)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	layoutHash := cache.Hash(append(raw, opts.Title...))

	var drawn []byte
	for _, f := range opts.formats {
		key := r.Keyer.ArtifactKey(layoutHash, cache.ArtifactKeyOpts{Format: string(f)})
		if !opts.Refresh {
			if data, hit, _ := r.Cache.Get(ctx, key); hit {
				r.cacheHit(ctx, "artifact")
				res.Artifacts[string(f)] = data
				res.CacheHit[string(f)] = true
				continue
			}
			r.cacheMiss(ctx, "artifact")
		}

		if drawn == nil {
			drawn = svg.RenderSVG(g, svg.WithTitle(opts.Title))
		}
		data, err := render.Convert(ctx, drawn, f)
		if err != nil {
			return nil, err
		}
		res.Artifacts[string(f)] = data
		r.set(ctx, "artifact", key, data)
	}

	res.Duration = time.Since(start)
	r.Logger.Debug("rendered", "formats", opts.Formats, "duration", res.Duration)
	return res, nil
}
