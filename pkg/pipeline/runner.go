package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/familymap/pkg/cache"
	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout"
	"github.com/matzehuels/familymap/pkg/observability"
)

// TracerName is the instrumentation scope of the runner's spans.
const TracerName = "github.com/matzehuels/familymap/pkg/pipeline"

// Runner executes pipeline stages with caching. It holds no per-run state and
// is safe for concurrent use when its Cache and Engine are.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Engine *layout.Engine
	Logger *log.Logger
	Tracer trace.Tracer
	TTL    time.Duration
}

// NewRunner returns a Runner. A nil cache disables caching, a nil keyer uses
// cache.DefaultKeyer and a nil engine uses layout.DefaultEngine.
func NewRunner(c cache.Cache, keyer cache.Keyer, engine *layout.Engine, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if engine == nil {
		engine = layout.DefaultEngine()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Engine: engine,
		Logger: logger,
		Tracer: otel.Tracer(TracerName),
		TTL:    DefaultTTL,
	}
}

func (r *Runner) tracer() trace.Tracer {
	if r.Tracer == nil {
		return otel.Tracer(TracerName)
	}
	return r.Tracer
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.UserMessage(err))
	}
	span.End()
}

// Layout validates doc and lays it out with opts.Policy, reading and writing
// the layout cache.
func (r *Runner) Layout(ctx context.Context, doc document.Document, opts Options) (res *LayoutResult, err error) {
	ctx, span := r.tracer().Start(ctx, "familymap.layout")
	defer func() { endSpan(span, err) }()

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	g, dir, err := doc.ToGraph()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("policy", opts.Policy),
		attribute.String("solver", r.Engine.SolverName()),
		attribute.Int("nodes", len(g.Nodes)),
	)

	raw, err := document.Marshal(doc, document.FormatJSON)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	key := r.Keyer.LayoutKey(cache.Hash(raw), cache.LayoutKeyOpts{
		Policy: opts.Policy,
		Solver: r.Engine.SolverName(),
	})

	start := time.Now()
	if !opts.Refresh {
		if cached, cg, ok := r.cachedLayout(ctx, key); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return &LayoutResult{
				Document: cached,
				Graph:    cg,
				CacheHit: true,
				Applied:  true,
				Duration: time.Since(start),
			}, nil
		}
	}

	out := r.Engine.Compute(ctx, g, opts.policy)
	res = &LayoutResult{
		Document:   document.FromGraph(out.Graph, dir),
		Graph:      out.Graph,
		Applied:    out.Applied,
		Diagnostic: out.Err,
		Duration:   time.Since(start),
	}
	if out.Applied {
		r.store(ctx, "layout", key, res.Document)
	}
	r.Logger.Debug("layout computed",
		"nodes", len(out.Graph.Nodes),
		"policy", opts.Policy,
		"applied", out.Applied,
		"duration", res.Duration)
	return res, nil
}

func (r *Runner) cachedLayout(ctx context.Context, key string) (document.Document, family.Graph, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		r.cacheMiss(ctx, "layout")
		return document.Document{}, family.Graph{}, false
	}
	// a corrupt entry counts as a miss
	doc, err := document.Unmarshal(data, document.FormatJSON)
	if err != nil {
		r.cacheMiss(ctx, "layout")
		return document.Document{}, family.Graph{}, false
	}
	g, _, err := doc.ToGraph()
	if err != nil {
		r.cacheMiss(ctx, "layout")
		return document.Document{}, family.Graph{}, false
	}
	r.cacheHit(ctx, "layout")
	return doc, g, true
}

func (r *Runner) store(ctx context.Context, keyType, key string, doc document.Document) {
	data, err := document.Marshal(doc, document.FormatJSON)
	if err != nil {
		return
	}
	r.set(ctx, keyType, key, data)
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) cacheHit(ctx context.Context, keyType string) {
	observability.Cache().OnCacheHit(ctx, keyType)
}

func (r *Runner) cacheMiss(ctx context.Context, keyType string) {
	observability.Cache().OnCacheMiss(ctx, keyType)
}

func (r *Runner) hooksStart(ctx context.Context, formats []string) {
	observability.Render().OnRenderStart(ctx, formats)
}

func (r *Runner) hooksDone(ctx context.Context, formats []string, d time.Duration, err error) {
	observability.Render().OnRenderComplete(ctx, formats, d, err)
}
