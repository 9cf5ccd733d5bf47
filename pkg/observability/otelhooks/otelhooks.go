// Package otelhooks implements the observability hooks with OpenTelemetry.
//
// Counters and duration histograms go to the configured meter. Notable
// events are also added to the span found in the context, so they show up
// on whatever trace the caller started:
//
//	h, err := otelhooks.New(otel.GetMeterProvider().Meter("familymap"))
//	if err != nil { ... }
//	h.Install()
package otelhooks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/familymap/pkg/observability"
)

// Hooks records familymap events as OpenTelemetry metrics and span events.
type Hooks struct {
	layouts   metric.Int64Counter
	degraded  metric.Int64Counter
	commands  metric.Int64Counter
	renders   metric.Int64Counter
	cacheOps  metric.Int64Counter
	requests  metric.Int64Counter
	durations metric.Float64Histogram
}

// New creates the metric instruments on meter.
func New(meter metric.Meter) (*Hooks, error) {
	h := &Hooks{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&h.layouts, "familymap.layout.count", "Layouts computed"},
		{&h.degraded, "familymap.layout.degraded", "Layouts that fell back to the input graph"},
		{&h.commands, "familymap.editor.commands", "Editor commands executed"},
		{&h.renders, "familymap.render.count", "Render runs"},
		{&h.cacheOps, "familymap.cache.ops", "Cache lookups and writes"},
		{&h.requests, "familymap.http.requests", "HTTP requests served"},
	}
	for _, c := range counters {
		ctr, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
		*c.dst = ctr
	}

	var err error
	h.durations, err = meter.Float64Histogram("familymap.duration",
		metric.WithDescription("Operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	return h, nil
}

// Install registers h for every hook type.
func (h *Hooks) Install() {
	observability.SetLayoutHooks(h)
	observability.SetEditorHooks(h)
	observability.SetRenderHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *Hooks) observe(ctx context.Context, op string, d time.Duration, attrs ...attribute.KeyValue) {
	attrs = append(attrs, attribute.String("op", op))
	h.durations.Record(ctx, float64(d.Microseconds())/1000, metric.WithAttributes(attrs...))
}

func event(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func status(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "error")
	}
	return attribute.String("status", "ok")
}

// =============================================================================
// Layout
// =============================================================================

func (h *Hooks) OnLayoutStart(ctx context.Context, policy string, nodeCount int) {
	event(ctx, "layout.start", attribute.String("policy", policy), attribute.Int("nodes", nodeCount))
}

func (h *Hooks) OnLayoutComplete(ctx context.Context, policy string, d time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.String("policy", policy), status(err)}
	h.layouts.Add(ctx, 1, metric.WithAttributes(attrs...))
	h.observe(ctx, "layout", d, attrs...)
}

func (h *Hooks) OnLayoutDegraded(ctx context.Context, solver string, err error) {
	h.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("solver", solver)))
	attrs := []attribute.KeyValue{attribute.String("solver", solver)}
	if err != nil {
		attrs = append(attrs, attribute.String("error", err.Error()))
	}
	event(ctx, "layout.degraded", attrs...)
}

// =============================================================================
// Editor
// =============================================================================

func (h *Hooks) OnCommand(ctx context.Context, command string, d time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.String("command", command), status(err)}
	h.commands.Add(ctx, 1, metric.WithAttributes(attrs...))
	h.observe(ctx, "command", d, attrs...)
	if err != nil {
		event(ctx, "editor.rejected", attribute.String("command", command), attribute.String("error", err.Error()))
	}
}

// =============================================================================
// Render
// =============================================================================

func (h *Hooks) OnRenderStart(ctx context.Context, formats []string) {
	event(ctx, "render.start", attribute.String("formats", strings.Join(formats, ",")))
}

func (h *Hooks) OnRenderComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.String("formats", strings.Join(formats, ",")), status(err)}
	h.renders.Add(ctx, 1, metric.WithAttributes(attrs...))
	h.observe(ctx, "render", d, attrs...)
}

// =============================================================================
// Cache
// =============================================================================

func (h *Hooks) cache(ctx context.Context, keyType, result string) {
	h.cacheOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key_type", keyType),
		attribute.String("result", result),
	))
}

func (h *Hooks) OnCacheHit(ctx context.Context, keyType string) {
	h.cache(ctx, keyType, "hit")
	event(ctx, "cache.hit", attribute.String("key_type", keyType))
}

func (h *Hooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.cache(ctx, keyType, "miss")
}

func (h *Hooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.cache(ctx, keyType, "set")
	event(ctx, "cache.set", attribute.String("key_type", keyType), attribute.Int("bytes", size))
}

// =============================================================================
// HTTP
// =============================================================================

func (h *Hooks) OnRequest(ctx context.Context, method, route string) {
	event(ctx, "http.request", attribute.String("method", method), attribute.String("route", route))
}

func (h *Hooks) OnResponse(ctx context.Context, method, route string, code int, d time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", code),
	}
	h.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	h.observe(ctx, "http", d, attrs...)
}

var (
	_ observability.LayoutHooks = (*Hooks)(nil)
	_ observability.EditorHooks = (*Hooks)(nil)
	_ observability.RenderHooks = (*Hooks)(nil)
	_ observability.CacheHooks  = (*Hooks)(nil)
	_ observability.HTTPHooks   = (*Hooks)(nil)
)
