// Package render turns laid-out family graphs into artifacts.
//
// The [svg] subpackage draws a graph as SVG. This package converts that SVG
// to PNG or PDF with the external rsvg-convert tool (librsvg):
//
//	doc := svg.RenderSVG(g)
//	png, err := render.ToPNG(ctx, doc, 2)
//	pdf, err := render.ToPDF(ctx, doc)
//
// When rsvg-convert is not installed the converters return an error wrapping
// [ErrConverterMissing].
package render
