// Package svg draws a laid-out family graph as a standalone SVG document.
//
// Persons are cards with a gender-tinted avatar showing their initials, the
// name, life dates and a "Child" badge when some union lists them as a child.
// Unions are rounded bars. Every edge is a step connector from the bottom
// center of its source to the top center of its target.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matzehuels/familymap/pkg/family"
)

// Accent colors keyed by gender.
const (
	AccentFemale      = "#d96fd9"
	AccentMale        = "#3b82f6"
	AccentUnspecified = "#94a3b8"
)

const (
	defaultPadding = 24.0
	maxNameRunes   = 18
	placeholder    = "New Person"
)

// Option configures RenderSVG.
type Option func(*renderer)

type renderer struct {
	padding float64
	title   string
	badges  bool
}

// WithPadding sets the margin around the drawing.
func WithPadding(p float64) Option { return func(r *renderer) { r.padding = p } }

// WithTitle adds a <title> element.
func WithTitle(t string) Option { return func(r *renderer) { r.title = t } }

// WithoutChildBadges hides the "Child" badge.
func WithoutChildBadges() Option { return func(r *renderer) { r.badges = false } }

// RenderSVG draws g using each node's position and effective size.
func RenderSVG(g family.Graph, opts ...Option) []byte {
	r := renderer{padding: defaultPadding, badges: true}
	for _, opt := range opts {
		opt(&r)
	}

	minX, minY, maxX, maxY := bounds(g)
	w := maxX - minX + 2*r.padding
	h := maxY - minY + 2*r.padding

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		minX-r.padding, minY-r.padding, w, h, w, h)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escape(r.title))
	}
	buf.WriteString(styleSheet)

	idx := g.Index()
	buf.WriteString(`  <g class="edges">` + "\n")
	for _, e := range g.Edges {
		si, ok1 := idx[e.Source]
		ti, ok2 := idx[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		renderEdge(&buf, e, g.Nodes[si], g.Nodes[ti])
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="nodes">` + "\n")
	for _, n := range g.Nodes {
		if n.IsUnion() {
			renderUnion(&buf, n)
		}
	}
	for _, n := range g.Nodes {
		if n.IsPerson() {
			renderPerson(&buf, n, r.badges && g.IsChild(n.ID))
		}
	}
	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

const styleSheet = `  <style>
    .person { fill: #ffffff; stroke: #cbd5e1; stroke-width: 1.5; }
    .avatar-text { fill: #ffffff; font: 600 12px sans-serif; }
    .name { fill: #0f172a; font: 600 13px sans-serif; }
    .meta { fill: #64748b; font: 11px sans-serif; }
    .badge { fill: #e0f2fe; }
    .badge-text { fill: #0369a1; font: 600 9px sans-serif; }
    .union { fill: #f59e0b; }
    .edge { fill: none; stroke: #94a3b8; stroke-width: 1.5; }
    .edge-partner { stroke-dasharray: 4 3; }
  </style>
`

func bounds(g family.Graph) (minX, minY, maxX, maxY float64) {
	if len(g.Nodes) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, n := range g.Nodes {
		s := n.EffectiveSize()
		minX = math.Min(minX, n.Position.X)
		minY = math.Min(minY, n.Position.Y)
		maxX = math.Max(maxX, n.Position.X+s.Width)
		maxY = math.Max(maxY, n.Position.Y+s.Height)
	}
	return minX, minY, maxX, maxY
}

func renderEdge(buf *bytes.Buffer, e family.Edge, src, dst family.Node) {
	ss, ds := src.EffectiveSize(), dst.EffectiveSize()
	sx, sy := src.Position.X+ss.Width/2, src.Position.Y+ss.Height
	tx, ty := dst.Position.X+ds.Width/2, dst.Position.Y
	mid := (sy + ty) / 2

	class := "edge"
	if e.Kind == family.EdgePartner {
		class += " edge-partner"
	}
	fmt.Fprintf(buf, `    <path id="edge-%s" class="%s" d="M %.1f %.1f V %.1f H %.1f V %.1f"/>`+"\n",
		escape(e.ID), class, sx, sy, mid, tx, ty)
}

func renderUnion(buf *bytes.Buffer, n family.Node) {
	s := n.EffectiveSize()
	fmt.Fprintf(buf, `    <rect id="node-%s" class="union" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f"><title>Union / Marriage</title></rect>`+"\n",
		escape(n.ID), n.Position.X, n.Position.Y, s.Width, s.Height, s.Height/2)
}

func renderPerson(buf *bytes.Buffer, n family.Node, child bool) {
	var p family.Person
	if n.Person != nil {
		p = *n.Person
	}
	s := n.EffectiveSize()
	x, y := n.Position.X, n.Position.Y
	cy := y + s.Height/2

	fmt.Fprintf(buf, `    <g id="node-%s">`+"\n", escape(n.ID))
	fmt.Fprintf(buf, `      <rect class="person" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="10"/>`+"\n",
		x, y, s.Width, s.Height)
	fmt.Fprintf(buf, `      <circle cx="%.1f" cy="%.1f" r="16" fill="%s"/>`+"\n", x+28, cy, Accent(p.Gender))
	fmt.Fprintf(buf, `      <text class="avatar-text" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
		x+28, cy, escape(Initials(p.Name)))

	name := p.Name
	if name == "" {
		name = placeholder
	}
	fmt.Fprintf(buf, `      <text class="name" x="%.1f" y="%.1f">%s</text>`+"\n", x+52, cy-4, escape(truncate(name, maxNameRunes)))
	if meta := Lifespan(p); meta != "" {
		fmt.Fprintf(buf, `      <text class="meta" x="%.1f" y="%.1f">%s</text>`+"\n", x+52, cy+12, escape(meta))
	}
	if child {
		bx := x + s.Width - 42
		fmt.Fprintf(buf, `      <rect class="badge" x="%.1f" y="%.1f" width="34" height="14" rx="7"/>`+"\n", bx, y+6)
		fmt.Fprintf(buf, `      <text class="badge-text" x="%.1f" y="%.1f" text-anchor="middle">Child</text>`+"\n", bx+17, y+16)
	}
	buf.WriteString("    </g>\n")
}

// Accent returns the avatar color for g.
func Accent(g family.Gender) string {
	switch g {
	case family.GenderFemale:
		return AccentFemale
	case family.GenderMale:
		return AccentMale
	}
	return AccentUnspecified
}

// Initials returns the upper-cased first characters of the first two words of
// name. A blank name is treated as "New Person".
func Initials(name string) string {
	if strings.TrimSpace(name) == "" {
		name = placeholder
	}
	var b strings.Builder
	words := strings.Fields(name)
	for i := 0; i < len(words) && i < 2; i++ {
		r, _ := utf8.DecodeRuneInString(words[i])
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Lifespan formats "b. X · d. Y", omitting the missing parts.
func Lifespan(p family.Person) string {
	var parts []string
	if p.Birth != "" {
		parts = append(parts, "b. "+p.Birth)
	}
	if p.Death != "" {
		parts = append(parts, "d. "+p.Death)
	}
	return strings.Join(parts, " · ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
