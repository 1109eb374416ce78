package renderer

import (
	"bytes"
	"fmt"
	"html"

	"github.com/ankek/terraform-provider-archstudio/internal/graph"
	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// SVGRenderer draws a laid out graph as SVG
type SVGRenderer struct {
	buf     *bytes.Buffer
	options Options
}

// NewSVGRenderer creates a new SVG renderer
func NewSVGRenderer(opts Options) *SVGRenderer {
	return &SVGRenderer{
		buf:     &bytes.Buffer{},
		options: opts,
	}
}

// Render generates SVG from the layout
func (r *SVGRenderer) Render(layout *Layout) ([]byte, error) {
	r.buf.Reset()

	padding := 50.0
	width := layout.Width + 2*padding
	height := layout.Height + 2*padding

	r.writeHeader(width, height)

	if r.options.Title != "" {
		r.writeTitle(r.options.Title, width, padding)
	}

	// Edges first so they appear below nodes
	for _, edgeLayout := range layout.Edges {
		r.renderEdge(edgeLayout, padding)
	}

	for _, id := range layout.Order {
		if nl := layout.Nodes[id]; nl != nil && nl.Node != nil {
			r.renderNode(nl, padding)
		}
	}

	r.buf.WriteString("</svg>\n")

	return r.buf.Bytes(), nil
}

// writeHeader writes the SVG header
func (r *SVGRenderer) writeHeader(width, height float64) {
	fmt.Fprintf(r.buf, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<defs>
  <marker id="arrowhead" markerWidth="10" markerHeight="10" refX="9" refY="3" orient="auto">
    <polygon points="0 0, 10 3, 0 6" fill="#555555" />
  </marker>
</defs>
<rect width="100%%" height="100%%" fill="white"/>
`, width, height, width, height)
}

// writeTitle writes the diagram title
func (r *SVGRenderer) writeTitle(title string, width, padding float64) {
	fmt.Fprintf(r.buf, `<text x="%.0f" y="%.0f" font-family="Arial, sans-serif" font-size="20" font-weight="bold" text-anchor="middle">%s</text>
`, width/2, padding/2, html.EscapeString(title))
}

// renderNode renders a node as a tinted box with a colored border
func (r *SVGRenderer) renderNode(node *NodeLayout, padding float64) {
	x := node.Position.X + padding
	y := node.Position.Y + padding
	color := getNodeColor(node.Node.Category)

	fmt.Fprintf(r.buf, `<g id="%s">
<title>%s</title>
<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="2" rx="8"/>
<rect x="%.2f" y="%.2f" width="%.2f" height="6" fill="%s" rx="3"/>
`, html.EscapeString(model.Sanitize(node.Node.ID)), html.EscapeString(node.Node.Title),
		x, y, node.Width, node.Height, lightenColor(color, 85), darkenColor(color, 20),
		x, y, node.Width, color)

	if r.options.IncludeLabels {
		r.renderNodeLabel(node.Node, x+node.Width/2, y+node.Height/2)
	}
	r.buf.WriteString("</g>\n")
}

// renderNodeLabel renders the node label text
func (r *SVGRenderer) renderNodeLabel(node *graph.Node, x, y float64) {
	name := truncate(node.Label, 25)
	fmt.Fprintf(r.buf, `<text x="%.2f" y="%.2f" font-family="Arial, sans-serif" font-size="12" font-weight="bold" fill="#333333" text-anchor="middle">%s</text>
`, x, y, html.EscapeString(name))

	kind := truncate(getKindName(node.Kind, node.Category), 30)
	fmt.Fprintf(r.buf, `<text x="%.2f" y="%.2f" font-family="Arial, sans-serif" font-size="10" fill="#666666" text-anchor="middle">%s</text>
`, x, y+15, html.EscapeString(kind))
}

// renderEdge renders an edge between nodes
func (r *SVGRenderer) renderEdge(edge *EdgeLayout, padding float64) {
	if len(edge.Points) < 2 {
		return
	}

	pathData := fmt.Sprintf("M %.2f,%.2f", edge.Points[0].X+padding, edge.Points[0].Y+padding)
	for i := 1; i < len(edge.Points); i++ {
		pathData += fmt.Sprintf(" L %.2f,%.2f", edge.Points[i].X+padding, edge.Points[i].Y+padding)
	}

	dash := ""
	if edge.Edge.Relationship == model.RelationshipFlow {
		dash = ` stroke-dasharray="6,4"`
	}

	fmt.Fprintf(r.buf, `<path d="%s" stroke="%s" stroke-width="2"%s fill="none" marker-end="url(#arrowhead)"/>
`, pathData, getEdgeColor(edge.Edge.Relationship), dash)

	if r.options.IncludeLabels {
		if label := formatEdgeLabel(edge.Edge); label != "" {
			start, end := edge.Points[0], edge.Points[len(edge.Points)-1]
			midX := (start.X+end.X)/2 + padding
			midY := (start.Y+end.Y)/2 + padding

			fmt.Fprintf(r.buf, `<text x="%.2f" y="%.2f" font-family="Arial, sans-serif" font-size="9" fill="#333333" text-anchor="middle">%s</text>
`, midX, midY-5, html.EscapeString(truncate(label, 40)))
		}
	}
}
