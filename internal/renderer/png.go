package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ankek/terraform-provider-archstudio/internal/graph"
	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

const (
	pngPadding    = 50.0
	pngCorner     = 8.0
	pngStroke     = 2.0
	pngArrowSize  = 10.0
	pngDashOn     = 6.0
	pngDashPeriod = 10.0
)

// PNGRenderer rasterizes a laid out graph with anti-aliased vector shapes.
type PNGRenderer struct {
	img     *image.RGBA
	options Options
}

func NewPNGRenderer(opts Options) *PNGRenderer {
	return &PNGRenderer{options: opts}
}

// Render draws edges, then nodes on top, and encodes the result as PNG.
func (r *PNGRenderer) Render(layout *Layout) ([]byte, error) {
	width := int(layout.Width + 2*pngPadding)
	height := int(layout.Height + 2*pngPadding)

	r.img = image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(r.img, r.img.Bounds(), image.White, image.Point{}, draw.Src)

	if r.options.Title != "" {
		// Two passes one pixel apart stand in for a bold face
		r.drawText(r.options.Title, float64(width)/2, pngPadding/2, color.Black)
		r.drawText(r.options.Title, float64(width)/2+1, pngPadding/2, color.Black)
	}

	for _, el := range layout.Edges {
		r.renderEdge(el)
	}
	for _, id := range layout.Order {
		if nl := layout.Nodes[id]; nl != nil && nl.Node != nil {
			r.renderNode(nl)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, r.img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PNGRenderer) renderNode(nl *NodeLayout) {
	x := nl.Position.X + pngPadding
	y := nl.Position.Y + pngPadding
	base := getNodeColor(nl.Node.Category)

	r.fill(parseColor(darkenColor(base, 20)), roundedRect(x, y, nl.Width, nl.Height, pngCorner))
	r.fill(parseColor(lightenColor(base, 85)), roundedRect(x+pngStroke, y+pngStroke, nl.Width-2*pngStroke, nl.Height-2*pngStroke, pngCorner-pngStroke))
	r.fill(parseColor(base), rect(x+pngCorner, y+pngStroke, nl.Width-2*pngCorner, 6))

	if r.options.IncludeLabels {
		r.drawNodeLabel(nl.Node, x+nl.Width/2, y+nl.Height/2)
	}
}

func (r *PNGRenderer) renderEdge(el *EdgeLayout) {
	if len(el.Points) < 2 {
		return
	}
	pts := make([]Point, len(el.Points))
	for i, p := range el.Points {
		pts[i] = Point{X: p.X + pngPadding, Y: p.Y + pngPadding}
	}

	col := parseColor(getEdgeColor(el.Edge.Relationship))
	dashed := el.Edge.Relationship == model.RelationshipFlow

	var polys [][]Point
	for i := 0; i < len(pts)-1; i++ {
		if dashed {
			polys = append(polys, dashes(pts[i], pts[i+1], pngStroke)...)
		} else {
			polys = append(polys, segment(pts[i], pts[i+1], pngStroke))
		}
	}
	last := len(pts) - 1
	polys = append(polys, arrowhead(pts[last-1], pts[last], pngArrowSize))
	r.fill(col, polys...)

	if r.options.IncludeLabels {
		if label := formatEdgeLabel(el.Edge); label != "" {
			mid := Point{X: (pts[0].X + pts[last].X) / 2, Y: (pts[0].Y + pts[last].Y) / 2}
			r.drawText(truncate(label, 30), mid.X, mid.Y-5, color.RGBA{51, 51, 51, 255})
		}
	}
}

func (r *PNGRenderer) drawNodeLabel(node *graph.Node, cx, cy float64) {
	r.drawText(truncate(node.Label, 20), cx, cy-4, color.RGBA{33, 33, 33, 255})
	r.drawText(truncate(getKindName(node.Kind, node.Category), 25), cx, cy+12, color.RGBA{97, 97, 97, 255})
}

// drawText draws text horizontally centered on x with its baseline at y.
func (r *PNGRenderer) drawText(text string, x, y float64, col color.Color) {
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
	}
	d.Dot = fixed.Point26_6{
		X: fixed.I(int(x)) - d.MeasureString(text)/2,
		Y: fixed.I(int(y)),
	}
	d.DrawString(text)
}

// fill composites the closed polygons over the image in col. Polygons with
// fewer than three points are skipped.
func (r *PNGRenderer) fill(col color.Color, polys ...[]Point) {
	bounds := polygonBounds(polys).Intersect(r.img.Bounds())
	if bounds.Empty() {
		return
	}

	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		z.MoveTo(float32(poly[0].X-ox), float32(poly[0].Y-oy))
		for _, p := range poly[1:] {
			z.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		z.ClosePath()
	}
	z.Draw(r.img, bounds, image.NewUniform(col), image.Point{})
}

func polygonBounds(polys [][]Point) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range polys {
		for _, p := range poly {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if minX > maxX {
		return image.Rectangle{}
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}

func rect(x, y, w, h float64) []Point {
	if w <= 0 || h <= 0 {
		return nil
	}
	return []Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

// roundedRect approximates each corner with a quarter circle of radius rad.
func roundedRect(x, y, w, h, rad float64) []Point {
	if w <= 0 || h <= 0 {
		return nil
	}
	rad = math.Max(0, math.Min(rad, math.Min(w, h)/2))

	corners := [4]struct{ cx, cy, start float64 }{
		{x + w - rad, y + rad, -math.Pi / 2},
		{x + w - rad, y + h - rad, 0},
		{x + rad, y + h - rad, math.Pi / 2},
		{x + rad, y + rad, math.Pi},
	}
	const steps = 4
	pts := make([]Point, 0, 4*(steps+1))
	for _, c := range corners {
		for i := 0; i <= steps; i++ {
			a := c.start + float64(i)*(math.Pi/2)/steps
			pts = append(pts, Point{X: c.cx + rad*math.Cos(a), Y: c.cy + rad*math.Sin(a)})
		}
	}
	return pts
}

// segment returns the quad covering the line from a to b at the given width.
func segment(a, b Point, width float64) []Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	return []Point{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	}
}

// dashes splits the line from a to b into pngDashOn long segments every
// pngDashPeriod.
func dashes(a, b Point, width float64) [][]Point {
	length := math.Hypot(b.X-a.X, b.Y-a.Y)
	if length == 0 {
		return nil
	}
	at := func(d float64) Point {
		t := d / length
		return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
	}

	var out [][]Point
	for d := 0.0; d < length; d += pngDashPeriod {
		out = append(out, segment(at(d), at(math.Min(d+pngDashOn, length)), width))
	}
	return out
}

// arrowhead returns a filled triangle pointing at tip along from->tip.
func arrowhead(from, tip Point, size float64) []Point {
	angle := math.Atan2(tip.Y-from.Y, tip.X-from.X)
	wing := func(a float64) Point {
		return Point{X: tip.X + size*math.Cos(a), Y: tip.Y + size*math.Sin(a)}
	}
	return []Point{tip, wing(angle + math.Pi*0.85), wing(angle - math.Pi*0.85)}
}

// parseColor converts "#rrggbb" to an opaque color. Malformed input is black.
func parseColor(hex string) color.Color {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil || len(strings.TrimPrefix(hex, "#")) != 6 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
