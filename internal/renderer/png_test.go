package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/ankek/terraform-provider-archstudio/internal/graph"
)

func TestPNGRendererDrawsNodes(t *testing.T) {
	layout := CalculateLayout(graph.BuildGraph(layeredModel()), "TB", 200, 90, 80, 100)

	data, err := NewPNGRenderer(Options{Title: "Layers", IncludeLabels: true}).Render(layout)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}

	wantW := int(layout.Width + 2*pngPadding)
	if img.Bounds().Dx() != wantW {
		t.Errorf("width = %d, want %d", img.Bounds().Dx(), wantW)
	}

	// The category band of every node carries the category color
	for id, nl := range layout.Nodes {
		x := int(nl.Position.X+pngPadding+nl.Width/2) + 20
		y := int(nl.Position.Y + pngPadding + pngStroke + 3)
		want := color.RGBAModel.Convert(parseColor(getNodeColor(nl.Node.Category))).(color.RGBA)
		got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
		if got != want {
			t.Errorf("node %s band at (%d,%d) = %v, want %v", id, x, y, got, want)
		}
	}

	if got := color.RGBAModel.Convert(img.At(1, img.Bounds().Dy()-2)).(color.RGBA); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("background = %v, want white", got)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#2196F3", color.RGBA{0x21, 0x96, 0xF3, 255}},
		{"ff0000", color.RGBA{255, 0, 0, 255}},
		{"#fff", color.RGBA{A: 255}},
		{"not-a-color", color.RGBA{A: 255}},
	}
	for _, tt := range tests {
		if got := parseColor(tt.in); got != tt.want {
			t.Errorf("parseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestShapeGeometry(t *testing.T) {
	quad := segment(Point{0, 0}, Point{10, 0}, 2)
	if len(quad) != 4 || quad[0].Y != 1 || quad[2].Y != -1 {
		t.Errorf("segment() = %v", quad)
	}
	if segment(Point{3, 3}, Point{3, 3}, 2) != nil {
		t.Error("segment() of a point should be nil")
	}

	if got := len(dashes(Point{0, 0}, Point{0, 25}, 2)); got != 3 {
		t.Errorf("dashes() = %d segments, want 3", got)
	}

	b := polygonBounds([][]Point{roundedRect(10, 20, 100, 50, 8)})
	if b != image.Rect(10, 20, 111, 71) {
		t.Errorf("roundedRect bounds = %v", b)
	}
	if !polygonBounds(nil).Empty() {
		t.Error("polygonBounds(nil) should be empty")
	}

	tri := arrowhead(Point{0, 0}, Point{10, 0}, 10)
	for _, p := range tri[1:] {
		if p.X >= 10 || math.Abs(p.Y) > 10 {
			t.Errorf("arrowhead wing %v not behind the tip", p)
		}
	}
}
