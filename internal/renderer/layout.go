package renderer

import (
	"sort"

	"github.com/ankek/terraform-provider-archstudio/internal/graph"
)

// Point represents a 2D coordinate
type Point struct {
	X, Y float64
}

// NodeLayout represents the layout information for a node
type NodeLayout struct {
	Node     *graph.Node
	Position Point
	Width    float64
	Height   float64
	Layer    int // Hierarchical layer (0 = top/left)
}

// EdgeLayout represents the layout information for an edge
type EdgeLayout struct {
	Edge   *graph.Edge
	Points []Point // Control points for the edge path
}

// Layout represents the complete graph layout
type Layout struct {
	Nodes     map[string]*NodeLayout
	Order     []string // node ids in drawing order
	Edges     []*EdgeLayout
	Width     float64
	Height    float64
	Direction string // TB, LR, BT, RL
}

// CalculateLayout places nodes in one layer per architecture level and
// connects them with straight edges. Dangling edges are not drawn.
func CalculateLayout(g *graph.Graph, direction string, nodeWidth, nodeHeight, horizontalSpacing, verticalSpacing float64) *Layout {
	layout := &Layout{
		Nodes:     make(map[string]*NodeLayout),
		Edges:     []*EdgeLayout{},
		Direction: direction,
	}

	if g == nil || len(g.Nodes) == 0 {
		return layout
	}

	// Step 1: Assign layers by architecture level
	layers := assignLayers(g)

	// Step 2: Put well connected nodes first within a layer
	orderNodesInLayers(layers, g)

	// Step 3: Assign coordinates
	assignCoordinates(layout, layers, g, direction, nodeWidth, nodeHeight, horizontalSpacing, verticalSpacing)

	// Step 4: Calculate edge paths
	calculateEdgePaths(layout, g)

	return layout
}

// assignLayers groups node ids by level, dropping empty levels. Within a
// layer nodes keep declaration order.
func assignLayers(g *graph.Graph) [][]string {
	byLevel := make(map[int][]string)
	for _, n := range g.Nodes {
		byLevel[n.Level] = append(byLevel[n.Level], n.ID)
	}

	levels := make([]int, 0, len(byLevel))
	for level := range byLevel {
		levels = append(levels, level)
	}
	sort.Ints(levels)

	layers := make([][]string, 0, len(levels))
	for _, level := range levels {
		layers = append(layers, byLevel[level])
	}
	return layers
}

// orderNodesInLayers orders nodes within each layer by connection count
func orderNodesInLayers(layers [][]string, g *graph.Graph) {
	connections := make(map[string]int)
	for _, edge := range g.Edges {
		connections[edge.From]++
		connections[edge.To]++
	}

	for i := range layers {
		layer := layers[i]
		sort.SliceStable(layer, func(a, b int) bool {
			return connections[layer[a]] > connections[layer[b]]
		})
	}
}

// assignCoordinates places layers along the flow axis and centers each
// layer's nodes on the cross axis.
func assignCoordinates(layout *Layout, layers [][]string, g *graph.Graph, direction string, nodeWidth, nodeHeight, hSpacing, vSpacing float64) {
	horizontal := direction == "LR" || direction == "RL"
	reversed := direction == "BT" || direction == "RL"

	// Step sizes along the flow (between layers) and across it (within a layer)
	flowStep, crossStep, crossSize := nodeHeight+vSpacing, nodeWidth+hSpacing, nodeWidth
	if horizontal {
		flowStep, crossStep, crossSize = nodeWidth+hSpacing, nodeHeight+vSpacing, nodeHeight
	}

	widest := 0
	for _, layer := range layers {
		widest = max(widest, len(layer))
	}
	span := func(n int) float64 { return float64(n-1)*crossStep + crossSize }

	for layerIdx, layer := range layers {
		flowIdx := layerIdx
		if reversed {
			flowIdx = len(layers) - 1 - layerIdx
		}
		offset := (span(widest) - span(len(layer))) / 2

		for slot, nodeID := range layer {
			node, _ := g.Node(nodeID)
			flow := float64(flowIdx) * flowStep
			cross := offset + float64(slot)*crossStep

			pos := Point{X: cross, Y: flow}
			if horizontal {
				pos = Point{X: flow, Y: cross}
			}
			layout.Nodes[nodeID] = &NodeLayout{
				Node:     node,
				Position: pos,
				Width:    nodeWidth,
				Height:   nodeHeight,
				Layer:    layerIdx,
			}
			layout.Order = append(layout.Order, nodeID)
		}
	}

	for _, nl := range layout.Nodes {
		layout.Width = max(layout.Width, nl.Position.X+nl.Width)
		layout.Height = max(layout.Height, nl.Position.Y+nl.Height)
	}
	layout.Width += hSpacing
	layout.Height += vSpacing
}

// calculateEdgePaths joins each pair of placed endpoints with a straight
// segment.
func calculateEdgePaths(layout *Layout, g *graph.Graph) {
	for _, edge := range g.Edges {
		from, to := layout.Nodes[edge.From], layout.Nodes[edge.To]
		if from == nil || to == nil {
			continue
		}
		layout.Edges = append(layout.Edges, &EdgeLayout{
			Edge:   edge,
			Points: calculateEdgePoints(from, to, layout.Direction),
		})
	}
}

// side names the midpoint of one edge of a node box.
type side int

const (
	top side = iota
	bottom
	left
	right
)

func (nl *NodeLayout) anchor(s side) Point {
	p := nl.Position
	switch s {
	case top:
		return Point{X: p.X + nl.Width/2, Y: p.Y}
	case bottom:
		return Point{X: p.X + nl.Width/2, Y: p.Y + nl.Height}
	case left:
		return Point{X: p.X, Y: p.Y + nl.Height/2}
	default:
		return Point{X: p.X + nl.Width, Y: p.Y + nl.Height/2}
	}
}

// calculateEdgePoints leaves from the side facing the flow and enters on the
// opposite side. Nodes sharing a layer are joined across the layer instead.
func calculateEdgePoints(from, to *NodeLayout, direction string) []Point {
	horizontal := direction == "LR" || direction == "RL"

	var out, in side
	switch {
	case from.Layer == to.Layer && from != to && horizontal:
		out, in = bottom, top
		if to.Position.Y < from.Position.Y {
			out, in = top, bottom
		}
	case from.Layer == to.Layer && from != to:
		out, in = right, left
		if to.Position.X < from.Position.X {
			out, in = left, right
		}
	case direction == "BT":
		out, in = top, bottom
	case direction == "LR":
		out, in = right, left
	case direction == "RL":
		out, in = left, right
	default:
		out, in = bottom, top
	}
	return []Point{from.anchor(out), to.anchor(in)}
}
