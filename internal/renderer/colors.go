package renderer

import (
	"fmt"
	"strconv"

	"github.com/ankek/terraform-provider-archstudio/internal/graph"
	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// getNodeColor returns the palette color for a node category
func getNodeColor(category graph.Category) string {
	switch category {
	case graph.CategoryActor:
		return "#FFC107" // Amber
	case graph.CategoryApplication:
		return "#2196F3" // Blue
	case graph.CategoryComponent:
		return "#4CAF50" // Green
	case graph.CategoryTechnology:
		return "#9C27B0" // Purple
	case graph.CategorySystemSoftware:
		return "#FF5722" // Deep Orange
	default:
		return "#757575" // Gray
	}
}

// getNodeShape returns the vis-network shape for a node category
func getNodeShape(category graph.Category) string {
	switch category {
	case graph.CategoryActor:
		return "ellipse"
	case graph.CategoryApplication:
		return "box"
	case graph.CategoryComponent:
		return "square"
	case graph.CategoryTechnology:
		return "hexagon"
	case graph.CategorySystemSoftware:
		return "database"
	default:
		return "dot"
	}
}

// getEdgeColor returns the color for a relationship type
func getEdgeColor(rel model.RelationshipType) string {
	switch rel {
	case model.RelationshipFlow:
		return "#2196F3"
	case model.RelationshipServing:
		return "#4CAF50"
	case model.RelationshipAccess:
		return "#FF9800"
	case model.RelationshipTriggering:
		return "#9C27B0"
	case model.RelationshipComposition:
		return "#F44336"
	case model.RelationshipAggregation:
		return "#795548"
	case model.RelationshipAssociation:
		return "#607D8B"
	default:
		return "#9E9E9E"
	}
}

// lightenColor lightens a hex color by a percentage
func lightenColor(hexColor string, percent int) string {
	r, g, b := parseHex(hexColor)

	factor := float64(percent) / 100.0
	r = int64(float64(r) + (255-float64(r))*factor)
	g = int64(float64(g) + (255-float64(g))*factor)
	b = int64(float64(b) + (255-float64(b))*factor)

	return fmt.Sprintf("#%02X%02X%02X", clamp(r), clamp(g), clamp(b))
}

// darkenColor darkens a hex color by a percentage
func darkenColor(hexColor string, percent int) string {
	r, g, b := parseHex(hexColor)

	factor := 1.0 - (float64(percent) / 100.0)
	r = int64(float64(r) * factor)
	g = int64(float64(g) * factor)
	b = int64(float64(b) * factor)

	return fmt.Sprintf("#%02X%02X%02X", clamp(r), clamp(g), clamp(b))
}

func parseHex(hexColor string) (r, g, b int64) {
	if len(hexColor) > 0 && hexColor[0] == '#' {
		hexColor = hexColor[1:]
	}
	if len(hexColor) != 6 {
		return 0, 0, 0
	}
	r, _ = strconv.ParseInt(hexColor[0:2], 16, 64)
	g, _ = strconv.ParseInt(hexColor[2:4], 16, 64)
	b, _ = strconv.ParseInt(hexColor[4:6], 16, 64)
	return r, g, b
}

func clamp(v int64) int64 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return v
	}
}
