package renderer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ankek/terraform-provider-archstudio/internal/graph"
	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// Graph renderer formats.
const (
	FormatJSON = "json"
	FormatVis  = "vis"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// GraphRendererName is the registry name of the graph renderer.
const GraphRendererName = "graph"

// GraphNode is a vis-network node.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Color string `json:"color,omitempty"`
	Shape string `json:"shape,omitempty"`
	Title string `json:"title,omitempty"`
	Level int    `json:"level"`
}

// GraphEdge is a vis-network edge.
type GraphEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Label  string `json:"label,omitempty"`
	Arrows string `json:"arrows,omitempty"`
	Color  string `json:"color,omitempty"`
	Dashes bool   `json:"dashes,omitempty"`
}

// GraphData is the {nodes, edges, options} triple handed to vis-network.
type GraphData struct {
	Nodes   []GraphNode    `json:"nodes"`
	Edges   []GraphEdge    `json:"edges"`
	Options map[string]any `json:"options"`
}

// GraphRenderer renders the model as a vis-network graph or a static preview.
type GraphRenderer struct {
	base
}

// NewGraphRenderer creates the graph renderer
func NewGraphRenderer() *GraphRenderer {
	return &GraphRenderer{base{
		name:        GraphRendererName,
		description: "Interactive node/edge graph (vis-network JSON or script) with SVG/PNG previews",
		formats:     []string{FormatJSON, FormatVis, FormatSVG, FormatPNG},
	}}
}

// Render implements Renderer.
func (r *GraphRenderer) Render(ctx context.Context, m *model.ArchitectureModel, opts Options) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format, err := r.resolveFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	g := graph.BuildGraph(m)
	data := BuildGraphData(g, opts.Direction)
	extra := map[string]any{
		"nodeCount": len(data.Nodes),
		"edgeCount": len(data.Edges),
	}

	var content string
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		content = string(b)
	case FormatVis:
		content, err = visScript(data, titleOf(m, opts))
		if err != nil {
			return nil, err
		}
	case FormatSVG, FormatPNG:
		previewOpts := opts
		previewOpts.Title = titleOf(m, opts)
		b, err := renderPreview(ctx, g, format, previewOpts)
		if err != nil {
			return nil, err
		}
		if format == FormatPNG {
			content = base64.StdEncoding.EncodeToString(b)
			extra["encoding"] = "base64"
		} else {
			content = string(b)
		}
	}

	return r.newOutput(m, content, format, start, extra), nil
}

// AnalyzeModel returns graph statistics for the model.
func (r *GraphRenderer) AnalyzeModel(m *model.ArchitectureModel) graph.Analysis {
	return graph.Analyze(graph.BuildGraph(m))
}

// BuildGraphData converts a graph into vis-network nodes, edges and options.
// Node ids are the raw element uids.
func BuildGraphData(g *graph.Graph, direction string) GraphData {
	data := GraphData{
		Nodes:   make([]GraphNode, 0, len(g.Nodes)),
		Edges:   make([]GraphEdge, 0, len(g.Edges)),
		Options: visOptions(direction),
	}

	for _, n := range g.Nodes {
		data.Nodes = append(data.Nodes, GraphNode{
			ID:    n.ID,
			Label: n.Label,
			Group: string(n.Category),
			Color: getNodeColor(n.Category),
			Shape: getNodeShape(n.Category),
			Title: n.Title,
			Level: n.Level,
		})
	}

	for _, e := range g.Edges {
		data.Edges = append(data.Edges, GraphEdge{
			From:   e.From,
			To:     e.To,
			Label:  e.Label,
			Arrows: "to",
			Color:  getEdgeColor(e.Relationship),
			Dashes: e.Relationship == model.RelationshipFlow,
		})
	}

	return data
}

// visOptions is the fixed layout and physics configuration.
func visOptions(direction string) map[string]any {
	return map[string]any{
		"layout": map[string]any{
			"hierarchical": map[string]any{
				"enabled":         true,
				"direction":       visDirection(direction),
				"sortMethod":      "directed",
				"levelSeparation": 150,
				"nodeSpacing":     200,
			},
		},
		"physics": map[string]any{
			"enabled": true,
			"hierarchicalRepulsion": map[string]any{
				"nodeDistance":   200,
				"centralGravity": 0.0,
				"springLength":   150,
				"springConstant": 0.01,
				"damping":        0.09,
			},
			"stabilization": map[string]any{
				"iterations": 200,
			},
		},
		"nodes": map[string]any{
			"font":        map[string]any{"size": 14},
			"borderWidth": 2,
		},
		"edges": map[string]any{
			"smooth": map[string]any{"type": "cubicBezier"},
			"font":   map[string]any{"size": 11, "align": "middle"},
		},
		"interaction": map[string]any{
			"hover":        true,
			"tooltipDelay": 200,
		},
	}
}

func visDirection(direction string) string {
	switch strings.ToUpper(direction) {
	case "BT":
		return "DU"
	case "LR":
		return "LR"
	case "RL":
		return "RL"
	default:
		return "UD"
	}
}

// visScript embeds the graph data in a vis-network bootstrap snippet.
func visScript(data GraphData, title string) (string, error) {
	nodes, err := json.MarshalIndent(data.Nodes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode nodes: %w", err)
	}
	edges, err := json.MarshalIndent(data.Edges, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode edges: %w", err)
	}
	options, err := json.MarshalIndent(data.Options, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode options: %w", err)
	}

	title = strings.Join(strings.Fields(title), " ")

	var b strings.Builder
	fmt.Fprintf(&b, "// %s\n", title)
	fmt.Fprintf(&b, "const nodes = new vis.DataSet(%s);\n\n", nodes)
	fmt.Fprintf(&b, "const edges = new vis.DataSet(%s);\n\n", edges)
	b.WriteString("const container = document.getElementById('architecture-graph');\n")
	b.WriteString("const data = { nodes: nodes, edges: edges };\n")
	fmt.Fprintf(&b, "const options = %s;\n\n", options)
	b.WriteString("const network = new vis.Network(container, data, options);\n")
	return b.String(), nil
}
