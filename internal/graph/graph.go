// Package graph builds a node/edge view of an architecture model and
// computes simple statistics over it.
package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// Category groups nodes by the kind of element they came from.
type Category string

const (
	CategoryActor          Category = "actor"
	CategoryApplication    Category = "application"
	CategoryComponent      Category = "component"
	CategoryTechnology     Category = "technology"
	CategorySystemSoftware Category = "systemSoftware"
)

// Categories lists the node categories in layer order.
var Categories = []Category{
	CategoryActor,
	CategoryApplication,
	CategoryComponent,
	CategoryTechnology,
	CategorySystemSoftware,
}

// Node represents an element in the graph.
type Node struct {
	ID          string
	Label       string
	Category    Category
	Kind        string // type discriminator, e.g. "EXTERNAL", "DATABASE"
	Description string
	Title       string // multi-line tooltip
	Level       int
}

// Edge represents a relationship. From/To may name nodes that do not exist.
type Edge struct {
	From         string
	To           string
	Label        string
	Relationship model.RelationshipType
	Technology   string
}

// Graph is an ordered node/edge view of a model.
type Graph struct {
	Nodes []*Node
	Edges []*Edge

	index map[string]*Node
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// addNode appends a node, replacing an earlier node with the same id in place.
func (g *Graph) addNode(n *Node) {
	if existing, ok := g.index[n.ID]; ok {
		*existing = *n
		return
	}
	g.index[n.ID] = n
	g.Nodes = append(g.Nodes, n)
}

// BuildGraph creates one node per renderable actor, application, component,
// technology node and system software, and one edge per relationship.
func BuildGraph(m *model.ArchitectureModel) *Graph {
	g := &Graph{index: make(map[string]*Node)}
	if m == nil {
		return g
	}

	for _, a := range m.Actors() {
		if !a.Renderable() {
			continue
		}
		g.addNode(&Node{
			ID:          a.UID,
			Label:       a.Name,
			Category:    CategoryActor,
			Kind:        a.ActorType,
			Description: a.Description,
			Title:       tooltip(a.Element, "Type", a.ActorType),
			Level:       0,
		})
	}

	for _, app := range m.Applications() {
		if !app.Renderable() {
			continue
		}
		kind := app.ApplicationType
		if kind == "" {
			kind = app.StereoType
		}
		g.addNode(&Node{
			ID:          app.UID,
			Label:       app.Name,
			Category:    CategoryApplication,
			Kind:        kind,
			Description: app.Description,
			Title:       tooltip(app.Element, "Type", kind, "Lifecycle", app.Lifecycle),
			Level:       1,
		})
	}

	for _, c := range m.Components() {
		if !c.Renderable() {
			continue
		}
		g.addNode(&Node{
			ID:          c.UID,
			Label:       c.Name,
			Category:    CategoryComponent,
			Kind:        c.ComponentType,
			Description: c.Description,
			Title:       tooltip(c.Element, "Type", c.ComponentType, "Technology", c.Technology),
			Level:       2,
		})
	}

	for _, n := range m.TechnologyNodes() {
		if !n.Renderable() {
			continue
		}
		g.addNode(&Node{
			ID:          n.UID,
			Label:       n.Name,
			Category:    CategoryTechnology,
			Kind:        n.NodeType,
			Description: n.Description,
			Title:       tooltip(n.Element, "Type", n.NodeType, "Environment", n.Environment),
			Level:       3,
		})
	}

	for _, s := range m.SystemSoftware() {
		if !s.Renderable() {
			continue
		}
		g.addNode(&Node{
			ID:          s.UID,
			Label:       s.Name,
			Category:    CategorySystemSoftware,
			Kind:        s.SoftwareType,
			Description: s.Description,
			Title:       tooltip(s.Element, "Type", s.SoftwareType, "Version", s.Version),
			Level:       4,
		})
	}

	for _, rel := range m.Relationships {
		g.Edges = append(g.Edges, &Edge{
			From:         rel.SourceID(),
			To:           rel.TargetID(),
			Label:        rel.Description,
			Relationship: rel.Type(),
			Technology:   rel.Technology(),
		})
	}

	return g
}

// tooltip assembles "name\ndescription\nLabel: value..." skipping empty
// values. kv alternates label and value.
func tooltip(e model.Element, kv ...string) string {
	lines := []string{e.Name}
	if e.Description != "" {
		lines = append(lines, e.Description)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", kv[i], kv[i+1]))
	}
	// Free-form properties follow the typed fields in key order
	for _, k := range slices.Sorted(maps.Keys(e.Properties)) {
		if v := model.FormatValue(e.Properties[k]); v != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return strings.Join(lines, "\n")
}
