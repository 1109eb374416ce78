package graph

import (
	"math"
	"strings"
	"testing"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

func el(uid, name string) model.Element {
	return model.Element{UID: uid, Name: name}
}

func TestBuildGraph(t *testing.T) {
	tests := []struct {
		name      string
		model     *model.ArchitectureModel
		wantNodes int
		wantEdges int
	}{
		{
			name:      "nil model",
			model:     nil,
			wantNodes: 0,
			wantEdges: 0,
		},
		{
			name: "actor and application with relationship",
			model: &model.ArchitectureModel{
				UID:  "m",
				Name: "M",
				BusinessLayer: &model.BusinessLayer{
					Actors: []model.BusinessActor{{Element: el("actor-1", "Customer")}},
				},
				ApplicationLayer: &model.ApplicationLayer{
					Applications: []model.Application{{Element: el("app-1", "Web App")}},
				},
				Relationships: []model.Relationship{
					{Source: model.Ref("actor-1"), Target: model.Ref("app-1"), Description: "Uses"},
				},
			},
			wantNodes: 2,
			wantEdges: 1,
		},
		{
			name: "elements without uid or name are skipped",
			model: &model.ArchitectureModel{
				UID:  "m",
				Name: "M",
				BusinessLayer: &model.BusinessLayer{
					Actors: []model.BusinessActor{
						{Element: el("", "No ID")},
						{Element: el("no-name", "")},
						{Element: el("ok", "OK")},
					},
				},
				TechnologyLayer: &model.TechnologyLayer{
					Nodes:          []model.TechnologyNode{{Element: el("n1", "Server")}},
					SystemSoftware: []model.SystemSoftware{{Element: el("", "")}},
				},
			},
			wantNodes: 2,
			wantEdges: 0,
		},
		{
			name: "dangling relationship still produces an edge",
			model: &model.ArchitectureModel{
				UID:  "m",
				Name: "M",
				ApplicationLayer: &model.ApplicationLayer{
					Components: []model.ApplicationComponent{{Element: el("c1", "API")}},
				},
				Relationships: []model.Relationship{
					{Source: model.Ref("c1"), Target: model.Ref("ghost")},
				},
			},
			wantNodes: 1,
			wantEdges: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := BuildGraph(tt.model)
			if len(g.Nodes) != tt.wantNodes {
				t.Errorf("BuildGraph() nodes = %d, want %d", len(g.Nodes), tt.wantNodes)
			}
			if len(g.Edges) != tt.wantEdges {
				t.Errorf("BuildGraph() edges = %d, want %d", len(g.Edges), tt.wantEdges)
			}
		})
	}
}

func TestBuildGraphNodeDetails(t *testing.T) {
	m := &model.ArchitectureModel{
		UID:  "m",
		Name: "M",
		ApplicationLayer: &model.ApplicationLayer{
			Applications: []model.Application{{
				Element:         model.Element{UID: "app-1", Name: "Web App", Description: "Storefront"},
				ApplicationType: "WEB",
				Lifecycle:       "ACTIVE",
			}},
		},
		Relationships: []model.Relationship{
			{Source: model.Ref("app-1"), Target: model.Ref("db"), RelationshipType: model.RelationshipAccess},
		},
	}

	g := BuildGraph(m)
	n, ok := g.Node("app-1")
	if !ok {
		t.Fatal("node app-1 not found")
	}
	if n.Category != CategoryApplication || n.Level != 1 {
		t.Errorf("category/level = %s/%d", n.Category, n.Level)
	}
	want := "Web App\nStorefront\nType: WEB\nLifecycle: ACTIVE"
	if n.Title != want {
		t.Errorf("Title = %q, want %q", n.Title, want)
	}
	if g.Edges[0].Relationship != model.RelationshipAccess {
		t.Errorf("edge relationship = %s", g.Edges[0].Relationship)
	}
}

func TestBuildGraphTooltipProperties(t *testing.T) {
	m := &model.ArchitectureModel{
		UID:  "m",
		Name: "M",
		ApplicationLayer: &model.ApplicationLayer{
			Components: []model.ApplicationComponent{{
				Element: model.Element{
					UID:  "cmp-1",
					Name: "Orders",
					Properties: map[string]any{
						"replicas": float64(3),
						"owner":    "team-a",
						"public":   false,
						"empty":    nil,
					},
				},
				Technology: "Go",
			}},
		},
	}

	n, ok := BuildGraph(m).Node("cmp-1")
	if !ok {
		t.Fatal("node cmp-1 not found")
	}
	want := "Orders\nTechnology: Go\nowner: team-a\npublic: false\nreplicas: 3"
	if n.Title != want {
		t.Errorf("Title = %q, want %q", n.Title, want)
	}
}

func TestDuplicateIDsLastWriteWins(t *testing.T) {
	m := &model.ArchitectureModel{
		UID:  "m",
		Name: "M",
		BusinessLayer: &model.BusinessLayer{
			Actors: []model.BusinessActor{{Element: el("dup", "First")}, {Element: el("dup", "Second")}},
		},
	}
	g := BuildGraph(m)
	if len(g.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(g.Nodes))
	}
	if g.Nodes[0].Label != "Second" {
		t.Errorf("label = %q, want Second", g.Nodes[0].Label)
	}
}

func TestDensity(t *testing.T) {
	tests := []struct {
		nodes, edges int
		want         float64
	}{
		{0, 0, 0},
		{1, 3, 0},
		{3, 2, 2.0 * 2 / (3 * 2)},
		{2, 1, 1},
	}
	for _, tt := range tests {
		got := Density(tt.nodes, tt.edges)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Density(%d, %d) = %v, want %v", tt.nodes, tt.edges, got, tt.want)
		}
	}
}

func TestAnalyze(t *testing.T) {
	m := &model.ArchitectureModel{
		UID:  "m",
		Name: "M",
		BusinessLayer: &model.BusinessLayer{
			Actors: []model.BusinessActor{{Element: el("A", "A")}},
		},
		ApplicationLayer: &model.ApplicationLayer{
			Applications: []model.Application{{Element: el("B", "B")}},
			Components:   []model.ApplicationComponent{{Element: el("C", "C")}},
		},
		Relationships: []model.Relationship{
			{Source: model.Ref("A"), Target: model.Ref("B")},
			{Source: model.Ref("B"), Target: model.Ref("C")},
		},
	}

	a := Analyze(BuildGraph(m))

	if a.NodeCount != 3 || a.EdgeCount != 2 {
		t.Fatalf("counts = %d/%d", a.NodeCount, a.EdgeCount)
	}
	if math.Abs(a.Density-0.6667) > 1e-3 {
		t.Errorf("Density = %v, want ~0.667", a.Density)
	}
	if a.Centrality.MaxDegree != 2 {
		t.Errorf("MaxDegree = %d, want 2", a.Centrality.MaxDegree)
	}
	if strings.Join(a.Centrality.MostConnected, ",") != "B" {
		t.Errorf("MostConnected = %v, want [B]", a.Centrality.MostConnected)
	}
	if math.Abs(a.Centrality.MeanDegree-4.0/3.0) > 1e-9 {
		t.Errorf("MeanDegree = %v", a.Centrality.MeanDegree)
	}
	if a.Complexity != ComplexityLow {
		t.Errorf("Complexity = %s", a.Complexity)
	}
	if a.NodesByCategory[CategoryActor] != 1 || a.NodesByCategory[CategoryTechnology] != 0 {
		t.Errorf("NodesByCategory = %v", a.NodesByCategory)
	}
}

func TestComplexityLabel(t *testing.T) {
	tests := []struct {
		nodes, edges int
		want         string
	}{
		{0, 0, ComplexityLow},
		{10, 6, ComplexityLow},    // 19
		{11, 6, ComplexityMedium}, // 20
		{50, 32, ComplexityMedium},
		{40, 40, ComplexityHigh}, // 100
	}
	for _, tt := range tests {
		if got := ComplexityLabel(tt.nodes, tt.edges); got != tt.want {
			t.Errorf("ComplexityLabel(%d, %d) = %s, want %s", tt.nodes, tt.edges, got, tt.want)
		}
	}
}
