package provider

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ankek/terraform-provider-archstudio/internal/diagram"
	"github.com/ankek/terraform-provider-archstudio/internal/parser"
	"github.com/ankek/terraform-provider-archstudio/internal/plantuml"
	"github.com/ankek/terraform-provider-archstudio/internal/renderer"
	"github.com/ankek/terraform-provider-archstudio/internal/validation"
)

const testModelJSON = `{
	"uid": "shop",
	"name": "Shop",
	"businessLayer": {"actors": [{"uid": "customer", "name": "Customer"}]},
	"applicationLayer": {
		"applications": [{"uid": "web", "name": "Web Shop", "technology": "React"}],
		"components": [{"uid": "api", "name": "Orders API", "technology": "Go"}]
	},
	"relationships": [
		{"uid": "r1", "source": "customer", "target": "web", "description": "browses"},
		{"uid": "r2", "source": "web", "target": {"uid": "api"}, "description": "calls"}
	]
}`

// fakeImages records PlantUML sources and returns canned image bytes.
type fakeImages struct {
	sources []string
	fail    bool
}

func (f *fakeImages) Render(ctx context.Context, source, format string) plantuml.Result {
	f.sources = append(f.sources, source)
	if f.fail {
		return plantuml.Result{Error: "plantuml server returned 500 Internal Server Error"}
	}
	return plantuml.Result{Success: true, Data: []byte("<svg>" + format + "</svg>"), ContentType: "image/svg+xml"}
}

func newTestGenerator(images *fakeImages) *DiagramGenerator {
	return &DiagramGenerator{
		loader:   modelLoader{},
		renderer: diagram.NewService(nil, nil),
		images:   images,
		paths:    validation.Paths{},
	}
}

func TestDiagramGenerator_Generate(t *testing.T) {
	tmpDir := t.TempDir()
	modelFile := filepath.Join(tmpDir, "model.json")
	if err := os.WriteFile(modelFile, []byte(testModelJSON), 0644); err != nil {
		t.Fatalf("Failed to create test model file: %v", err)
	}

	generator := newTestGenerator(&fakeImages{})
	ctx := context.Background()

	tests := []struct {
		name        string
		config      DiagramConfig
		wantErr     bool
		wantFormat  string
		wantContent string
	}{
		{
			name:        "graph json from file",
			config:      DiagramConfig{ModelPath: modelFile},
			wantFormat:  renderer.FormatJSON,
			wantContent: `"nodes"`,
		},
		{
			name: "plantuml container view written to disk",
			config: DiagramConfig{
				ModelJSON:  testModelJSON,
				Renderer:   renderer.PlantUMLRendererName,
				ViewType:   "container",
				OutputPath: filepath.Join(tmpDir, "shop.puml"),
			},
			wantFormat:  renderer.FormatC4,
			wantContent: "@startuml",
		},
		{
			name: "likec4 dsl",
			config: DiagramConfig{
				ModelJSON: testModelJSON,
				Renderer:  renderer.LikeC4RendererName,
			},
			wantFormat:  renderer.FormatDSL,
			wantContent: "specification",
		},
		{
			name: "graph png preview written to disk",
			config: DiagramConfig{
				ModelJSON:  testModelJSON,
				Format:     renderer.FormatPNG,
				OutputPath: filepath.Join(tmpDir, "shop.png"),
			},
			wantFormat: renderer.FormatPNG,
		},
		{
			name:    "missing input",
			config:  DiagramConfig{OutputPath: filepath.Join(tmpDir, "diagram.json")},
			wantErr: true,
		},
		{
			name: "invalid output path",
			config: DiagramConfig{
				ModelJSON:  testModelJSON,
				OutputPath: "/nonexistent/directory/diagram.json",
			},
			wantErr: true,
		},
		{
			name:    "unsupported model extension",
			config:  DiagramConfig{ModelPath: filepath.Join(tmpDir, "model.txt")},
			wantErr: true,
		},
		{
			name:    "unknown renderer",
			config:  DiagramConfig{ModelJSON: testModelJSON, Renderer: "mermaid"},
			wantErr: true,
		},
		{
			name:    "format the renderer lacks",
			config:  DiagramConfig{ModelJSON: testModelJSON, Renderer: renderer.LikeC4RendererName, Format: "svg"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := generator.Generate(ctx, tt.config)

			if (err != nil) != tt.wantErr {
				t.Errorf("Generate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			if result.Output.Format != tt.wantFormat {
				t.Errorf("Generate() format = %q, want %q", result.Output.Format, tt.wantFormat)
			}
			if tt.wantContent != "" && !strings.Contains(result.Output.Content, tt.wantContent) {
				t.Errorf("Generate() content missing %q", tt.wantContent)
			}
			if result.ElementCount != 3 || result.RelationshipCount != 2 {
				t.Errorf("Generate() counts = %d/%d, want 3/2", result.ElementCount, result.RelationshipCount)
			}
			if result.OutputPath != tt.config.OutputPath {
				t.Errorf("Generate() OutputPath = %v, want %v", result.OutputPath, tt.config.OutputPath)
			}

			if tt.config.OutputPath != "" {
				if _, err := os.Stat(result.OutputPath); os.IsNotExist(err) {
					t.Errorf("Generate() did not create output file at %s", result.OutputPath)
				}
			}
		})
	}
}

func TestDiagramGenerator_PNGFileIsBinary(t *testing.T) {
	out := filepath.Join(t.TempDir(), "shop.png")
	_, err := newTestGenerator(&fakeImages{}).Generate(context.Background(), DiagramConfig{
		ModelJSON:  testModelJSON,
		Format:     renderer.FormatPNG,
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("output is not a PNG file: % x", data[:min(8, len(data))])
	}
}

func TestDiagramGenerator_ImageFormat(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()

	t.Run("plantuml source is sent to the image renderer", func(t *testing.T) {
		images := &fakeImages{}
		out := filepath.Join(tmpDir, "shop.svg")

		_, err := newTestGenerator(images).Generate(ctx, DiagramConfig{
			ModelJSON:   testModelJSON,
			Renderer:    renderer.PlantUMLRendererName,
			OutputPath:  out,
			ImageFormat: plantuml.FormatSVG,
		})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(images.sources) != 1 || !strings.Contains(images.sources[0], "@startuml") {
			t.Fatalf("image renderer got %q", images.sources)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("Failed to read output: %v", err)
		}
		if string(data) != "<svg>svg</svg>" {
			t.Errorf("output = %q", data)
		}
	})

	t.Run("structurizr plantuml export is accepted", func(t *testing.T) {
		images := &fakeImages{}
		_, err := newTestGenerator(images).Generate(ctx, DiagramConfig{
			ModelJSON:   testModelJSON,
			Renderer:    renderer.StructurizrRendererName,
			Format:      renderer.FormatPlantUML,
			OutputPath:  filepath.Join(tmpDir, "structurizr.png"),
			ImageFormat: plantuml.FormatPNG,
		})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(images.sources) != 1 {
			t.Errorf("image renderer called %d times, want 1", len(images.sources))
		}
	})

	t.Run("non plantuml output is rejected", func(t *testing.T) {
		images := &fakeImages{}
		_, err := newTestGenerator(images).Generate(ctx, DiagramConfig{
			ModelJSON:   testModelJSON,
			Renderer:    renderer.LikeC4RendererName,
			OutputPath:  filepath.Join(tmpDir, "likec4.svg"),
			ImageFormat: plantuml.FormatSVG,
		})
		if err == nil || !strings.Contains(err.Error(), "requires PlantUML output") {
			t.Errorf("Generate() error = %v", err)
		}
		if len(images.sources) != 0 {
			t.Error("image renderer should not be called")
		}
	})

	t.Run("server failure", func(t *testing.T) {
		out := filepath.Join(tmpDir, "failed.svg")
		_, err := newTestGenerator(&fakeImages{fail: true}).Generate(ctx, DiagramConfig{
			ModelJSON:   testModelJSON,
			Renderer:    renderer.PlantUMLRendererName,
			OutputPath:  out,
			ImageFormat: plantuml.FormatSVG,
		})
		if err == nil || !strings.Contains(err.Error(), "500") {
			t.Errorf("Generate() error = %v", err)
		}
		if _, err := os.Stat(out); !os.IsNotExist(err) {
			t.Error("no file should be written when the server fails")
		}
	})
}

func TestDiagramGenerator_Generate_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := newTestGenerator(&fakeImages{}).Generate(ctx, DiagramConfig{
		ModelJSON:  testModelJSON,
		OutputPath: filepath.Join(t.TempDir(), "diagram.json"),
	})

	// Should get context canceled error
	if err == nil {
		t.Error("Generate() should fail when context is cancelled")
	}
}

func TestDiagramGenerator_Warnings(t *testing.T) {
	result, err := newTestGenerator(&fakeImages{}).Generate(context.Background(), DiagramConfig{
		ModelJSON: `{"uid": "empty", "name": "Empty"}`,
		Renderer:  renderer.LikeC4RendererName,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected warnings for an empty model")
	}
}

func TestNewGenerator(t *testing.T) {
	pd, err := dataFrom(context.Background(), nil)
	if err != nil {
		t.Fatalf("dataFrom() error = %v", err)
	}
	if pd.images == nil {
		t.Fatal("default provider data has no PlantUML client")
	}

	g := newGenerator(context.Background(), pd)
	result, err := g.Generate(context.Background(), DiagramConfig{ModelJSON: testModelJSON, Renderer: renderer.StructurizrRendererName})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(result.Output.Content, "workspace") {
		t.Errorf("content = %q", result.Output.Content)
	}
}

func TestDataFromUsesConfiguredData(t *testing.T) {
	want := &providerData{remote: parser.RemoteConfig{BaseURL: "http://example"}}
	got, err := dataFrom(context.Background(), want)
	if err != nil {
		t.Fatalf("dataFrom() error = %v", err)
	}
	if got != want {
		t.Error("dataFrom() should return configured provider data")
	}
}

func TestMetadataHelpers(t *testing.T) {
	md := map[string]any{
		"a":        3,
		"b":        int64(4),
		"c":        float64(5),
		"warnings": []string{"w"},
	}
	for key, want := range map[string]int64{"a": 3, "b": 4, "c": 5, "missing": 0} {
		if got := metadataInt(md, key); got != want {
			t.Errorf("metadataInt(%q) = %d, want %d", key, got, want)
		}
	}
	if got := metadataStrings(md, "warnings"); len(got) != 1 || got[0] != "w" {
		t.Errorf("metadataStrings() = %v", got)
	}
	if got := metadataStrings(md, "a"); got != nil {
		t.Errorf("metadataStrings() on int = %v", got)
	}
}
