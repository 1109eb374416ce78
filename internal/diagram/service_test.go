package diagram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
	"github.com/ankek/terraform-provider-archstudio/internal/renderer"
)

func sampleArchitecture() *model.Architecture {
	return &model.Architecture{
		UID:  "arch-1",
		Name: "Shop",
		ApplicationLayer: &model.ApplicationLayer{
			Applications: []model.Application{
				{Element: model.Element{UID: "app-1", Name: "Web"}},
			},
			Components: []model.ApplicationComponent{
				{Element: model.Element{UID: "cmp-1", Name: "API"}},
			},
		},
		Relationships: []model.Relationship{
			{UID: "rel-1", Source: model.Ref("app-1"), Target: model.Ref("cmp-1")},
		},
	}
}

func TestRenderDiagram(t *testing.T) {
	svc := NewService(nil, nil)

	out, err := svc.RenderDiagram(context.Background(), sampleArchitecture(), renderer.PlantUMLRendererName, renderer.FormatComponent, renderer.Options{})
	if err != nil {
		t.Fatalf("RenderDiagram() error = %v", err)
	}
	if out.Format != renderer.FormatComponent {
		t.Errorf("format = %q, want %q", out.Format, renderer.FormatComponent)
	}
	if !strings.Contains(out.Content, "@startuml") {
		t.Errorf("content has no @startuml: %q", out.Content)
	}
}

func TestRenderDiagramNormalizesMissingIdentity(t *testing.T) {
	svc := NewService(nil, nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	out, err := svc.RenderDiagram(context.Background(), &model.Architecture{}, renderer.GraphRendererName, "", renderer.Options{})
	if err != nil {
		t.Fatalf("RenderDiagram() error = %v", err)
	}
	if got := out.Metadata["architectureUid"]; got != "arch-1700000000000" {
		t.Errorf("architectureUid = %v", got)
	}
	if got := out.Metadata["architectureName"]; got != model.DefaultName {
		t.Errorf("architectureName = %v", got)
	}
}

func TestRenderDiagramErrors(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()

	if _, err := svc.RenderDiagram(ctx, sampleArchitecture(), "mermaid", "", renderer.Options{}); !errors.Is(err, renderer.ErrRendererNotFound) {
		t.Errorf("unknown renderer error = %v", err)
	}
	if _, err := svc.RenderDiagram(ctx, sampleArchitecture(), renderer.LikeC4RendererName, "svg", renderer.Options{}); !errors.Is(err, renderer.ErrUnsupportedFormat) {
		t.Errorf("unsupported format error = %v", err)
	}
}

func TestRenderModelNil(t *testing.T) {
	svc := NewService(nil, nil)

	for _, name := range []string{renderer.GraphRendererName, renderer.PlantUMLRendererName, renderer.StructurizrRendererName, renderer.LikeC4RendererName} {
		t.Run(name, func(t *testing.T) {
			out, err := svc.RenderModel(context.Background(), nil, name, renderer.Options{})
			if !errors.Is(err, renderer.ErrInvalidModel) {
				t.Errorf("RenderModel(nil) error = %v, want ErrInvalidModel", err)
			}
			if out != nil {
				t.Errorf("RenderModel(nil) output = %+v, want nil", out)
			}
		})
	}
}

func TestRenderDiagramAsync(t *testing.T) {
	svc := NewService(nil, nil)

	select {
	case res := <-svc.RenderDiagramAsync(context.Background(), sampleArchitecture(), renderer.StructurizrRendererName, "", renderer.Options{}):
		if res.Err != nil {
			t.Fatalf("async render error = %v", res.Err)
		}
		if !strings.Contains(res.Output.Content, "workspace") {
			t.Errorf("content = %q", res.Output.Content)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for async render")
	}
}

func TestRenderers(t *testing.T) {
	infos := NewService(nil, nil).Renderers()
	if len(infos) != 4 {
		t.Fatalf("got %d renderers, want 4", len(infos))
	}
	for _, info := range infos {
		if info.Name == "" || len(info.Formats) == 0 {
			t.Errorf("incomplete renderer info: %+v", info)
		}
	}
}

func TestInspect(t *testing.T) {
	got := NewService(nil, nil).Inspect(sampleArchitecture())

	if got.Model.UID != "arch-1" {
		t.Errorf("model uid = %q", got.Model.UID)
	}
	if got.Summary.TotalElements != 2 || got.Summary.Relationships != 1 {
		t.Errorf("summary = %+v", got.Summary)
	}
	if !got.Validation.IsValid {
		t.Errorf("validation errors: %v", got.Validation.Errors)
	}
	if got.Graph.NodeCount != 2 || got.Graph.EdgeCount != 1 {
		t.Errorf("graph = %+v", got.Graph)
	}
}

func TestInspectEmpty(t *testing.T) {
	got := NewService(nil, nil).Inspect(nil)

	if !got.Validation.IsValid {
		t.Errorf("normalized empty model should be valid: %v", got.Validation.Errors)
	}
	if len(got.Validation.Warnings) != 1 || got.Validation.Warnings[0].Code != model.CodeEmptyModel {
		t.Errorf("warnings = %v", got.Validation.Warnings)
	}
}
