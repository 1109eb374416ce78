package renderer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// stubRenderer renders a fixed string, or panics when asked to.
type stubRenderer struct {
	base
	content string
	panics  bool
	err     error
}

func newStub(name string) *stubRenderer {
	return &stubRenderer{
		base:    base{name: name, description: "stub " + name, formats: []string{"txt", "md"}},
		content: "rendered by " + name,
	}
}

func (s *stubRenderer) Render(ctx context.Context, m *model.ArchitectureModel, opts Options) (*Output, error) {
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return nil, s.err
	}
	format, err := s.resolveFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	return s.newOutput(m, s.content, format, time.Now(), nil), nil
}

// asyncStub delivers its result on a channel.
type asyncStub struct {
	*stubRenderer
	result chan Result
}

func (a *asyncStub) RenderAsync(ctx context.Context, m *model.ArchitectureModel, opts Options) <-chan Result {
	return a.result
}

func validModel() *model.ArchitectureModel {
	return &model.ArchitectureModel{UID: "m-1", Name: "Model"}
}

func TestNewDefaultRegistry(t *testing.T) {
	reg := NewDefaultRegistry(nil)

	want := []string{GraphRendererName, LikeC4RendererName, PlantUMLRendererName, StructurizrRendererName}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	infos := reg.Infos()
	if len(infos) != 4 {
		t.Fatalf("Infos() = %d entries, want 4", len(infos))
	}
	if diff := cmp.Diff([]string{FormatJSON, FormatVis, FormatSVG, FormatPNG}, infos[0].Formats); diff != "" {
		t.Errorf("graph formats mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryRegisterOverwrites(t *testing.T) {
	reg := NewRegistry(nil)
	first := newStub("stub")
	second := newStub("stub")
	second.content = "second"

	reg.Register(first)
	reg.Register(second)

	if got := reg.Names(); len(got) != 1 {
		t.Fatalf("Names() = %v, want one entry", got)
	}
	out, err := reg.Render(context.Background(), "stub", validModel(), Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out.Content != "second" {
		t.Errorf("Content = %q, want the later registration", out.Content)
	}
}

func TestRegistryRender(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(newStub("stub"))

	out, err := reg.Render(context.Background(), "stub", validModel(), Options{Format: "MD"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out.Format != "md" || out.RendererName != "stub" {
		t.Errorf("output = %s/%s, want stub/md", out.RendererName, out.Format)
	}
	for _, key := range []string{"renderId", "architectureUid", "architectureName", "elementCount", "relationshipCount", "renderTimeMs"} {
		if _, ok := out.Metadata[key]; !ok {
			t.Errorf("metadata missing %q", key)
		}
	}
	if out.Metadata["architectureUid"] != "m-1" {
		t.Errorf("architectureUid = %v", out.Metadata["architectureUid"])
	}
	if out.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestRegistryRenderErrors(t *testing.T) {
	panicky := newStub("panicky")
	panicky.panics = true
	failing := newStub("failing")
	failing.err = errors.New("disk full")

	reg := NewRegistry(nil)
	reg.Register(newStub("stub"))
	reg.Register(panicky)
	reg.Register(failing)

	tests := []struct {
		name     string
		renderer string
		model    *model.ArchitectureModel
		opts     Options
		check    func(t *testing.T, err error)
	}{
		{
			name:     "unknown renderer",
			renderer: "mermaid",
			model:    validModel(),
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrRendererNotFound) {
					t.Errorf("error = %v, want ErrRendererNotFound", err)
				}
			},
		},
		{
			name:     "missing uid and name",
			renderer: "stub",
			model:    &model.ArchitectureModel{},
			check: func(t *testing.T, err error) {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("error = %T, want *ValidationError", err)
				}
				if !errors.Is(err, ErrInvalidModel) {
					t.Error("ValidationError should wrap ErrInvalidModel")
				}
				want := "validation failed for renderer stub: architecture model must have a uid; architecture model must have a name"
				if err.Error() != want {
					t.Errorf("Error() = %q, want %q", err.Error(), want)
				}
			},
		},
		{
			name:     "nil model",
			renderer: "stub",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrInvalidModel) {
					t.Errorf("error = %v, want ErrInvalidModel", err)
				}
			},
		},
		{
			name:     "unsupported format",
			renderer: "stub",
			model:    validModel(),
			opts:     Options{Format: "pdf"},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("error = %v, want ErrUnsupportedFormat", err)
				}
				if !strings.Contains(err.Error(), "txt, md") {
					t.Errorf("error should list supported formats: %v", err)
				}
			},
		},
		{
			name:     "renderer panics",
			renderer: "panicky",
			model:    validModel(),
			check: func(t *testing.T, err error) {
				var rerr *RenderError
				if !errors.As(err, &rerr) || rerr.Renderer != "panicky" {
					t.Fatalf("error = %v, want RenderError from panicky", err)
				}
				if !strings.Contains(err.Error(), "panic: boom") {
					t.Errorf("error = %v", err)
				}
			},
		},
		{
			name:     "renderer fails",
			renderer: "failing",
			model:    validModel(),
			check: func(t *testing.T, err error) {
				var rerr *RenderError
				if !errors.As(err, &rerr) {
					t.Fatalf("error = %T, want *RenderError", err)
				}
				if rerr.Err.Error() != "disk full" {
					t.Errorf("wrapped error = %v", rerr.Err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := reg.Render(context.Background(), tt.renderer, tt.model, tt.opts)
			if err == nil {
				t.Fatalf("Render() = %v, want error", out)
			}
			tt.check(t, err)
		})
	}
}

func TestRegistryAttachesWarnings(t *testing.T) {
	reg := NewDefaultRegistry(nil)
	m := &model.ArchitectureModel{
		UID:  "m",
		Name: "M",
		BusinessLayer: &model.BusinessLayer{
			Actors: []model.BusinessActor{{Element: model.Element{UID: "a", Name: "A"}}},
		},
	}

	out, err := reg.Render(context.Background(), LikeC4RendererName, m, Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	warnings, ok := out.Metadata["warnings"].([]string)
	if !ok || len(warnings) != 1 || !strings.Contains(warnings[0], "no description") {
		t.Errorf("warnings = %v", out.Metadata["warnings"])
	}

	out, err = reg.Render(context.Background(), GraphRendererName, m, Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if _, ok := out.Metadata["warnings"]; ok {
		t.Error("graph renderer reports no warnings")
	}
}

func receive(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res, ok := <-ch:
		if !ok {
			t.Fatal("channel closed without a result")
		}
		if _, more := <-ch; more {
			t.Error("channel delivered more than one result")
		}
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}
	return Result{}
}

func TestRegistryRenderAsync(t *testing.T) {
	ctx := context.Background()

	t.Run("sync renderer", func(t *testing.T) {
		reg := NewRegistry(nil)
		reg.Register(newStub("stub"))

		res := receive(t, reg.RenderAsync(ctx, "stub", validModel(), Options{}))
		if res.Err != nil {
			t.Fatalf("Err = %v", res.Err)
		}
		if res.Output.Content != "rendered by stub" {
			t.Errorf("Content = %q", res.Output.Content)
		}
	})

	t.Run("unknown renderer", func(t *testing.T) {
		res := receive(t, NewRegistry(nil).RenderAsync(ctx, "nope", validModel(), Options{}))
		if !errors.Is(res.Err, ErrRendererNotFound) {
			t.Errorf("Err = %v, want ErrRendererNotFound", res.Err)
		}
	})

	t.Run("async renderer", func(t *testing.T) {
		stub := newStub("async")
		a := &asyncStub{stubRenderer: stub, result: make(chan Result, 1)}
		a.result <- Result{Output: &Output{Content: "later", Format: "txt", RendererName: "async"}}
		close(a.result)

		reg := NewRegistry(nil)
		reg.Register(a)

		res := receive(t, reg.RenderAsync(ctx, "async", validModel(), Options{}))
		if res.Err != nil || res.Output.Content != "later" {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("async renderer validation gate", func(t *testing.T) {
		a := &asyncStub{stubRenderer: newStub("async"), result: make(chan Result)}
		reg := NewRegistry(nil)
		reg.Register(a)

		res := receive(t, reg.RenderAsync(ctx, "async", &model.ArchitectureModel{}, Options{}))
		if !errors.Is(res.Err, ErrInvalidModel) {
			t.Errorf("Err = %v, want ErrInvalidModel", res.Err)
		}
	})

	t.Run("async renderer error", func(t *testing.T) {
		a := &asyncStub{stubRenderer: newStub("async"), result: make(chan Result, 1)}
		a.result <- Result{Err: errors.New("remote down")}

		reg := NewRegistry(nil)
		reg.Register(a)

		res := receive(t, reg.RenderAsync(ctx, "async", validModel(), Options{}))
		var rerr *RenderError
		if !errors.As(res.Err, &rerr) || rerr.Err.Error() != "remote down" {
			t.Errorf("Err = %v, want RenderError wrapping remote down", res.Err)
		}
	})

	t.Run("async renderer closes without result", func(t *testing.T) {
		a := &asyncStub{stubRenderer: newStub("async"), result: make(chan Result)}
		close(a.result)

		reg := NewRegistry(nil)
		reg.Register(a)

		res := receive(t, reg.RenderAsync(ctx, "async", validModel(), Options{}))
		var rerr *RenderError
		if !errors.As(res.Err, &rerr) {
			t.Errorf("Err = %v, want RenderError", res.Err)
		}
	})

	t.Run("context cancelled while waiting", func(t *testing.T) {
		a := &asyncStub{stubRenderer: newStub("async"), result: make(chan Result)}
		reg := NewRegistry(nil)
		reg.Register(a)

		cctx, cancel := context.WithCancel(ctx)
		ch := reg.RenderAsync(cctx, "async", validModel(), Options{})
		cancel()

		res := receive(t, ch)
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("Err = %v, want context.Canceled", res.Err)
		}
	})
}

func TestRegistryOmitsNestedRelationships(t *testing.T) {
	m := &model.ArchitectureModel{
		UID:  "m",
		Name: "M",
		BusinessLayer: &model.BusinessLayer{
			Actors: []model.BusinessActor{{Element: el("user-1", "User", "End user")}},
		},
		ApplicationLayer: &model.ApplicationLayer{
			Applications: []model.Application{{Element: el("app-1", "App", "Main app")}},
			Components:   []model.ApplicationComponent{{Element: el("cmp-1", "Cmp", "Backend")}},
		},
		Relationships: []model.Relationship{
			{UID: "r1", Source: model.Ref("app-1"), Target: model.Ref("cmp-1"), RelationshipType: model.RelationshipComposition},
			{UID: "r2", Source: model.Ref("user-1"), Target: model.Ref("app-1"), RelationshipType: model.RelationshipServing},
		},
	}
	reg := NewDefaultRegistry(nil)

	tests := []struct {
		renderer string
		omitted  []string
		kept     string
	}{
		{StructurizrRendererName, []string{"app_1 -> cmp_1"}, "user_1 -> app_1"},
		{LikeC4RendererName, []string{"app_1 -[composition]-> app_1.cmp_1", "-> app_1.cmp_1"}, "user_1 -[serving]-> app_1"},
	}

	for _, tt := range tests {
		t.Run(tt.renderer, func(t *testing.T) {
			out, err := reg.Render(context.Background(), tt.renderer, m, Options{})
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, s := range tt.omitted {
				if strings.Contains(out.Content, s) {
					t.Errorf("output contains nested relationship %q\n%s", s, out.Content)
				}
			}
			if !strings.Contains(out.Content, tt.kept) {
				t.Errorf("output missing %q\n%s", tt.kept, out.Content)
			}

			warnings, _ := out.Metadata["warnings"].([]string)
			if len(warnings) != 1 || !strings.Contains(warnings[0], "app-1 to cmp-1") {
				t.Errorf("warnings = %v, want one nested relationship warning", warnings)
			}
		})
	}

	// The flat PlantUML view has no nesting constraint
	out, err := reg.Render(context.Background(), StructurizrRendererName, m, Options{Format: FormatPlantUML})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out.Content, "app_1, cmp_1") {
		t.Errorf("PlantUML output should keep the relationship\n%s", out.Content)
	}
}

func TestNestedWithin(t *testing.T) {
	parents := map[string]string{"cmp": "app", "if": "cmp", "loop_a": "loop_b", "loop_b": "loop_a"}

	tests := []struct {
		a, b string
		want bool
	}{
		{"app", "cmp", true},
		{"cmp", "app", true},
		{"app", "if", true},
		{"app", "app", false},
		{"cmp", "other", false},
		{"loop_a", "x", false},
	}
	for _, tt := range tests {
		if got := nestedWithin(parents, tt.a, tt.b); got != tt.want {
			t.Errorf("nestedWithin(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
