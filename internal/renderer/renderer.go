// Package renderer turns an architecture model into diagram sources: vis-network
// graph data, PlantUML, Structurizr DSL and LikeC4 DSL. Renderers are looked up
// by name through a Registry, which validates the model before rendering.
package renderer

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// Options contains configuration for rendering
type Options struct {
	Format        string // renderer specific; empty selects the renderer default
	ViewType      string // PlantUML c4 view: "context", "container", "component"
	Direction     string // "TB", "LR", "BT", "RL"
	Title         string
	IncludeLabels bool
}

// Output is the result of one render call. Content is a pure function of the
// model and options; timing data lives in Metadata only.
type Output struct {
	Content      string         `json:"content"`
	Format       string         `json:"format"`
	Metadata     map[string]any `json:"metadata"`
	RendererName string         `json:"rendererName"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Renderer converts a model into one diagram format.
type Renderer interface {
	Name() string
	Description() string
	Formats() []string
	Validate(m *model.ArchitectureModel) model.ValidationResult
	Render(ctx context.Context, m *model.ArchitectureModel, opts Options) (*Output, error)
}

// Result is delivered on the channel returned by RenderAsync.
type Result struct {
	Output *Output
	Err    error
}

// AsyncRenderer is implemented by renderers that produce their output
// asynchronously. The returned channel must deliver at most one Result.
type AsyncRenderer interface {
	Renderer
	RenderAsync(ctx context.Context, m *model.ArchitectureModel, opts Options) <-chan Result
}

// Info describes a registered renderer.
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Formats     []string `json:"formats"`
}

// base holds the behaviour shared by the built-in renderers. The first entry
// of formats is the default.
type base struct {
	name        string
	description string
	formats     []string
}

func (b base) Name() string        { return b.name }
func (b base) Description() string { return b.description }

func (b base) Formats() []string {
	return slices.Clone(b.formats)
}

// Validate requires a uid and a name on the model.
func (b base) Validate(m *model.ArchitectureModel) model.ValidationResult {
	res := model.ValidationResult{IsValid: true}
	if m == nil {
		res.AddError(model.CodeInvalidModel, "architecture model is required", "")
		return res
	}
	if strings.TrimSpace(m.UID) == "" {
		res.AddError(model.CodeInvalidModel, "architecture model must have a uid", "")
	}
	if strings.TrimSpace(m.Name) == "" {
		res.AddError(model.CodeInvalidModel, "architecture model must have a name", "")
	}
	return res
}

// resolveFormat lower-cases format and falls back to the default.
func (b base) resolveFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return b.formats[0], nil
	}
	if !slices.Contains(b.formats, format) {
		return "", unsupportedFormat(b.name, format, b.formats)
	}
	return format, nil
}

// newOutput wraps content with the common metadata.
func (b base) newOutput(m *model.ArchitectureModel, content, format string, started time.Time, extra map[string]any) *Output {
	summary := model.Analyze(m)
	md := map[string]any{
		"renderId":          uuid.NewString(),
		"architectureUid":   m.UID,
		"architectureName":  m.Name,
		"elementCount":      summary.TotalElements,
		"relationshipCount": summary.Relationships,
		"renderTimeMs":      time.Since(started).Milliseconds(),
	}
	maps.Copy(md, extra)

	return &Output{
		Content:      content,
		Format:       format,
		Metadata:     md,
		RendererName: b.name,
		Timestamp:    time.Now().UTC(),
	}
}

func supportsFormat(r Renderer, format string) bool {
	return slices.Contains(r.Formats(), strings.ToLower(strings.TrimSpace(format)))
}

func titleOf(m *model.ArchitectureModel, opts Options) string {
	if opts.Title != "" {
		return opts.Title
	}
	return m.Name
}
