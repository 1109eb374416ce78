// Package diagram is the entry point used by the CLI and the Terraform
// provider: it normalizes raw architecture payloads and hands them to the
// renderer registry.
package diagram

import (
	"context"
	"log/slog"
	"time"

	"github.com/ankek/terraform-provider-archstudio/internal/graph"
	"github.com/ankek/terraform-provider-archstudio/internal/model"
	"github.com/ankek/terraform-provider-archstudio/internal/renderer"
)

// Service renders architectures through a renderer registry.
type Service struct {
	registry *renderer.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wraps registry. A nil registry gets the default renderers and
// a nil logger discards output.
func NewService(registry *renderer.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if registry == nil {
		registry = renderer.NewDefaultRegistry(logger)
	}
	return &Service{registry: registry, logger: logger, now: time.Now}
}

// RenderDiagram normalizes arch and renders it with the named renderer. A
// non-empty format overrides opts.Format.
func (s *Service) RenderDiagram(ctx context.Context, arch *model.Architecture, rendererName, format string, opts renderer.Options) (*renderer.Output, error) {
	if format != "" {
		opts.Format = format
	}
	return s.RenderModel(ctx, model.Normalize(arch, s.now()), rendererName, opts)
}

// RenderModel renders an already normalized model. A nil model fails the
// registry's validation gate with renderer.ErrInvalidModel.
func (s *Service) RenderModel(ctx context.Context, m *model.ArchitectureModel, rendererName string, opts renderer.Options) (*renderer.Output, error) {
	log := s.logger.With("renderer", rendererName, "format", opts.Format)
	if m != nil {
		log = log.With("architecture", m.UID)
	}
	log.Debug("rendering diagram")
	return s.registry.Render(ctx, rendererName, m, opts)
}

// RenderDiagramAsync is RenderDiagram delivered on a channel.
func (s *Service) RenderDiagramAsync(ctx context.Context, arch *model.Architecture, rendererName, format string, opts renderer.Options) <-chan renderer.Result {
	if format != "" {
		opts.Format = format
	}
	return s.registry.RenderAsync(ctx, rendererName, model.Normalize(arch, s.now()), opts)
}

// Renderers describes the registered renderers.
func (s *Service) Renderers() []renderer.Info {
	return s.registry.Infos()
}

// Inspection is the result of Inspect.
type Inspection struct {
	Model      *model.ArchitectureModel `json:"-"`
	Summary    model.Summary            `json:"summary"`
	Validation model.ValidationResult   `json:"validation"`
	Graph      graph.Analysis           `json:"graph"`
}

// Inspect normalizes arch and reports its element counts, validation result
// and graph statistics.
func (s *Service) Inspect(arch *model.Architecture) Inspection {
	m := model.Normalize(arch, s.now())
	return Inspection{
		Model:      m,
		Summary:    model.Analyze(m),
		Validation: model.Validate(m),
		Graph:      graph.Analyze(graph.BuildGraph(m)),
	}
}
