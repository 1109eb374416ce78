// Package provider implements the Terraform provider for archstudio diagrams.
// It provides resource and data source implementations that render
// architecture models loaded from files, inline JSON or the architecture
// backend.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ankek/terraform-provider-archstudio/internal/diagram"
	"github.com/ankek/terraform-provider-archstudio/internal/interfaces"
	"github.com/ankek/terraform-provider-archstudio/internal/logger"
	"github.com/ankek/terraform-provider-archstudio/internal/renderer"
	"github.com/ankek/terraform-provider-archstudio/internal/validation"
)

type (
	DiagramConfig  = interfaces.DiagramConfig
	GenerateResult = interfaces.GenerateResult
)

var _ interfaces.DiagramGenerator = &DiagramGenerator{}

// DiagramGenerator handles the core logic of generating diagrams.
// It is shared between the resource and data source implementations.
type DiagramGenerator struct {
	loader   interfaces.ArchitectureLoader
	renderer interfaces.DiagramRenderer
	images   interfaces.ImageRenderer
	paths    interfaces.PathValidator
}

// newGenerator wires a generator for one request. The service logs through
// tflog with ctx.
func newGenerator(ctx context.Context, pd *providerData) *DiagramGenerator {
	return &DiagramGenerator{
		loader:   modelLoader{remote: pd.remote},
		renderer: diagram.NewService(nil, logger.ForTerraform(ctx)),
		images:   pd.images,
		paths:    validation.Paths{},
	}
}

// Generate renders a diagram and, when cfg.OutputPath is set, writes it.
//
// It performs the following steps:
//  1. Validates model and output paths
//  2. Loads the architecture from a file, inline JSON or the backend
//  3. Renders it with the selected renderer
//  4. Writes the diagram source, or an image fetched from the PlantUML server
func (g *DiagramGenerator) Generate(ctx context.Context, cfg DiagramConfig) (*GenerateResult, error) {
	if cfg.OutputPath != "" {
		if err := g.paths.ValidateOutputPath(cfg.OutputPath); err != nil {
			return nil, fmt.Errorf("invalid output path: %w", err)
		}
	}
	if cfg.ModelPath != "" {
		if err := g.paths.ValidateModelPath(cfg.ModelPath); err != nil {
			return nil, fmt.Errorf("invalid model path: %w", err)
		}
	}

	arch, err := g.loader.LoadArchitecture(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rendererName := cfg.Renderer
	if rendererName == "" {
		rendererName = renderer.GraphRendererName
	}
	out, err := g.renderer.RenderDiagram(ctx, arch, rendererName, cfg.Format, renderer.Options{
		ViewType:      cfg.ViewType,
		Direction:     cfg.Direction,
		Title:         cfg.Title,
		IncludeLabels: cfg.IncludeLabels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render diagram: %w", err)
	}

	result := &GenerateResult{
		Output:            out,
		ElementCount:      metadataInt(out.Metadata, "elementCount"),
		RelationshipCount: metadataInt(out.Metadata, "relationshipCount"),
		Warnings:          metadataStrings(out.Metadata, "warnings"),
	}

	if cfg.OutputPath == "" {
		return result, nil
	}
	if err := g.write(ctx, cfg, out); err != nil {
		return nil, err
	}
	result.OutputPath = cfg.OutputPath
	return result, nil
}

func (g *DiagramGenerator) write(ctx context.Context, cfg DiagramConfig, out *renderer.Output) error {
	if cfg.ImageFormat == "" {
		if err := renderer.ExportOutput(ctx, out, cfg.OutputPath); err != nil {
			return fmt.Errorf("failed to write diagram: %w", err)
		}
		return nil
	}

	if !isPlantUMLSource(out) {
		return fmt.Errorf("image_format requires PlantUML output, got %s/%s", out.RendererName, out.Format)
	}
	res := g.images.Render(ctx, out.Content, cfg.ImageFormat)
	if !res.Success {
		return errors.New("failed to render image: " + res.Error)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(cfg.OutputPath, res.Data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// isPlantUMLSource reports whether out holds text a PlantUML server accepts.
func isPlantUMLSource(out *renderer.Output) bool {
	switch out.RendererName {
	case renderer.PlantUMLRendererName:
		return true
	case renderer.StructurizrRendererName:
		return out.Format == renderer.FormatPlantUML
	}
	return strings.HasPrefix(strings.TrimSpace(out.Content), "@startuml")
}

func metadataInt(md map[string]any, key string) int64 {
	switch v := md[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func metadataStrings(md map[string]any, key string) []string {
	if v, ok := md[key].([]string); ok {
		return v
	}
	return nil
}
