// Package interfaces defines interfaces for dependency injection and testing
package interfaces

import (
	"context"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
	"github.com/ankek/terraform-provider-archstudio/internal/plantuml"
	"github.com/ankek/terraform-provider-archstudio/internal/renderer"
)

// ArchitectureLoader resolves the model source named in a DiagramConfig
type ArchitectureLoader interface {
	// LoadArchitecture reads a model file, inline JSON or a remote architecture
	LoadArchitecture(ctx context.Context, cfg DiagramConfig) (*model.Architecture, error)
}

// DiagramRenderer defines the interface for rendering diagrams
type DiagramRenderer interface {
	// RenderDiagram normalizes arch and renders it with the named renderer
	RenderDiagram(ctx context.Context, arch *model.Architecture, rendererName, format string, opts renderer.Options) (*renderer.Output, error)
}

// ImageRenderer turns PlantUML source into an image
type ImageRenderer interface {
	Render(ctx context.Context, source, format string) plantuml.Result
}

// PathValidator defines the interface for validating file paths
type PathValidator interface {
	// ValidateOutputPath validates an output path for security and accessibility
	ValidateOutputPath(path string) error

	// ValidateModelPath validates a model file path
	ValidateModelPath(path string) error
}

// DiagramGenerator defines the interface for generating diagrams
type DiagramGenerator interface {
	// Generate renders a diagram from a model and optionally writes it to disk
	Generate(ctx context.Context, cfg DiagramConfig) (*GenerateResult, error)
}

// DiagramConfig contains all configuration needed to generate a diagram.
// Exactly one of ModelPath, ModelJSON and ArchitectureUID is expected.
type DiagramConfig struct {
	ModelPath       string
	ModelJSON       string
	ArchitectureUID string

	Renderer      string
	Format        string
	ViewType      string
	Direction     string
	Title         string
	IncludeLabels bool

	// OutputPath is optional; ImageFormat asks the PlantUML server for an
	// svg or png instead of writing the diagram source.
	OutputPath  string
	ImageFormat string
}

// GenerateResult contains the results of diagram generation
type GenerateResult struct {
	Output            *renderer.Output
	ElementCount      int64
	RelationshipCount int64
	Warnings          []string
	OutputPath        string
}
