package renderer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ankek/terraform-provider-archstudio/internal/graph"
)

// Preview node geometry
const (
	previewNodeWidth         = 200.0
	previewNodeHeight        = 90.0
	previewHorizontalSpacing = 80.0
	previewVerticalSpacing   = 100.0
)

// renderPreview lays out the graph and draws it as SVG or PNG.
func renderPreview(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	layout := CalculateLayout(g, opts.Direction, previewNodeWidth, previewNodeHeight, previewHorizontalSpacing, previewVerticalSpacing)

	switch strings.ToLower(format) {
	case FormatSVG:
		data, err := NewSVGRenderer(opts).Render(layout)
		if err != nil {
			return nil, fmt.Errorf("failed to generate SVG: %w", err)
		}
		return data, nil
	case FormatPNG:
		data, err := NewPNGRenderer(opts).Render(layout)
		if err != nil {
			return nil, fmt.Errorf("failed to generate PNG: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: preview format %q", ErrUnsupportedFormat, format)
	}
}

// Bytes returns the raw output bytes, decoding base64 content.
func (o *Output) Bytes() ([]byte, error) {
	if enc, _ := o.Metadata["encoding"].(string); enc == "base64" {
		data, err := base64.StdEncoding.DecodeString(o.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s output: %w", o.Format, err)
		}
		return data, nil
	}
	return []byte(o.Content), nil
}

// ExportOutput writes the output to outputPath, creating parent directories.
func ExportOutput(ctx context.Context, out *Output, outputPath string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := out.Bytes()
	if err != nil {
		return err
	}
	return writeFile(outputPath, data)
}
