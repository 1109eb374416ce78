package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ankek/terraform-provider-archstudio/internal/plantuml"
	"github.com/ankek/terraform-provider-archstudio/internal/renderer"
	"github.com/ankek/terraform-provider-archstudio/internal/validation"
)

type renderFlags struct {
	model     modelFlags
	renderer  string
	format    string
	view      string
	direction string
	title     string
	out       string
	image     string
}

func newRenderCmd(a *app) *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render an architecture model with one of the registered renderers",
		Long: `Render an architecture model.

Examples:
  archstudio render -m shop.yaml
  archstudio render -m shop.hcl --renderer plantuml --format c4 --view container
  archstudio render -m shop.json --renderer structurizr --out workspace.dsl
  archstudio render -m shop.json --renderer plantuml --image svg --out shop.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, f)
		},
	}

	f.model.register(cmd)
	cmd.Flags().StringVarP(&f.renderer, "renderer", "r", "", "Renderer: graph, plantuml, structurizr, likec4 (default from config)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Renderer specific format (default from config, then the renderer default)")
	cmd.Flags().StringVar(&f.view, "view", "", "PlantUML c4 view: context, container, component")
	cmd.Flags().StringVar(&f.direction, "direction", "", "Layout direction: TB, LR, BT, RL (default from config)")
	cmd.Flags().StringVar(&f.title, "title", "", "Diagram title (default architecture name)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Write the output to this file instead of stdout")
	cmd.Flags().StringVar(&f.image, "image", "", "Render PlantUML output to an image via the PlantUML server: svg, png")
	return cmd
}

func (a *app) runRender(cmd *cobra.Command, f renderFlags) error {
	ctx := cmd.Context()

	if f.out != "" {
		if err := validation.ValidateOutputPath(f.out); err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
	}

	arch, err := a.loadModel(ctx, f.model)
	if err != nil {
		return err
	}

	name := firstNonEmpty(f.renderer, a.cfg.Render.Renderer, renderer.GraphRendererName)
	format := f.format
	if format == "" && name == a.cfg.Render.Renderer {
		format = a.cfg.Render.Format
	}

	out, err := a.svc.RenderDiagram(ctx, arch, name, format, renderer.Options{
		ViewType:      f.view,
		Direction:     firstNonEmpty(f.direction, a.cfg.Render.Direction),
		Title:         f.title,
		IncludeLabels: true,
	})
	if err != nil {
		return err
	}
	for _, w := range warningsOf(out) {
		a.log.Warn("model warning", "renderer", name, "warning", w)
	}

	data, err := a.outputBytes(cmd, out, f.image)
	if err != nil {
		return err
	}

	if f.out == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(f.out, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	a.log.Info("diagram written", "path", f.out, "renderer", out.RendererName, "format", out.Format, "bytes", len(data))
	return nil
}

// outputBytes returns the rendered diagram, or the image the PlantUML server
// made from it when image is set.
func (a *app) outputBytes(cmd *cobra.Command, out *renderer.Output, image string) ([]byte, error) {
	if image == "" {
		return out.Bytes()
	}

	if !isPlantUML(out) {
		return nil, fmt.Errorf("--image requires PlantUML output, got %s/%s", out.RendererName, out.Format)
	}
	cfg := a.cfg.PlantUMLClientConfig()
	cfg.Logger = a.log
	client, err := plantuml.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	res := client.Render(cmd.Context(), out.Content, image)
	if !res.Success {
		return nil, errors.New(res.Error)
	}
	return res.Data, nil
}

func isPlantUML(out *renderer.Output) bool {
	return out.RendererName == renderer.PlantUMLRendererName ||
		(out.RendererName == renderer.StructurizrRendererName && out.Format == renderer.FormatPlantUML)
}

func warningsOf(out *renderer.Output) []string {
	w, _ := out.Metadata["warnings"].([]string)
	return w
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
