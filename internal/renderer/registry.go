package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// Registry holds renderers keyed by name.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
	logger    *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		renderers: make(map[string]Renderer),
		logger:    logger,
	}
}

// NewDefaultRegistry returns a registry with the graph, plantuml, structurizr
// and likec4 renderers.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(NewGraphRenderer())
	r.Register(NewPlantUMLRenderer())
	r.Register(NewStructurizrRenderer())
	r.Register(NewLikeC4Renderer())
	return r
}

// Register stores a renderer under its name, replacing any earlier one.
func (r *Registry) Register(rd Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := rd.Name()
	if _, exists := r.renderers[name]; exists {
		r.logger.Warn("overwriting registered renderer", "renderer", name)
	}
	r.renderers[name] = rd
}

// Get returns the renderer registered under name.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rd, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRendererNotFound, name)
	}
	return rd, nil
}

// Names returns the registered renderer names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Infos describes every registered renderer, sorted by name.
func (r *Registry) Infos() []Info {
	names := r.Names()
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		rd, err := r.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, Info{Name: rd.Name(), Description: rd.Description(), Formats: rd.Formats()})
	}
	return infos
}

// Render validates the model with the named renderer and renders it. Each
// call is a single attempt.
func (r *Registry) Render(ctx context.Context, name string, m *model.ArchitectureModel, opts Options) (*Output, error) {
	rd, warnings, err := r.prepare(ctx, name, m, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := safeRender(ctx, rd, m, opts)
	if err != nil {
		r.logger.Error("render failed", "renderer", name, "error", err)
		return nil, &RenderError{Renderer: name, Err: err}
	}
	attachWarnings(out, warnings)

	r.logger.Debug("rendered diagram",
		"renderer", name,
		"format", out.Format,
		"bytes", len(out.Content),
		"duration", time.Since(start),
	)
	return out, nil
}

// RenderAsync is Render delivered on a channel. Exactly one Result is sent
// before the channel is closed.
func (r *Registry) RenderAsync(ctx context.Context, name string, m *model.ArchitectureModel, opts Options) <-chan Result {
	ch := make(chan Result, 1)

	rd, err := r.Get(name)
	if err != nil {
		ch <- Result{Err: err}
		close(ch)
		return ch
	}

	ar, ok := rd.(AsyncRenderer)
	if !ok {
		go func() {
			defer close(ch)
			out, err := r.Render(ctx, name, m, opts)
			ch <- Result{Output: out, Err: err}
		}()
		return ch
	}

	_, warnings, err := r.prepare(ctx, name, m, opts)
	if err != nil {
		ch <- Result{Err: err}
		close(ch)
		return ch
	}

	src := ar.RenderAsync(ctx, m, opts)
	go func() {
		defer close(ch)
		select {
		case res, ok := <-src:
			switch {
			case !ok:
				res = Result{Err: &RenderError{Renderer: name, Err: errors.New("no result produced")}}
			case res.Err != nil:
				res = Result{Err: &RenderError{Renderer: name, Err: res.Err}}
			case res.Output == nil:
				res = Result{Err: &RenderError{Renderer: name, Err: errors.New("empty output")}}
			default:
				attachWarnings(res.Output, warnings)
			}
			ch <- res
		case <-ctx.Done():
			ch <- Result{Err: ctx.Err()}
		}
	}()
	return ch
}

// prepare looks up the renderer and runs the validation and format gates.
func (r *Registry) prepare(ctx context.Context, name string, m *model.ArchitectureModel, opts Options) (Renderer, []string, error) {
	rd, err := r.Get(name)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	res := rd.Validate(m)
	if !res.IsValid {
		r.logger.Warn("model rejected by renderer validation", "renderer", name, "errors", len(res.Errors))
		return nil, nil, &ValidationError{Renderer: name, Result: res}
	}

	if opts.Format != "" && !supportsFormat(rd, opts.Format) {
		return nil, nil, unsupportedFormat(name, opts.Format, rd.Formats())
	}
	return rd, res.WarningMessages(), nil
}

func safeRender(ctx context.Context, rd Renderer, m *model.ArchitectureModel, opts Options) (out *Output, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()
	out, err = rd.Render(ctx, m, opts)
	if err == nil && out == nil {
		err = errors.New("empty output")
	}
	return out, err
}

func attachWarnings(out *Output, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	if _, ok := out.Metadata["warnings"]; !ok {
		out.Metadata["warnings"] = warnings
	}
}
