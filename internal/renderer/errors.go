package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

var (
	// ErrRendererNotFound is returned for an unknown renderer name.
	ErrRendererNotFound = errors.New("renderer not found")
	// ErrUnsupportedFormat is returned when a renderer does not offer the
	// requested format.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrInvalidModel is wrapped by ValidationError.
	ErrInvalidModel = errors.New("invalid architecture model")
)

// ValidationError reports a model rejected by a renderer's validation gate.
type ValidationError struct {
	Renderer string
	Result   model.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for renderer %s: %s", e.Renderer, e.Result.ErrorMessages("; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidModel }

// RenderError labels a failure raised while a renderer was running.
type RenderError struct {
	Renderer string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("renderer %s failed: %v", e.Renderer, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func unsupportedFormat(renderer, format string, formats []string) error {
	return fmt.Errorf("%w: %s supports %s, got %q", ErrUnsupportedFormat, renderer, strings.Join(formats, ", "), format)
}
