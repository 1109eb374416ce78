// Package parser loads architecture payloads from JSON, YAML and HCL model
// files and from the architecture backend.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// ErrUnsupportedFile is returned for model files with an unknown extension.
var ErrUnsupportedFile = errors.New("unsupported model file")

// ParseModelFile reads a model file, picking the decoder by extension:
// .json, .yaml/.yml or .hcl.
func ParseModelFile(ctx context.Context, path string) (*model.Architecture, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var arch *model.Architecture
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		arch, err = ParseModelJSON(data)
	case ".yaml", ".yml":
		arch, err = ParseModelYAML(data)
	case ".hcl":
		arch, err = ParseModelHCL(data, filepath.Base(path))
	default:
		return nil, fmt.Errorf("%w: %s (expected .json, .yaml, .yml or .hcl)", ErrUnsupportedFile, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return arch, nil
}

// ParseModelJSON decodes a JSON architecture payload.
func ParseModelJSON(data []byte) (*model.Architecture, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("model is empty")
	}
	var arch model.Architecture
	if err := json.Unmarshal(data, &arch); err != nil {
		return nil, fmt.Errorf("invalid model JSON: %w", err)
	}
	return &arch, nil
}

// ParseModelYAML decodes a YAML architecture payload. Keys match the JSON
// field names.
func ParseModelYAML(data []byte) (*model.Architecture, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("model is empty")
	}
	var arch model.Architecture
	if err := yaml.Unmarshal(data, &arch); err != nil {
		return nil, fmt.Errorf("invalid model YAML: %w", err)
	}
	return &arch, nil
}
