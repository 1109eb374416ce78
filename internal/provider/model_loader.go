package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
	"github.com/ankek/terraform-provider-archstudio/internal/parser"
)

// errNoModelSource is returned when a config names no model at all.
var errNoModelSource = errors.New("one of model_path, model_json or architecture_uid must be provided")

// modelLoader loads architectures for the provider. Sources are tried in
// order: model_path, model_json, architecture_uid.
type modelLoader struct {
	remote parser.RemoteConfig
}

func (l modelLoader) LoadArchitecture(ctx context.Context, cfg DiagramConfig) (*model.Architecture, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	switch {
	case cfg.ModelPath != "":
		tflog.Debug(ctx, "loading architecture model file", map[string]any{"path": cfg.ModelPath})
		arch, err := parser.ParseModelFile(ctx, cfg.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load model file: %w", err)
		}
		return arch, nil

	case cfg.ModelJSON != "":
		arch, err := parser.ParseModelJSON([]byte(cfg.ModelJSON))
		if err != nil {
			return nil, fmt.Errorf("failed to parse model_json: %w", err)
		}
		return arch, nil

	case cfg.ArchitectureUID != "":
		if l.remote.BaseURL == "" {
			return nil, errors.New("architecture_uid requires api_base_url in the provider configuration")
		}
		rc := l.remote
		rc.UID = cfg.ArchitectureUID
		tflog.Debug(ctx, "fetching architecture", map[string]any{"uid": rc.UID, "base_url": rc.BaseURL})
		return parser.FetchArchitecture(ctx, rc)
	}

	return nil, errNoModelSource
}
