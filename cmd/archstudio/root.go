package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ankek/terraform-provider-archstudio/internal/config"
	"github.com/ankek/terraform-provider-archstudio/internal/diagram"
	"github.com/ankek/terraform-provider-archstudio/internal/logger"
	"github.com/ankek/terraform-provider-archstudio/internal/model"
	"github.com/ankek/terraform-provider-archstudio/internal/parser"
	"github.com/ankek/terraform-provider-archstudio/internal/validation"
)

// app carries the state shared by every subcommand once the persistent
// pre-run has loaded the configuration.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *slog.Logger
	svc *diagram.Service
}

// modelFlags selects where a command loads its architecture from.
type modelFlags struct {
	path string
	uid  string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "model", "m", "", "Architecture model file (.json, .yaml, .yml, .hcl)")
	cmd.Flags().StringVar(&f.uid, "uid", "", "Fetch the architecture with this uid from the configured backend")
	cmd.MarkFlagsMutuallyExclusive("model", "uid")
	cmd.MarkFlagsOneRequired("model", "uid")
}

func newRootCmd(version string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "archstudio",
		Short: "Render enterprise architecture models as diagrams",
		Long: `archstudio turns architecture models into diagram sources.

Models are read from JSON, YAML or HCL files, or fetched from the
architecture backend, and rendered as vis-network graph data, PlantUML,
Structurizr DSL or LikeC4 DSL. PlantUML sources can be turned into SVG or
PNG images through a PlantUML server.

Configuration is read from archstudio.yaml in the working directory or
$HOME/.config/archstudio, and from ARCHSTUDIO_* environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default archstudio.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newRenderCmd(a),
		newAnalyzeCmd(a),
		newValidateCmd(a),
		newRenderersCmd(a),
		newVersionCmd(version),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath, "")
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	a.cfg = cfg
	a.log = logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	a.svc = diagram.NewService(nil, a.log)
	return nil
}

// loadModel reads the model file or fetches the architecture named by f.
func (a *app) loadModel(ctx context.Context, f modelFlags) (*model.Architecture, error) {
	if f.uid != "" {
		if a.cfg.API.BaseURL == "" {
			return nil, errors.New("--uid requires api.baseUrl in the configuration")
		}
		a.log.Debug("fetching architecture", "uid", f.uid, "baseUrl", a.cfg.API.BaseURL)
		return parser.FetchArchitecture(ctx, parser.RemoteConfig{
			BaseURL: a.cfg.API.BaseURL,
			UID:     f.uid,
			Token:   a.cfg.API.Token,
		})
	}

	if err := validation.ValidateModelPath(f.path); err != nil {
		return nil, fmt.Errorf("invalid model path: %w", err)
	}
	a.log.Debug("loading model file", "path", f.path)
	return parser.ParseModelFile(ctx, f.path)
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the archstudio version",
		Args:  cobra.NoArgs,
		// Skip config loading
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "archstudio %s\n", version)
		},
	}
}
