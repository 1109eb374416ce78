// Package config loads the archstudio CLI configuration from
// archstudio.yaml and ARCHSTUDIO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ankek/terraform-provider-archstudio/internal/plantuml"
)

// EnvPrefix prefixes every environment override, e.g. ARCHSTUDIO_API_TOKEN.
const EnvPrefix = "ARCHSTUDIO"

// Config is the complete CLI configuration.
type Config struct {
	Render   RenderConfig   `mapstructure:"render"`
	PlantUML PlantUMLConfig `mapstructure:"plantuml"`
	API      APIConfig      `mapstructure:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// RenderConfig holds the defaults for render commands.
type RenderConfig struct {
	Renderer  string `mapstructure:"renderer"`
	Format    string `mapstructure:"format"`
	Direction string `mapstructure:"direction"`
}

// PlantUMLConfig points at the PlantUML server.
type PlantUMLConfig struct {
	ServerURL string        `mapstructure:"serverUrl"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
	CacheSize int           `mapstructure:"cacheSize"`
}

// APIConfig points at the architecture backend.
type APIConfig struct {
	BaseURL string `mapstructure:"baseUrl"`
	Token   string `mapstructure:"token"`
}

// LoggingConfig selects the log level and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			Renderer:  "graph",
			Direction: "TB",
		},
		PlantUML: PlantUMLConfig{
			ServerURL: plantuml.DefaultServerURL,
			Timeout:   plantuml.DefaultTimeout,
			Retries:   plantuml.DefaultRetries,
			CacheSize: plantuml.DefaultCacheSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads path, or archstudio.yaml from dir (then
// $HOME/.config/archstudio) when path is empty.
// A missing default file is not an error; a missing explicit file is.
func LoadConfig(path, dir string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("render.renderer", def.Render.Renderer)
	v.SetDefault("render.format", def.Render.Format)
	v.SetDefault("render.direction", def.Render.Direction)
	v.SetDefault("plantuml.serverUrl", def.PlantUML.ServerURL)
	v.SetDefault("plantuml.timeout", def.PlantUML.Timeout)
	v.SetDefault("plantuml.retries", def.PlantUML.Retries)
	v.SetDefault("plantuml.cacheSize", def.PlantUML.CacheSize)
	v.SetDefault("api.baseUrl", "")
	v.SetDefault("api.token", "")
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)

	// Enable environment variable overrides: plantuml.serverUrl becomes
	// ARCHSTUDIO_PLANTUML_SERVERURL
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		if dir == "" {
			dir = "."
		}
		v.SetConfigName("archstudio")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Clean(dir))
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "archstudio"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.PlantUML.Timeout <= 0 {
		return &ConfigError{Field: "plantuml.timeout", Message: "must be positive"}
	}
	if c.PlantUML.Retries < 0 {
		return &ConfigError{Field: "plantuml.retries", Message: "must not be negative"}
	}
	switch strings.ToUpper(c.Render.Direction) {
	case "", "TB", "BT", "LR", "RL":
	default:
		return &ConfigError{Field: "render.direction", Message: fmt.Sprintf("unknown direction %q", c.Render.Direction)}
	}
	return nil
}

// PlantUMLClientConfig converts the PlantUML section into a client config.
func (c *Config) PlantUMLClientConfig() plantuml.Config {
	retries := c.PlantUML.Retries
	if retries == 0 {
		retries = -1
	}
	return plantuml.Config{
		ServerURL: c.PlantUML.ServerURL,
		Timeout:   c.PlantUML.Timeout,
		RetryMax:  retries,
		CacheSize: c.PlantUML.CacheSize,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
