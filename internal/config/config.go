// Package config provides configuration management for wiredom tooling using
// Viper for flexible loading from files and environment variables.
//
// The configuration system supports YAML files, environment variable
// overrides with the WIREDOM_ prefix, validation, and change watching. It
// covers logging, asset collection paths, and render behavior for the CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Assets  AssetsConfig  `yaml:"assets"`
	Render  RenderConfig  `yaml:"render"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AssetsConfig struct {
	// Paths are the directories watched for asset changes in watch mode.
	Paths []string `yaml:"paths"`
	// Extensions limits which files count as assets. Empty means all.
	Extensions []string `yaml:"extensions"`
}

type RenderConfig struct {
	// Timeout bounds a single render in watch mode. Zero disables it.
	Timeout time.Duration `yaml:"timeout"`
	// Watch re-renders on asset changes.
	Watch bool `yaml:"watch"`
}

// Loader loads and watches configuration through a dedicated viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a config loader. path optionally names an explicit
// config file; when empty, .wiredom.yml in the working directory is used if
// present.
func NewLoader(path string) *Loader {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".wiredom")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("WIREDOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("render.timeout", "30s")

	return &Loader{v: v}
}

// Load reads and validates the configuration. A missing config file is not
// an error; defaults and environment variables apply.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch re-reads the config file on change and invokes onChange with the
// filesystem event and the freshly-loaded config. Invalid updated configs
// are reported through onErr and the previous config stays in effect.
func (l *Loader) Watch(onChange func(fsnotify.Event, *Config), onErr func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.Load()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		onChange(e, cfg)
	})
	l.v.WatchConfig()
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q (want debug, info, warn or error)", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid logging.format %q (want text or json)", c.Logging.Format)
	}

	if c.Render.Timeout < 0 {
		return fmt.Errorf("render.timeout must not be negative")
	}

	for _, ext := range c.Assets.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("assets.extensions entries must start with a dot, got %q", ext)
		}
	}

	return nil
}
