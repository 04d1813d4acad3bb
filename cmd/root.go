// Package cmd provides the command-line interface for wiredom with
// configuration loaded from .wiredom.yml files and WIREDOM_-prefixed
// environment variables. Command-line flags take the highest precedence.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wiredom/wiredom/examples/demo"
	"github.com/wiredom/wiredom/internal/config"
	"github.com/wiredom/wiredom/internal/di"
	"github.com/wiredom/wiredom/internal/logging"
	"github.com/wiredom/wiredom/pkg/wiredom"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wiredom",
	Short: "DI-backed component resolution and rendering for Go templ",
	Long: `Wiredom resolves template-facing component names through a dependency
injection container, running global and per-component middleware around
resolution, and renders the result through templ.

Quick Start:
  wiredom list                    List registered components
  wiredom render Button           Resolve and render a component
  wiredom render Banner --watch   Re-render when assets change`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	registerGlobalFlags(rootCmd.PersistentFlags())
}

func registerGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&cfgFile, "config", "", "config file (default is .wiredom.yml)")
	flags.StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
}

// loadConfig loads configuration honoring the --config and --log-level
// flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, err
	}
	if flagLevel := viper.GetString("logging.level"); flagLevel != "" {
		cfg.Logging.Level = flagLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
	})
}

// buildContainer assembles the container with the resolution core and the
// demo components.
func buildContainer(logger logging.Logger) (*di.Container, error) {
	c := di.NewContainer()
	if err := wiredom.Setup(c, wiredom.WithLogger(logger)); err != nil {
		return nil, err
	}
	if err := demo.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}
