// Package app implements the main application commands.
package app

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tenantgate",
	Short: "tenantgate resolves API requests to users and their organizations",
	Long: `tenantgate authenticates API keys, self-issued tokens and identity provider
tokens, binds the caller to an organization and provisions default service
configurations for new organizations.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var (
	configPath string // Path to the configuration directory
	cfg        config.Config
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/",
		"directory containing main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration and initializes the logger from it.
func loadConfig() (io.Closer, error) {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return logger.Init(cfg.Log) //nolint:wrapcheck
}
