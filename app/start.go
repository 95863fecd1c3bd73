package app

import (
	"github.com/spf13/cobra"

	"github.com/tenantgate/tenantgate/internal/daemon"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var (
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the tenantgate web service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logCloser, err := loadConfig()
			if err != nil {
				return err
			}

			defer func() { _ = logCloser.Close() }()

			if devMode {
				cfg.DevMode = true
			}

			d, err := daemon.New(cmd.Context(), &cfg)
			if err != nil {
				return err //nolint:wrapcheck
			}

			return d.Start()
		},
	}
)
