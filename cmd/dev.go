package cmd

import (
	"github.com/spf13/cobra"

	"github.com/benedict-erwin/detection-reporter/config"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
	"github.com/benedict-erwin/detection-reporter/server"
)

// devCmd runs the HTTP server without the overseer wrapper, for hot
// reload during development.
var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Start HTTP Server (development mode)",
	Long:  `Starts the DetectionReporter HTTP Server without zero-downtime supervision`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := server.Start(config.Get().App.Port); err != nil {
			logger.WithScope("devCmd").Error().Err(err).Msg("Failed to start server")
		}
	},
}
