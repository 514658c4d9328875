package cmd

import (
	"github.com/benedict-erwin/detection-reporter/config"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
	"github.com/benedict-erwin/detection-reporter/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP Server",
	Long:  `Starts the DetectionReporter HTTP Server`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := server.Start(config.Get().App.Port); err != nil {
			logger.WithScope("serveCmd").Error().Err(err).Msg("Failed to start server")
		}
	},
}
