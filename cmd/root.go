package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/benedict-erwin/detection-reporter/config"
	"github.com/benedict-erwin/detection-reporter/internal/session"
	asynqPkg "github.com/benedict-erwin/detection-reporter/pkg/asynq"
	"github.com/benedict-erwin/detection-reporter/pkg/auth"
	"github.com/benedict-erwin/detection-reporter/pkg/geoip"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
	"github.com/benedict-erwin/detection-reporter/pkg/redis"
	"github.com/benedict-erwin/detection-reporter/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "detection-reporter",
	Short: "DetectionReporter HTTP Service",
	Long:  `DetectionReporter pivot, chart and export service for endpoint-detection data`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Failed to execute command")
		os.Exit(1)
	}
}

// init initializes all application dependencies and registers commands
func init() {
	// Initialize config
	if err := config.Init(); err != nil {
		panic(err)
	}

	// Initialize logger
	logger.Init(config.Get().App.Timezone, config.Get().App.Env)

	// Initialize Redis
	if err := redis.Init(); err != nil {
		logger.Error().Err(err).Msg("Failed to initialize Redis")
		panic(err)
	}

	// Initialize utils
	if err := utils.InitTimezone(); err != nil {
		logger.Warn().Err(err).Msg("Timezone initialization failed, continuing with UTC")
		panic(err)
	}

	// Initialize session store
	sessionCfg := config.Get().Session
	ttl, err := time.ParseDuration(sessionCfg.TTL)
	if err != nil || ttl <= 0 {
		ttl = 2 * time.Hour
	}
	session.Init(sessionCfg.MaxSessions, ttl, sessionCfg.Mirror)

	// Initialize asynq client
	if err := asynqPkg.InitClient(); err != nil {
		logger.Error().Err(err).Msg("Failed to initialize Asynq client")
		// Continue without queue functionality
	}

	// Initialize worker configuration (loads from Redis)
	asynqPkg.InitConcurrency()

	// Initialize auth system
	if err := auth.InitAuth(); err != nil {
		logger.Error().Err(err).Msg("Failed to initialize Auth system")
		panic(err)
	}

	// Initialize GeoIP resolver
	if err := geoip.Init(); err != nil {
		logger.Warn().Err(err).Msg("GeoIP resolver failed to start, will use fallback")
		// Continue without panicking - enrichment handles fallback gracefully
	}

	// Add commands (workerCmd registers itself)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(devCmd)
	rootCmd.AddCommand(reportCmd)
}
