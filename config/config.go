package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type (
	app struct {
		Name     string `json:"name" mapstructure:"name"`
		Env      string `json:"env" mapstructure:"env"`
		Port     int    `json:"port" mapstructure:"port"`
		Timezone string `json:"timezone" mapstructure:"timezone"`
		Version  string `json:"version" mapstructure:"version"`
	}

	redis struct {
		Mode     string `json:"mode" mapstructure:"mode"` // "single", "cluster", "sentinel"
		Host     string `json:"host" mapstructure:"host"`
		Port     int    `json:"port" mapstructure:"port"`
		Password string `json:"password" mapstructure:"password"`
		DB       int    `json:"db" mapstructure:"db"`
		Cluster  struct {
			Nodes    []string `json:"nodes" mapstructure:"nodes"`
			Password string   `json:"password" mapstructure:"password"`
		} `json:"cluster" mapstructure:"cluster"`
	}

	asynq struct {
		Concurrency int `json:"concurrency" mapstructure:"concurrency"`
		DB          int `json:"db" mapstructure:"db"`
		PoolSize    int `json:"pool_size" mapstructure:"pool_size"`
	}

	auth struct {
		Enabled   bool   `json:"enabled" mapstructure:"enabled"`
		Secret    string `json:"secret" mapstructure:"secret"`
		Issuer    string `json:"issuer" mapstructure:"issuer"`
		ExpiryMin int    `json:"expiry_min" mapstructure:"expiry_min"`
	}

	session struct {
		MaxSessions int    `json:"max_sessions" mapstructure:"max_sessions"`
		TTL         string `json:"ttl" mapstructure:"ttl"`       // e.g. "2h"
		Mirror      bool   `json:"mirror" mapstructure:"mirror"` // Redis copy for workers
	}

	upload struct {
		MaxSizeMB         int      `json:"max_size_mb" mapstructure:"max_size_mb"`
		AllowedExtensions []string `json:"allowed_extensions" mapstructure:"allowed_extensions"`
	}

	reportCfg struct {
		DefaultTheme string `json:"default_theme" mapstructure:"default_theme"` // "light" or "dark"
		ExportDir    string `json:"export_dir" mapstructure:"export_dir"`
	}

	geoip struct {
		Enabled      bool   `json:"enabled" mapstructure:"enabled"`
		DatabasePath string `json:"database_path" mapstructure:"database_path"`
	}

	Config struct {
		App     app       `json:"app" mapstructure:"app"`
		Redis   redis     `json:"redis" mapstructure:"redis"`
		Asynq   asynq     `json:"asynq" mapstructure:"asynq"`
		Auth    auth      `json:"auth" mapstructure:"auth"`
		Session session   `json:"session" mapstructure:"session"`
		Upload  upload    `json:"upload" mapstructure:"upload"`
		Report  reportCfg `json:"report" mapstructure:"report"`
		GeoIP   geoip     `json:"geoip" mapstructure:"geoip"`
	}

	// RedisConfig is an alias for the internal redis struct for external access
	RedisConfig = redis
)

var cfg *Config

// Init loads configuration from .config file
func Init() error {
	viper.SetConfigName(".config")
	viper.SetConfigType("json")
	viper.AddConfigPath("./")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// Get returns the current configuration instance
func Get() *Config {
	return cfg
}
