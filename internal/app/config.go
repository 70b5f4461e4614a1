package app

import (
	"io"

	"entrabridge/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug enables debug logging regardless of the configured level.
	Debug bool

	// Custom configuration directory (optional)
	ConfigPath string

	// EnvFile is loaded into the environment before configuration is read.
	// Empty loads .env from the working directory when present.
	EnvFile string

	// LogOutput receives log records. Defaults to os.Stderr.
	LogOutput io.Writer

	// RelayConfig, when set, is used instead of loading configuration.
	RelayConfig *config.RelayConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, envFile string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		EnvFile:    envFile,
	}
}
