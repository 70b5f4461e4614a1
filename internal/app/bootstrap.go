package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"entrabridge/internal/config"
	"entrabridge/pkg/logging"
)

// Application represents the main application structure that bootstraps and runs the relay.
//
// Example usage:
//
//	cfg := app.NewConfig(false, "", "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the provided configuration.
// Configuration problems are returned as config.ValidationErrors or *config.ConfigurationError.
func NewApplication(cfg *Config) (*Application, error) {
	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}

	bootLevel := logging.LevelInfo
	if cfg.Debug {
		bootLevel = logging.LevelDebug
	}
	logging.InitForCLI(bootLevel, logOutput)

	if cfg.RelayConfig == nil {
		relayCfg, err := config.Load(cfg.ConfigPath, cfg.EnvFile)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration")
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg.RelayConfig = &relayCfg
	}

	if cfg.Debug {
		cfg.RelayConfig.Logging.Level = "debug"
		cfg.RelayConfig.Logging.Verbose = true
	}

	if err := cfg.RelayConfig.Validate(); err != nil {
		logging.Error("Bootstrap", err, "Configuration is invalid")
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := logging.ParseLevel(cfg.RelayConfig.Logging.Level)
	logging.Init(level, logging.Format(cfg.RelayConfig.Logging.Format), logOutput)

	services, err := InitializeServices(cfg.RelayConfig)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the wired services.
func (a *Application) Services() *Services {
	return a.services
}

// Run executes the application
//
// Handles graceful shutdown via context cancellation and system signals.
// The method blocks until the application is terminated or the server fails.
func (a *Application) Run(ctx context.Context) error {
	return run(ctx, a.services)
}
