package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"entrabridge/internal/app"
)

// serveDebug enables debug logging across the application.
var serveDebug bool

// serveConfigPath specifies a custom configuration directory path.
var serveConfigPath string

// serveEnvFile is a .env file loaded before the environment is read.
var serveEnvFile string

// serveCmd starts the relay.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay HTTP server",
	Long: `Starts the relay and serves until interrupted (Ctrl+C or SIGTERM).

Endpoints:
  POST /chat               chat relay used by the Copilot extension
  GET  /auth               start Entra ID sign-in (also /github-redirect)
  GET  /callback           Entra ID redirect target
  GET  /auth/status        whether the caller holds a credential
  GET  /health, /metrics   liveness and prometheus metrics

Configuration:
  Defaults are overridden by config.yaml in the configuration directory
  (~/.config/entrabridge, or --config-path), then by a .env file (./.env,
  or --env-file) and finally by environment variables such as TENANT_ID,
  CLIENT_ID, CLIENT_SECRET, PUBLIC_URL and PORT.

  An invalid configuration exits with status 4.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, configPathOrDefault(serveConfigPath), serveEnvFile)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Configuration directory (default ~/.config/entrabridge)")
	serveCmd.Flags().StringVar(&serveEnvFile, "env-file", "", "Environment file to load (default ./.env when present)")
}
