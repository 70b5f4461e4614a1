package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"entrabridge/pkg/logging"
)

// ShutdownTimeout bounds how long in-flight requests may take to finish.
const ShutdownTimeout = 10 * time.Second

// sdNotify is replaced in tests.
var sdNotify = daemon.SdNotify

// run serves until ctx is cancelled, a termination signal arrives or the
// server fails, then shuts everything down.
func run(ctx context.Context, services *Services) error {
	defer services.Stop()

	if err := services.Server.Start(); err != nil {
		logging.Error("Bootstrap", err, "Failed to start HTTP server")
		return err
	}
	notify(daemon.SdNotifyReady)
	logging.Info("Bootstrap", "Relay started on %s. Press Ctrl+C to stop.", services.Server.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("Bootstrap", "Context cancelled, shutting down")
	case sig := <-sigChan:
		logging.Info("Bootstrap", "Received %s, shutting down", sig)
	case err, ok := <-services.Server.Errors():
		if ok && err != nil {
			logging.Error("Bootstrap", err, "HTTP server failed")
			runErr = fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	notify(daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := services.Server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Bootstrap", err, "Graceful shutdown did not complete")
		if runErr == nil {
			runErr = fmt.Errorf("shutdown failed: %w", err)
		}
	}

	logging.Info("Bootstrap", "Relay stopped")
	return runErr
}

func notify(state string) {
	sent, err := sdNotify(false, state)
	switch {
	case err != nil:
		logging.Warn("Bootstrap", "systemd notification failed: %v", err)
	case sent:
		logging.Debug("Bootstrap", "Notified systemd: %s", state)
	}
}
