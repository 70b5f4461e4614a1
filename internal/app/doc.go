// Package app bootstraps and runs the entrabridge relay.
//
// # Bootstrap
//
// NewApplication performs the initialization sequence:
//
//  1. Configures logging from the debug flag
//  2. Loads the relay configuration (defaults, config.yaml, .env, environment)
//  3. Validates it, failing with config.ValidationErrors when it is unusable
//  4. Re-initializes logging with the configured level and format
//  5. Wires the services: metrics registry, credential cache, Entra client,
//     state store, GitHub resolver, completion client and HTTP server
//
// A Config with RelayConfig already set skips loading, which is how tests
// and the config command reuse the bootstrap.
//
// # Lifecycle
//
// Run starts the HTTP server, notifies systemd that the service is ready and
// blocks until the context is cancelled, SIGINT or SIGTERM arrives, or the
// server fails. Shutdown then drains in-flight requests for up to
// ShutdownTimeout and stops the background sweepers of the state store and
// the credential cache.
//
// Outside systemd the readiness notifications are no-ops.
package app
