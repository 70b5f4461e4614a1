// Package logging provides the structured logger used across entrabridge.
//
// It is a thin layer over log/slog. Every record carries a subsystem attribute so
// output can be filtered by component, and Error records carry the error text as
// a separate attribute.
//
// # Usage
//
//	logging.Init(logging.LevelInfo, logging.FormatJSON, os.Stdout)
//
//	logging.Info("Bootstrap", "Listening on %s", addr)
//	logging.Debug("CredentialCache", "Sweep removed %d entries", n)
//	logging.Error("Relay", err, "Upstream completion failed")
//
// Handlers serving a request use the Context variants, which add the
// request_id attribute stored by ContextWithRequestID:
//
//	logging.WarnContext(r.Context(), "Relay", "Stream ended early")
//
// # Subsystems
//
//   - Bootstrap: application startup and shutdown
//   - Config: configuration loading and validation
//   - CredentialCache: secondary credential storage
//   - Identity: GitHub and Entra identity resolution
//   - OAuth: Entra authorization flow
//   - Relay: chat completion relaying
//   - HTTP: request logging
//
// Secret values must never be passed to these functions. Wrap tokens in
// oauth.RedactedToken and mask identities with strings.MaskIdentity before
// logging them at INFO or above.
package logging
