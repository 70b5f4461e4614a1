// Package oauth runs the Entra ID authorization-code flow for the relay.
//
// A chat user who has no cached credential is pointed at /auth. The handler
// generates a PKCE verifier and a single-use state, then redirects the browser
// to the tenant's authorize endpoint. Entra ID sends the browser back to the
// callback with a code, which is exchanged for an access token at the token
// endpoint. The token is handed to a CredentialStore, which resolves the user
// identity from its claims and caches it.
//
// # Components
//
//   - Client: builds authorize URLs and exchanges codes (golang.org/x/oauth2)
//   - StateStore: single-use state parameters with a short expiry
//   - Handler: the /auth, /github-redirect and /callback endpoints
//   - RedactedToken: keeps token values out of logs and error strings
//
// # Security
//
// Tokens live in process memory only and are lost on restart. Access tokens
// and authorization codes are never logged; token endpoint response bodies are
// only logged truncated at debug level.
//
// The callback endpoint receives authorization codes and must be served over
// HTTPS in production deployments.
package oauth
