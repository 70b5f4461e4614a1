// Package server is the HTTP front of the relay.
//
// # Architecture
//
//	 GitHub Copilot Chat                         browser
//	        │ POST /chat (X-GitHub-Token)            │ GET /auth, /callback
//	        ▼                                        ▼
//	  [ identity.Resolver ]                  [ oauth.Handler ]
//	        │ identity                               │ Entra access token
//	        ▼                                        ▼
//	  [ credential cache ] ◄──────── Store ──────────┘
//	        │ hit
//	        ▼
//	  [ completion.Client ] ──► chat-completion endpoint (SSE)
//
// A chat request whose user holds no credential is answered with an event
// asking them to sign in at {publicUrl}/auth.
//
// # Endpoints
//
//   - POST /chat - chat relay (event stream)
//   - GET /auth, GET /github-redirect - start Entra ID sign-in
//   - GET /callback - Entra ID redirect target
//   - GET /auth/status - whether the caller holds a credential
//   - GET /health - liveness
//   - GET /metrics - prometheus metrics
//   - GET / - greeting
package server
