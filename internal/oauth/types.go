package oauth

import (
	"time"
)

// AuthState is the server-side record behind one OAuth state parameter.
// It links the Entra callback to the authorization request that started it.
type AuthState struct {
	// Nonce is the random value sent as the state parameter.
	Nonce string `json:"nonce"`

	// CreatedAt is when the flow started (for expiration).
	CreatedAt time.Time `json:"created_at"`

	// EntryPath is the route that started the flow (/auth or /github-redirect).
	EntryPath string `json:"entry_path,omitempty"`

	// CodeVerifier is the PKCE code verifier for this flow.
	// Stored server-side only, never sent to the browser.
	CodeVerifier string `json:"-"`
}

// CredentialStore receives the Entra access token once the code exchange
// succeeded. credcache.Cache implements it.
type CredentialStore interface {
	Store(rawToken string) (string, error)
}
