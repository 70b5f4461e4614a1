package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"entrabridge/pkg/logging"
	pkgstrings "entrabridge/pkg/strings"
)

// DefaultHTTPTimeout is the default timeout for token endpoint requests.
const DefaultHTTPTimeout = 30 * time.Second

// entraLoginHost is the Microsoft identity platform authority.
const entraLoginHost = "https://login.microsoftonline.com"

// DefaultScopes are requested when no scopes are configured.
var DefaultScopes = []string{"openid", "profile"}

// EntraAuthorizeURL returns the v2.0 authorization endpoint of a tenant.
func EntraAuthorizeURL(tenantID string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/authorize", entraLoginHost, tenantID)
}

// EntraTokenURL returns the v2.0 token endpoint of a tenant.
func EntraTokenURL(tenantID string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", entraLoginHost, tenantID)
}

// ClientConfig configures the Entra ID client.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthorizeURL string
	TokenURL     string
	Scopes       []string

	// HTTPClient is an optional custom HTTP client for the token exchange.
	HTTPClient *http.Client
}

// Client runs the authorization-code flow against Entra ID.
type Client struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewClient creates a new Entra ID client.
func NewClient(cfg ClientConfig) *Client {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	return &Client{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}
}

// AuthCodeURL builds the URL the browser is sent to for signing in.
// The S256 challenge of codeVerifier is included when codeVerifier is set.
func (c *Client) AuthCodeURL(state, codeVerifier string) string {
	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(codeVerifier))
	}
	return c.config.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for an access token and returns it.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(codeVerifier))
	}

	token, err := c.config.Exchange(ctx, code, opts...)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			// The body may contain error descriptions and hints; keep it out of the error.
			logging.Debug("OAuth", "Token exchange failed: status=%d body=%s",
				retrieveErr.Response.StatusCode, pkgstrings.Truncate(string(retrieveErr.Body), 200))
			return "", fmt.Errorf("token exchange failed with status %d", retrieveErr.Response.StatusCode)
		}
		return "", fmt.Errorf("token request failed: %w", err)
	}

	if token.AccessToken == "" {
		return "", errors.New("token response did not contain an access token")
	}

	logging.Debug("OAuth", "Exchanged authorization code (token=%s, expiry=%v)",
		NewRedactedToken(token.AccessToken), token.Expiry)
	return token.AccessToken, nil
}

// RedirectURI returns the configured callback URI.
func (c *Client) RedirectURI() string {
	return c.config.RedirectURL
}

// Scopes returns the requested scopes as a space separated string.
func (c *Client) Scopes() string {
	return strings.Join(c.config.Scopes, " ")
}
