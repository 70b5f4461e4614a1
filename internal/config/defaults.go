package config

import (
	"entrabridge/internal/completion"
	"entrabridge/internal/credcache"
	"entrabridge/internal/identity"
)

const (
	// DefaultPort is the port the relay listens on.
	DefaultPort = 3000

	// DefaultMaxBodyBytes limits /chat request bodies.
	DefaultMaxBodyBytes int64 = 1 << 20

	// DefaultCallbackPath is where Entra ID redirects back to.
	DefaultCallbackPath = "/callback"

	// DefaultLogFormat is the log output format.
	DefaultLogFormat = "text"
)

// DefaultScopes are requested from Entra ID when none are configured.
var DefaultScopes = []string{"openid", "profile"}

// GetDefaultConfig returns the default configuration for entrabridge.
func GetDefaultConfig() RelayConfig {
	return RelayConfig{
		Server: ServerConfig{
			Port:         DefaultPort,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Entra: EntraConfig{
			Scopes: append([]string(nil), DefaultScopes...),
		},
		GitHub: GitHubConfig{
			APIURL: identity.DefaultGitHubAPIURL,
		},
		Completion: CompletionConfig{
			Endpoint: completion.DefaultEndpoint,
			Model:    completion.DefaultModel,
		},
		Cache: CacheConfig{
			TTL:           Duration(credcache.DefaultTTL),
			SweepInterval: Duration(credcache.DefaultSweepInterval),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: DefaultLogFormat,
		},
	}
}
