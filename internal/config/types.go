package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// RelayConfig is the top-level configuration structure for entrabridge.
type RelayConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Entra      EntraConfig      `yaml:"entra"`
	GitHub     GitHubConfig     `yaml:"github"`
	Completion CompletionConfig `yaml:"completion"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string `yaml:"host,omitempty"`         // Host to bind to (default: all interfaces)
	Port         int    `yaml:"port,omitempty"`         // Port to listen on (default: 3000)
	PublicURL    string `yaml:"publicUrl,omitempty"`    // Externally reachable base URL, used in auth links
	MaxBodyBytes int64  `yaml:"maxBodyBytes,omitempty"` // Limit for /chat request bodies (default: 1 MiB)
}

// EntraConfig configures the Entra ID application used for sign-in.
type EntraConfig struct {
	TenantID     string   `yaml:"tenantId,omitempty"`
	ClientID     string   `yaml:"clientId,omitempty"`
	ClientSecret string   `yaml:"clientSecret,omitempty"`
	RedirectURI  string   `yaml:"redirectUri,omitempty"`  // default: {publicUrl}/callback
	AuthorizeURL string   `yaml:"authorizeUrl,omitempty"` // default: derived from tenantId
	TokenURL     string   `yaml:"tokenUrl,omitempty"`     // default: derived from tenantId
	Scopes       []string `yaml:"scopes,omitempty"`
}

// GitHubConfig configures the GitHub side of the relay.
type GitHubConfig struct {
	APIURL      string `yaml:"apiUrl,omitempty"`      // GitHub REST API base URL
	RedirectURL string `yaml:"redirectUrl,omitempty"` // Where the browser goes after signing in
}

// CompletionConfig configures the downstream chat-completion endpoint.
type CompletionConfig struct {
	Endpoint     string `yaml:"endpoint,omitempty"`
	Model        string `yaml:"model,omitempty"`
	SystemPrompt string `yaml:"systemPrompt,omitempty"` // text/template with sprig functions
}

// CacheConfig configures the credential cache.
type CacheConfig struct {
	TTL           Duration `yaml:"ttl,omitempty"`
	SweepInterval Duration `yaml:"sweepInterval,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level   string `yaml:"level,omitempty"`   // debug, info, warn, error
	Format  string `yaml:"format,omitempty"`  // text or json
	Verbose bool   `yaml:"verbose,omitempty"` // log which identities hold credentials
}

// Duration is a time.Duration written as a Go duration string ("1h", "5m30s") in YAML.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string such as \"5m\": %w", value.Line, err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, s, err)
	}
	*d = Duration(parsed)
	return nil
}
