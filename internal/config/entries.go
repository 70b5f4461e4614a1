package config

import (
	"strconv"
	"strings"
)

// Entry is one line of the effective configuration.
type Entry struct {
	Section string
	Key     string
	Value   string
}

const redacted = "[REDACTED]"

// Entries lists the effective configuration for display. Secrets are redacted.
func (c RelayConfig) Entries() []Entry {
	secret := func(v string) string {
		if v == "" {
			return ""
		}
		return redacted
	}

	return []Entry{
		{"server", "host", c.Server.Host},
		{"server", "port", strconv.Itoa(c.Server.Port)},
		{"server", "publicUrl", c.Server.PublicURL},
		{"server", "maxBodyBytes", strconv.FormatInt(c.Server.MaxBodyBytes, 10)},
		{"entra", "tenantId", c.Entra.TenantID},
		{"entra", "clientId", c.Entra.ClientID},
		{"entra", "clientSecret", secret(c.Entra.ClientSecret)},
		{"entra", "redirectUri", c.Entra.RedirectURI},
		{"entra", "authorizeUrl", c.Entra.AuthorizeURL},
		{"entra", "tokenUrl", c.Entra.TokenURL},
		{"entra", "scopes", strings.Join(c.Entra.Scopes, " ")},
		{"github", "apiUrl", c.GitHub.APIURL},
		{"github", "redirectUrl", c.GitHub.RedirectURL},
		{"completion", "endpoint", c.Completion.Endpoint},
		{"completion", "model", c.Completion.Model},
		{"completion", "systemPrompt", systemPromptSummary(c.Completion.SystemPrompt)},
		{"cache", "ttl", c.Cache.TTL.String()},
		{"cache", "sweepInterval", c.Cache.SweepInterval.String()},
		{"logging", "level", c.Logging.Level},
		{"logging", "format", c.Logging.Format},
		{"logging", "verbose", strconv.FormatBool(c.Logging.Verbose)},
	}
}

func systemPromptSummary(prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return "(default)"
	}
	return "(custom)"
}
