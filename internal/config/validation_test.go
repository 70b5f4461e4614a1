package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() RelayConfig {
	cfg := GetDefaultConfig()
	cfg.Entra.TenantID = "contoso"
	cfg.Entra.ClientID = "client"
	cfg.Entra.ClientSecret = "secret"
	applyDerived(&cfg)
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Port = 70000
	cfg.Cache.TTL = 0
	cfg.Cache.SweepInterval = -1
	cfg.GitHub.RedirectURL = "not a url"
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)

	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))

	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, field := range []string{
		"server.port", "entra.tenantId", "entra.clientId", "entra.clientSecret",
		"cache.ttl", "cache.sweepInterval", "github.redirectUrl", "logging.level", "logging.format",
	} {
		assert.True(t, fields[field], "expected error for %s", field)
	}
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_URLSchemes(t *testing.T) {
	cfg := validConfig()
	cfg.Completion.Endpoint = "ftp://models.example.com"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion.endpoint")
	assert.Contains(t, err.Error(), "http or https")
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())

	var errs ValidationErrors
	errs.Add("a", "is broken")
	assert.Equal(t, "field 'a': is broken", errs.Error())

	errs.Add("", "general problem")
	assert.Equal(t, "validation failed: field 'a': is broken; general problem", errs.Error())
}

func TestEntries_RedactsSecrets(t *testing.T) {
	cfg := validConfig()

	var sawSecret bool
	for _, e := range cfg.Entries() {
		assert.NotEqual(t, "secret", e.Value, "%s.%s leaked a secret", e.Section, e.Key)
		if e.Key == "clientSecret" {
			sawSecret = true
			assert.Equal(t, redacted, e.Value)
		}
	}
	assert.True(t, sawSecret)
}
