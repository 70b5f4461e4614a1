package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withEnv replaces the environment seen by the loader for the duration of the test.
func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := lookupEnv
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	t.Cleanup(func() { lookupEnv = original })
}

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	withEnv(t, nil)

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "http://localhost:3000", cfg.Server.PublicURL)
	assert.Equal(t, "http://localhost:3000/callback", cfg.Entra.RedirectURI)
	assert.Equal(t, []string{"openid", "profile"}, cfg.Entra.Scopes)
	assert.Equal(t, "https://models.inference.ai.azure.com/chat/completions", cfg.Completion.Endpoint)
	assert.Equal(t, "gpt-4o", cfg.Completion.Model)
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Std())
	assert.Equal(t, 5*time.Minute, cfg.Cache.SweepInterval.Std())
	assert.Equal(t, DefaultMaxBodyBytes, cfg.Server.MaxBodyBytes)
	assert.Empty(t, cfg.Entra.AuthorizeURL, "no tenant, nothing to derive")
}

func TestLoadConfig_File(t *testing.T) {
	withEnv(t, nil)
	dir := t.TempDir()
	writeConfigFile(t, dir, `
server:
  port: 8080
  publicUrl: https://relay.example.com/
entra:
  tenantId: contoso
  clientId: app-id
  scopes: [openid, email]
github:
  redirectUrl: https://github.com/copilot
completion:
  model: gpt-4o-mini
  systemPrompt: "You help {{ .Identity }}"
cache:
  ttl: 30m
  sweepInterval: 1m
logging:
  format: json
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://relay.example.com", cfg.Server.PublicURL)
	assert.Equal(t, "https://relay.example.com/callback", cfg.Entra.RedirectURI)
	assert.Equal(t, "https://login.microsoftonline.com/contoso/oauth2/v2.0/authorize", cfg.Entra.AuthorizeURL)
	assert.Equal(t, "https://login.microsoftonline.com/contoso/oauth2/v2.0/token", cfg.Entra.TokenURL)
	assert.Equal(t, []string{"openid", "email"}, cfg.Entra.Scopes)
	assert.Equal(t, "gpt-4o-mini", cfg.Completion.Model)
	assert.Equal(t, "https://models.inference.ai.azure.com/chat/completions", cfg.Completion.Endpoint)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL.Std())
	assert.Equal(t, time.Minute, cfg.Cache.SweepInterval.Std())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
server:
  port: 8080
entra:
  tenantId: from-file
`)
	withEnv(t, map[string]string{
		EnvPort:              "9090",
		EnvPublicURL:         "https://public.example.com",
		EnvTenantID:          "from-env",
		EnvClientID:          "client",
		EnvClientSecret:      "secret",
		EnvRedirectURI:       "https://public.example.com/custom-callback",
		EnvTokenURL:          "https://token.example.com/token",
		EnvGitHubRedirectURL: "https://github.com/copilot",
		EnvDebug:             "true",
		EnvVerbose:           "1",
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://public.example.com", cfg.Server.PublicURL)
	assert.Equal(t, "from-env", cfg.Entra.TenantID)
	assert.Equal(t, "client", cfg.Entra.ClientID)
	assert.Equal(t, "secret", cfg.Entra.ClientSecret)
	assert.Equal(t, "https://public.example.com/custom-callback", cfg.Entra.RedirectURI)
	assert.Equal(t, "https://token.example.com/token", cfg.Entra.TokenURL)
	assert.Equal(t, "https://login.microsoftonline.com/from-env/oauth2/v2.0/authorize", cfg.Entra.AuthorizeURL)
	assert.Equal(t, "https://github.com/copilot", cfg.GitHub.RedirectURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Verbose)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_FalseFlags(t *testing.T) {
	withEnv(t, map[string]string{EnvDebug: "false", EnvVerbose: "nope"})

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Verbose)
}

func TestLoadConfig_DiagnosticFlags(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "debug alone", env: map[string]string{EnvDebug: "true"}},
		{name: "verbose alone", env: map[string]string{EnvVerbose: "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.env)

			cfg, err := LoadConfig("")
			require.NoError(t, err)
			assert.Equal(t, "debug", cfg.Logging.Level)
			assert.True(t, cfg.Logging.Verbose)
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		withEnv(t, nil)
		dir := t.TempDir()
		writeConfigFile(t, dir, "server: [unclosed")

		_, err := LoadConfig(dir)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
		assert.Contains(t, err.Error(), "malformed config file")
	})

	t.Run("invalid duration", func(t *testing.T) {
		withEnv(t, nil)
		dir := t.TempDir()
		writeConfigFile(t, dir, "cache:\n  ttl: forever\n")

		_, err := LoadConfig(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid duration")
	})

	t.Run("invalid port", func(t *testing.T) {
		withEnv(t, map[string]string{EnvPort: "http"})

		_, err := LoadConfig(t.TempDir())
		require.Error(t, err)
		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, EnvPort, ce.FilePath)
	})
}

func TestLoadEnvFile(t *testing.T) {
	const key = "ENTRABRIDGE_TEST_ENV_FILE_KEY"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), "relay.env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0600))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv(key))
}

func TestLoadEnvFile_DoesNotOverrideEnvironment(t *testing.T) {
	const key = "ENTRABRIDGE_TEST_ENV_OVERRIDE_KEY"
	t.Setenv(key, "from-environment")

	path := filepath.Join(t.TempDir(), "relay.env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0600))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-environment", os.Getenv(key))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestLoadEnvFile_DefaultIsOptional(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, LoadEnvFile(""))
}
