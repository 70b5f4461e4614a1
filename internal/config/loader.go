package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"entrabridge/internal/oauth"
	"entrabridge/pkg/logging"
)

const (
	userConfigDir  = ".config/entrabridge"
	configFileName = "config.yaml"

	// DefaultEnvFile is loaded from the working directory when no env file is given.
	DefaultEnvFile = ".env"
)

// Environment variables read by Load.
const (
	EnvPort              = "PORT"
	EnvPublicURL         = "PUBLIC_URL"
	EnvTenantID          = "TENANT_ID"
	EnvClientID          = "CLIENT_ID"
	EnvClientSecret      = "CLIENT_SECRET"
	EnvRedirectURI       = "REDIRECT_URI"
	EnvTokenURL          = "TOKEN_URL"
	EnvGitHubRedirectURL = "GITHUB_REDIRECT_URL"
	EnvDebug             = "DEBUG"
	EnvVerbose           = "VERBOSE"
)

// lookupEnv is replaced in tests.
var lookupEnv = os.LookupEnv

func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// Load loads envFile into the environment and then the configuration from
// configPath. An empty envFile loads .env from the working directory if it exists.
func Load(configPath, envFile string) (RelayConfig, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return RelayConfig{}, err
	}
	return LoadConfig(configPath)
}

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// Variables that are already set keep their value. An explicitly named file
// must exist; the default .env is optional.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return &ConfigurationError{FilePath: path, ErrorType: ErrorTypeIO, Message: "cannot read env file", Err: err}
	}

	if err := godotenv.Load(path); err != nil {
		return &ConfigurationError{FilePath: path, ErrorType: ErrorTypeParse, Message: "malformed env file", Err: err}
	}
	logging.Info("Config", "Loaded environment from %s", path)
	return nil
}

// LoadConfig loads configuration from a single specified directory and
// applies environment overrides. A missing config.yaml is not an error.
func LoadConfig(configPath string) (RelayConfig, error) {
	config := GetDefaultConfig()

	if configPath != "" {
		configFilePath := filepath.Join(configPath, configFileName)

		data, err := os.ReadFile(configFilePath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logging.Info("Config", "No config.yaml found at %s, using defaults", configFilePath)
		case err != nil:
			return RelayConfig{}, &ConfigurationError{
				FilePath: configFilePath, ErrorType: ErrorTypeIO, Message: "cannot read config file", Err: err,
			}
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return RelayConfig{}, &ConfigurationError{
					FilePath: configFilePath, ErrorType: ErrorTypeParse, Message: "malformed config file", Err: err,
				}
			}
			logging.Info("Config", "Loaded configuration from %s", configFilePath)
		}
	}

	if err := applyEnv(&config); err != nil {
		return RelayConfig{}, err
	}
	applyDerived(&config)
	return config, nil
}

func applyEnv(config *RelayConfig) error {
	setString := func(key string, dst *string) {
		if v, ok := lookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookupEnv(EnvPort); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ConfigurationError{
				FilePath: EnvPort, ErrorType: ErrorTypeParse, Message: fmt.Sprintf("invalid port %q", v), Err: err,
			}
		}
		config.Server.Port = port
	}

	setString(EnvPublicURL, &config.Server.PublicURL)
	setString(EnvTenantID, &config.Entra.TenantID)
	setString(EnvClientID, &config.Entra.ClientID)
	setString(EnvClientSecret, &config.Entra.ClientSecret)
	setString(EnvRedirectURI, &config.Entra.RedirectURI)
	setString(EnvTokenURL, &config.Entra.TokenURL)
	setString(EnvGitHubRedirectURL, &config.GitHub.RedirectURL)

	// DEBUG is the single switch for all diagnostics. VERBOSE only asks for
	// the cache diagnostics, which are debug records.
	if envBool(EnvDebug) || envBool(EnvVerbose) {
		config.Logging.Level = "debug"
		config.Logging.Verbose = true
	}
	return nil
}

func envBool(key string) bool {
	v, ok := lookupEnv(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// applyDerived fills values that default to something computed from other fields.
func applyDerived(config *RelayConfig) {
	if config.Server.PublicURL == "" {
		config.Server.PublicURL = fmt.Sprintf("http://localhost:%d", config.Server.Port)
	}
	config.Server.PublicURL = strings.TrimRight(config.Server.PublicURL, "/")

	if config.Entra.RedirectURI == "" {
		config.Entra.RedirectURI = config.Server.PublicURL + DefaultCallbackPath
	}
	if config.Entra.TenantID != "" {
		if config.Entra.AuthorizeURL == "" {
			config.Entra.AuthorizeURL = oauth.EntraAuthorizeURL(config.Entra.TenantID)
		}
		if config.Entra.TokenURL == "" {
			config.Entra.TokenURL = oauth.EntraTokenURL(config.Entra.TenantID)
		}
	}
	if len(config.Entra.Scopes) == 0 {
		config.Entra.Scopes = append([]string(nil), DefaultScopes...)
	}
	if config.Server.MaxBodyBytes <= 0 {
		config.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// ListenAddr returns the host:port the server binds to.
func (c RelayConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
