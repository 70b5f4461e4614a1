package config

import (
	"fmt"
	"net/url"
	"strings"

	"entrabridge/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration and reports every problem at once.
// It returns nil or ValidationErrors.
func (c RelayConfig) Validate() error {
	var errs ValidationErrors

	required := func(field, value, env string) {
		if strings.TrimSpace(value) == "" {
			errs.Add(field, fmt.Sprintf("is required (set %s)", env))
		}
	}
	absoluteURL := func(field, value string) {
		if value == "" {
			return
		}
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add(field, "must be an absolute URL", value)
			return
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			errs.Add(field, "must use http or https", value)
		}
	}

	// Port 0 binds a free port.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs.Add("server.port", "must be between 0 and 65535", c.Server.Port)
	}
	absoluteURL("server.publicUrl", c.Server.PublicURL)

	required("entra.tenantId", c.Entra.TenantID, EnvTenantID)
	required("entra.clientId", c.Entra.ClientID, EnvClientID)
	required("entra.clientSecret", c.Entra.ClientSecret, EnvClientSecret)
	absoluteURL("entra.redirectUri", c.Entra.RedirectURI)
	absoluteURL("entra.authorizeUrl", c.Entra.AuthorizeURL)
	absoluteURL("entra.tokenUrl", c.Entra.TokenURL)

	absoluteURL("github.apiUrl", c.GitHub.APIURL)
	absoluteURL("github.redirectUrl", c.GitHub.RedirectURL)

	required("completion.endpoint", c.Completion.Endpoint, "completion.endpoint in config.yaml")
	absoluteURL("completion.endpoint", c.Completion.Endpoint)
	required("completion.model", c.Completion.Model, "completion.model in config.yaml")

	if c.Cache.TTL <= 0 {
		errs.Add("cache.ttl", "must be positive", c.Cache.TTL.String())
	}
	if c.Cache.SweepInterval <= 0 {
		errs.Add("cache.sweepInterval", "must be positive", c.Cache.SweepInterval.String())
	}

	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		errs.Add("logging.level", "must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch logging.Format(c.Logging.Format) {
	case logging.FormatText, logging.FormatJSON, "":
	default:
		errs.Add("logging.format", "must be one of: text, json", c.Logging.Format)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
