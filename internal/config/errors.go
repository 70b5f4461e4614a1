package config

import (
	"errors"
	"fmt"
)

// Error types reported in ConfigurationError.
const (
	ErrorTypeIO    = "io"
	ErrorTypeParse = "parse"
)

// ConfigurationError represents an error that occurs while reading a configuration source.
type ConfigurationError struct {
	FilePath  string // File or environment variable that caused the error
	ErrorType string // Type of error (io, parse)
	Message   string // Human-readable error message
	Err       error
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	if ce.Err == nil {
		return fmt.Sprintf("%s: %s", ce.FilePath, ce.Message)
	}
	return fmt.Sprintf("%s: %s: %v", ce.FilePath, ce.Message, ce.Err)
}

func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// IsConfigurationError reports whether err is, or wraps, a problem with the configuration
// itself, either a ConfigurationError or ValidationErrors.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	var ve ValidationErrors
	return errors.As(err, &ce) || errors.As(err, &ve)
}
