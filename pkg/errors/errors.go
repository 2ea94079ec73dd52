package errors

import (
	stderrors "errors"
	"fmt"
)

// ConfigurationError reports an invalid or missing configuration value.
// It is fatal at startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %q: %s", e.Field, e.Reason)
}

// NewConfigurationError builds a ConfigurationError
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// ExternalServiceError wraps a failure returned by the chat or content platform.
type ExternalServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// External wraps err as an ExternalServiceError. A nil err stays nil.
func External(service, op string, err error) error {
	if err == nil {
		return nil
	}
	var ext *ExternalServiceError
	if stderrors.As(err, &ext) {
		return err
	}
	return &ExternalServiceError{Service: service, Op: op, Err: err}
}

// IsConfiguration reports whether err is a ConfigurationError
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return stderrors.As(err, &cfgErr)
}

// IsExternal reports whether err is an ExternalServiceError
func IsExternal(err error) bool {
	var ext *ExternalServiceError
	return stderrors.As(err, &ext)
}

// Is and As are re-exported so callers importing this package as "errors" keep the std helpers.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }
