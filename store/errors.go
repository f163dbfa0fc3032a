package store

import (
	"errors"
	"fmt"
)

// ConfigError reports an unsupported option supplied to a store operation.
// It is raised locally, before any network or database call.
type ConfigError struct {
	Option  string `json:"option"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("invalid configuration: option %q: %s", e.Option, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

// NewConfigError creates a ConfigError for the given option key.
func NewConfigError(option, message string) *ConfigError {
	return &ConfigError{Option: option, Message: message}
}

// RequestError reports a non-success HTTP status from a remote backend. It
// carries the numeric status code and the fully-qualified URL that was
// called. The adapter does not branch on the code: a 400 and a 503 fail the
// same way, and no retry is attempted at this layer.
type RequestError struct {
	StatusCode int    `json:"status_code"`
	URL        string `json:"url"`
	Message    string `json:"message,omitempty"`
}

// Error implements the error interface
func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request to %s failed with status %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}

// NewRequestError creates a RequestError for the given status and URL.
func NewRequestError(statusCode int, url, message string) *RequestError {
	return &RequestError{StatusCode: statusCode, URL: url, Message: message}
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsRequestError reports whether err is (or wraps) a RequestError.
func IsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// ValidateOptions rejects any key present in a free-form options map. It
// backs the Setup contract shared by all adapters: the only recognized
// content is no content.
func ValidateOptions(opts map[string]any) error {
	for k := range opts {
		return NewConfigError(k, "unsupported option")
	}
	return nil
}
