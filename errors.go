package remotedev

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTransport is returned when neither SendTo nor Sender is configured.
	ErrMissingTransport = errors.New("provide at least SendTo or Sender")
	// ErrConflictingModes is returned when Every and OnlyState are both set.
	ErrConflictingModes = errors.New("every and only-state modes are mutually exclusive")
	// ErrInvalidMaxAge is returned for a negative MaxAge.
	ErrInvalidMaxAge = errors.New("MaxAge must not be negative")
	// ErrInvalidEndpoint is returned when SendTo is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("SendTo must be an absolute http or https URL")
)

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("remotedev: invalid config %q: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
