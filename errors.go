package network

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when an id lookup cannot resolve every
	// requested record.
	ErrNotFound = errors.New("network: records not found")

	// ErrConfig is returned when a relation configuration is invalid or
	// incomplete at declaration time.
	ErrConfig = errors.New("network: invalid configuration")
)

// NotFoundError reports that an id lookup resolved only a strict subset of
// the requested ids. It carries the full requested id list; lookup is
// all-or-nothing, so no partial result accompanies it.
type NotFoundError struct {
	ids []any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("network: couldn't find all records with ids %v", e.ids)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// IDs returns the ids that were requested when the lookup failed.
func (e *NotFoundError) IDs() []any {
	return e.ids
}

// NewNotFoundError returns a new NotFoundError carrying the requested ids.
func NewNotFoundError(ids ...any) *NotFoundError {
	return &NotFoundError{ids: ids}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConfigError represents an invalid or incomplete relation configuration.
// It is raised at declaration time and aborts setup; a relation that fails to
// build never degrades to an empty accessor.
type ConfigError struct {
	name   string
	reason string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	if e.name != "" {
		return fmt.Sprintf("network: configuring %q: %s", e.name, e.reason)
	}
	return fmt.Sprintf("network: %s", e.reason)
}

// Is reports whether the target error matches ConfigError.
// This allows errors.Is(configErr, ErrConfig) to return true.
func (e *ConfigError) Is(err error) bool {
	return err == ErrConfig
}

// Name returns the relation or accessor name the configuration was for.
func (e *ConfigError) Name() string {
	return e.name
}

// NewConfigError returns a new ConfigError for the given relation or
// accessor name.
func NewConfigError(name, format string, args ...any) *ConfigError {
	return &ConfigError{name: name, reason: fmt.Sprintf(format, args...)}
}

// IsConfig returns true if the error is a ConfigError.
func IsConfig(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e) || errors.Is(err, ErrConfig)
}
