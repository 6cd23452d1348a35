package grepgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/grepgo/internal/matcher"
)

var (
	// ErrEmptyPattern is returned when the search pattern is empty.
	ErrEmptyPattern = errors.New("search pattern must not be empty")

	// ErrTargetNotFound is returned when a scan root does not exist.
	ErrTargetNotFound = errors.New("search target does not exist")
)

// ConfigError indicates an invalid option or option combination. It is
// always detected at construction time, never mid-scan.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ConfigError struct {
	Option string
	Reason string
	cause  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Option, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.cause }

func newConfigError(option, reason string, cause error) *ConfigError {
	return &ConfigError{Option: option, Reason: reason, cause: cause}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, matcher.ErrEmptyPattern) {
		return fmt.Errorf("%w: %w", ErrEmptyPattern, err)
	}

	return err
}
