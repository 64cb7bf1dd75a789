// Package errkind defines the failure categories a prediction run can end
// with. Every fatal error is wrapped around exactly one of these sentinels so
// callers can classify it with errors.Is.
package errkind

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration covers unresolvable directories, a missing template
	// submission and invalid settings. Raised before any fold runs.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound covers a fold without a scorable checkpoint and test clips
	// listed in the template with no audio on disk.
	ErrNotFound = errors.New("not found")

	// ErrSchemaMismatch is returned when a probability table does not share
	// the row index and label columns of the run's schema.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrIO covers failures reading or writing tables, manifests and metrics.
	ErrIO = errors.New("io error")
)

// Configuration wraps a formatted message around ErrConfiguration.
func Configuration(format string, args ...any) error {
	return wrap(ErrConfiguration, format, args...)
}

// NotFound wraps a formatted message around ErrNotFound.
func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// SchemaMismatch wraps a formatted message around ErrSchemaMismatch.
func SchemaMismatch(format string, args ...any) error {
	return wrap(ErrSchemaMismatch, format, args...)
}

// IO tags err as an ErrIO failure while keeping it reachable via errors.Is.
func IO(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, fmt.Sprintf(format, args...), err)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
