// Package compose turns resolved service contracts into a Docker Compose
// descriptor and reads descriptors back.
// This is part of the Functional Core - all functions are pure with no I/O.
package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("compose document is empty")

	// YAML parsing errors
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// Synthesis errors
	ErrUnknownService = errors.New("resolved service has no contract")
)

// ShortNameCollisionError is returned when two resolved services would be
// written under the same compose service name.
type ShortNameCollisionError struct {
	Name   string
	First  string
	Second string
}

func (e *ShortNameCollisionError) Error() string {
	return fmt.Sprintf("services %s and %s both map to compose service %q", e.First, e.Second, e.Name)
}

// ConformanceError is returned when Docker Compose would reject a descriptor.
type ConformanceError struct {
	Message string
	Err     error
}

func (e *ConformanceError) Error() string {
	return "compose conformance: " + e.Message
}

func (e *ConformanceError) Unwrap() error {
	return e.Err
}

// NewConformanceError creates a new ConformanceError.
func NewConformanceError(err error) *ConformanceError {
	return &ConformanceError{
		Message: err.Error(),
		Err:     err,
	}
}
