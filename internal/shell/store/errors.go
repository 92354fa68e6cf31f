// Package store persists generation records for Kitchen.
package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotFound is returned when no generation has the requested ID.
	ErrNotFound = errors.New("generation not found")

	// ErrDuplicateID is returned when a generation ID is already taken.
	ErrDuplicateID = errors.New("generation ID already exists")

	// ErrConnectionFailed is returned when the database cannot be opened.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMigrationFailed is returned when the schema cannot be brought up to date.
	ErrMigrationFailed = errors.New("database migration failed")

	// ErrInvalidData is returned when a list column cannot be encoded or a
	// stored row cannot be decoded.
	ErrInvalidData = errors.New("invalid stored data")

	// ErrTxFailed is returned when a transaction cannot begin, commit or roll back.
	ErrTxFailed = errors.New("transaction failed")
)

// StoreError records the store operation and generation a failure belongs to.
type StoreError struct {
	Op      string // e.g. "CreateGeneration"
	ID      string // generation ID, empty for operations on the whole table
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s generation %s: %s", e.Op, e.ID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, id, message string, err error) *StoreError {
	return &StoreError{Op: op, ID: id, Message: message, Err: err}
}

// IsNotFound reports whether err means the generation does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
