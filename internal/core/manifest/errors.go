package manifest

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrMissingDocument is returned when a required manifest document is absent.
	ErrMissingDocument = errors.New("manifest document not found")

	// ErrMalformedDocument is returned when a document is not valid YAML or has
	// the wrong shape.
	ErrMalformedDocument = errors.New("malformed manifest document")

	// ErrInvalidManifest is returned when a decoded document fails validation.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrDuplicateIdentifier is returned when one ID is defined by two entities.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
)

// LoadError reports why a manifest document could not be loaded.
type LoadError struct {
	Document string // e.g. "contracts", "combos"
	Path     string // file path when loaded from disk
	Message  string
	Err      error
}

func (e *LoadError) Error() string {
	where := e.Document
	if e.Path != "" {
		where = fmt.Sprintf("%s (%s)", e.Document, e.Path)
	}
	if where == "" {
		return "manifest: " + e.Message
	}
	return fmt.Sprintf("manifest %s: %s", where, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new LoadError.
func NewLoadError(document, message string, err error) *LoadError {
	return &LoadError{
		Document: document,
		Message:  message,
		Err:      err,
	}
}
