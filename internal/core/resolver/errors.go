// Package resolver expands bundles and computes the transitive closure of
// services needed for a selection.
// This is part of the Functional Core - all functions are pure with no I/O.
package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Error Types
// =============================================================================

// ErrEmptySelection is returned when nothing was selected.
var ErrEmptySelection = errors.New("no services or bundles were selected")

// UnknownIdentifierError is returned when an identifier is neither a service,
// a bundle nor a capability.
type UnknownIdentifierError struct {
	ID       string
	Referrer string // service or bundle that referenced ID; empty for the selection
}

func (e *UnknownIdentifierError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("unknown service or bundle ID: %s", e.ID)
	}
	return fmt.Sprintf("unknown service or bundle ID %s referenced by %s", e.ID, e.Referrer)
}

// UnresolvedCapabilityError is returned when no known service provides a
// required capability.
type UnresolvedCapabilityError struct {
	Capability string
	RequiredBy string
}

func (e *UnresolvedCapabilityError) Error() string {
	if e.RequiredBy == "" {
		return fmt.Sprintf("no provider found for capability %s", e.Capability)
	}
	return fmt.Sprintf("no provider found for capability %s required by %s", e.Capability, e.RequiredBy)
}

// CyclicBundleError is returned when a bundle includes itself, directly or
// through other bundles. Path starts and ends with the repeated bundle.
type CyclicBundleError struct {
	Path []string
}

func (e *CyclicBundleError) Error() string {
	return "cyclic bundle reference: " + strings.Join(e.Path, " -> ")
}
