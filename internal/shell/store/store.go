package store

import (
	"context"
	"time"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for generation records.
type Store interface {
	// Generation operations
	CreateGeneration(ctx context.Context, gen *Generation) error
	GetGeneration(ctx context.Context, id string) (*Generation, error)
	ListGenerations(ctx context.Context, opts ListOptions) ([]Generation, error)
	DeleteGeneration(ctx context.Context, id string) error
	CountGenerations(ctx context.Context) (int, error)
	PruneGenerations(ctx context.Context, before time.Time, keep int) (int, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Records
// =============================================================================

// Generation records one generated compose document and how it was produced.
type Generation struct {
	ID               string    `json:"id"`
	Selection        []string  `json:"selection"`
	Tier             string    `json:"tier"`
	IncludeOptional  bool      `json:"include_optional"`
	IncludeSuggested bool      `json:"include_suggested"`
	Services         []string  `json:"services"`
	StartOrder       []string  `json:"start_order"`
	ComposeYAML      string    `json:"compose_yaml"`
	Valid            bool      `json:"valid"`
	Warnings         []string  `json:"warnings"`
	Errors           []string  `json:"errors"`
	CreatedAt        time.Time `json:"created_at"`
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination and filtering options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
