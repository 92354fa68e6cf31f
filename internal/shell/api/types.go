package api

import (
	"time"

	"github.com/artpar/kitchen/internal/core/network"
)

// =============================================================================
// Request Types
// =============================================================================

// GenerateRequest is the request body for generating a compose document.
type GenerateRequest struct {
	Selection        []string `json:"selection"`
	Tier             string   `json:"tier,omitempty"`
	IncludeOptional  *bool    `json:"include_optional,omitempty"`
	IncludeSuggested bool     `json:"include_suggested,omitempty"`
}

// ValidateRequest is the request body for validating a compose document.
type ValidateRequest struct {
	Compose string `json:"compose"`
}

// =============================================================================
// Response Types
// =============================================================================

// GenerateResponse is the response for a successful generation.
type GenerateResponse struct {
	ID         string             `json:"id,omitempty"`
	Tier       string             `json:"tier"`
	Services   []string           `json:"services"`
	StartOrder []string           `json:"start_order"`
	Compose    string             `json:"compose"`
	Validation ValidationResponse `json:"validation"`
}

// ValidationResponse reports validator findings.
type ValidationResponse struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// ComponentResponse describes one catalog entry. Fields that do not apply to
// the entry's kind are omitted.
type ComponentResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	// Services
	Category  string   `json:"category,omitempty"`
	Image     string   `json:"image,omitempty"`
	Provides  []string `json:"provides,omitempty"`
	Requires  []string `json:"requires,omitempty"`
	Suggests  []string `json:"suggests,omitempty"`
	Conflicts []string `json:"conflicts,omitempty"`

	// Bundles
	Members    []string `json:"members,omitempty"`
	Optional   []string `json:"optional,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`

	// Capabilities
	Providers       []string `json:"providers,omitempty"`
	DefaultProvider string   `json:"default_provider,omitempty"`
}

// ListComponentsResponse is the response for listing the catalog.
type ListComponentsResponse struct {
	Components []ComponentResponse `json:"components"`
	Counts     map[string]int      `json:"counts"`
	Total      int                 `json:"total"`
}

// ListNetworkProfilesResponse is the response for listing network tiers.
type ListNetworkProfilesResponse struct {
	Profiles []network.ProfileInfo `json:"profiles"`
	Default  string                `json:"default"`
}

// GenerationResponse is a stored generation.
type GenerationResponse struct {
	ID               string             `json:"id"`
	Selection        []string           `json:"selection"`
	Tier             string             `json:"tier"`
	IncludeOptional  bool               `json:"include_optional"`
	IncludeSuggested bool               `json:"include_suggested"`
	Services         []string           `json:"services"`
	StartOrder       []string           `json:"start_order"`
	Compose          string             `json:"compose"`
	Validation       ValidationResponse `json:"validation"`
	CreatedAt        time.Time          `json:"created_at"`
}

// ListGenerationsResponse is the response for listing generations.
type ListGenerationsResponse struct {
	Generations []GenerationResponse `json:"generations"`
	Total       int                  `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// RefreshResponse is the response for reloading the manifests.
type RefreshResponse struct {
	Status   string         `json:"status"`
	LoadedAt time.Time      `json:"loaded_at"`
	Counts   map[string]int `json:"counts"`
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the response for readiness check.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the response for errors.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}
