package api

import (
	"log/slog"
	"net/http"

	"github.com/artpar/kitchen/internal/core/network"
	"github.com/artpar/kitchen/internal/shell/api/openapi"
	"github.com/artpar/kitchen/internal/shell/store"
)

// =============================================================================
// API Setup
// =============================================================================

// APIConfig holds configuration for the API setup.
type APIConfig struct {
	Catalog Catalog
	Store   store.Store // nil disables generation history
	Logger  *slog.Logger
	Version string

	// AdminToken guards /admin routes. Empty leaves them open.
	AdminToken string

	// Defaults for generate requests that leave these out
	DefaultTier     network.Tier
	IncludeOptional bool
}

// SetupAPI creates the complete API router.
func SetupAPI(cfg APIConfig) http.Handler {
	return NewHandler(cfg).Routes()
}

// registerOperations describes every route for /openapi.json.
func registerOperations(g *openapi.Generator) {
	ops := []openapi.Operation{
		{Method: http.MethodGet, Path: "/health", ID: "health", Summary: "Liveness check", Tag: "Health", Response: HealthResponse{}},
		{Method: http.MethodGet, Path: "/ready", ID: "ready", Summary: "Readiness check", Tag: "Health", Response: ReadyResponse{}},
		{Method: http.MethodPost, Path: "/api/v1/compose/generate", ID: "generateCompose", Summary: "Resolve a selection and generate a compose document", Tag: "Compose", Request: GenerateRequest{}, Response: GenerateResponse{}},
		{Method: http.MethodPost, Path: "/api/v1/compose/validate", ID: "validateCompose", Summary: "Validate a compose document", Tag: "Compose", Request: ValidateRequest{}, Response: ValidationResponse{}},
		{Method: http.MethodGet, Path: "/api/v1/components", ID: "listComponents", Summary: "List services, bundles and capabilities", Tag: "Catalog", Response: ListComponentsResponse{}},
		{Method: http.MethodGet, Path: "/api/v1/components/{kind}/{id}", ID: "getComponent", Summary: "Get one catalog entry", Tag: "Catalog", Response: ComponentResponse{}},
		{Method: http.MethodGet, Path: "/api/v1/network-profiles", ID: "listNetworkProfiles", Summary: "List network tiers", Tag: "Catalog", Response: ListNetworkProfilesResponse{}},
		{Method: http.MethodGet, Path: "/api/v1/generations", ID: "listGenerations", Summary: "List recorded generations", Tag: "Generations", Response: ListGenerationsResponse{}, QueryParams: []string{"limit", "offset"}},
		{Method: http.MethodGet, Path: "/api/v1/generations/{id}", ID: "getGeneration", Summary: "Get a recorded generation", Tag: "Generations", Response: GenerationResponse{}},
		{Method: http.MethodPost, Path: "/admin/cache/refresh", ID: "refreshCatalog", Summary: "Reload the manifests", Tag: "Admin", Response: RefreshResponse{}},
	}
	for _, op := range ops {
		g.Register(op)
	}
}
