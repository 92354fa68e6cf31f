// Package api provides HTTP handlers for the Kitchen API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/artpar/kitchen/internal/core/compose"
	"github.com/artpar/kitchen/internal/core/manifest"
	"github.com/artpar/kitchen/internal/core/network"
	"github.com/artpar/kitchen/internal/core/resolver"
	kmw "github.com/artpar/kitchen/internal/shell/api/middleware"
	"github.com/artpar/kitchen/internal/shell/api/openapi"
	"github.com/artpar/kitchen/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// Catalog supplies the manifest index. The shell manifest Catalog implements it.
type Catalog interface {
	Index() *manifest.Index
	Reload() error
	LoadedAt() time.Time
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	catalog         Catalog
	store           store.Store
	logger          *slog.Logger
	adminToken      string
	defaultTier     network.Tier
	includeOptional bool
	openapi         *openapi.Generator
}

// NewHandler creates a new API handler.
func NewHandler(cfg APIConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DefaultTier == "" {
		cfg.DefaultTier = network.TierOpen
	}
	h := &Handler{
		catalog:         cfg.Catalog,
		store:           cfg.Store,
		logger:          cfg.Logger.With("component", "api"),
		adminToken:      cfg.AdminToken,
		defaultTier:     cfg.DefaultTier,
		includeOptional: cfg.IncludeOptional,
		openapi: openapi.NewGenerator(
			openapi.WithTitle("Kitchen API"),
			openapi.WithVersion(cfg.Version),
			openapi.WithDescription("Resolve service bundles and generate Docker Compose documents"),
		),
	}
	registerOperations(h.openapi)
	return h
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(kmw.RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/compose", func(r chi.Router) {
			r.Post("/generate", h.handleGenerate)
			r.Post("/validate", h.handleValidate)
		})

		r.Route("/components", func(r chi.Router) {
			r.Get("/", h.handleListComponents)
			r.Get("/{kind}/{id}", h.handleGetComponent)
		})

		r.Get("/network-profiles", h.handleListNetworkProfiles)

		r.Route("/generations", func(r chi.Router) {
			r.Get("/", h.handleListGenerations)
			r.Get("/{id}", h.handleGetGeneration)
		})
	})

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(kmw.AdminToken(h.adminToken, h.logger))
		r.Post("/cache/refresh", h.handleRefresh)
	})

	r.Get("/openapi.json", h.openapi.Handler())

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	ready := true

	if h.catalog != nil && h.catalog.Index() != nil {
		checks["manifests"] = "ok"
	} else {
		checks["manifests"] = "failed"
		ready = false
	}

	if h.store != nil {
		if _, err := h.store.CountGenerations(r.Context()); err != nil {
			h.logger.Error("database check failed", "error", err)
			checks["database"] = "failed"
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}

	if !ready {
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writePipelineError maps a generation failure to a status and error code.
func (h *Handler) writePipelineError(w http.ResponseWriter, err error) {
	status, code := classifyError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("generation failed", "error", err)
		h.writeError(w, status, "generation failed", code)
		return
	}
	h.writeError(w, status, err.Error(), code)
}

// classifyError returns the HTTP status and error code for err.
func classifyError(err error) (int, string) {
	var (
		unknownID   *resolver.UnknownIdentifierError
		unknownTier *network.UnknownTierError
		unresolved  *resolver.UnresolvedCapabilityError
		cycle       *resolver.CyclicBundleError
		collision   *compose.ShortNameCollisionError
	)
	switch {
	case errors.Is(err, resolver.ErrEmptySelection):
		return http.StatusBadRequest, "empty_selection"
	case errors.As(err, &unknownID):
		return http.StatusBadRequest, "unknown_identifier"
	case errors.As(err, &unknownTier):
		return http.StatusBadRequest, "unknown_tier"
	case errors.As(err, &unresolved):
		return http.StatusUnprocessableEntity, "unresolved_capability"
	case errors.As(err, &cycle):
		return http.StatusUnprocessableEntity, "cyclic_bundle"
	case errors.As(err, &collision):
		return http.StatusUnprocessableEntity, "name_collision"
	case isNotFound(err):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// listOptions reads limit and offset query parameters.
func listOptions(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}

	return opts.Normalize()
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	return store.IsNotFound(err)
}
