package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/kitchen/internal/core/manifest"
	"github.com/artpar/kitchen/internal/core/network"
)

// =============================================================================
// Catalog Handlers
// =============================================================================

func (h *Handler) handleListComponents(w http.ResponseWriter, r *http.Request) {
	idx := h.catalog.Index()

	var only manifest.Kind
	if kind := r.URL.Query().Get("kind"); kind != "" {
		k, ok := manifest.ParseKind(kind)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "unknown component kind: "+kind, "validation_error")
			return
		}
		only = k
	}

	resp := ListComponentsResponse{
		Components: make([]ComponentResponse, 0),
		Counts:     make(map[string]int),
	}
	for kind, count := range idx.Counts() {
		resp.Counts[string(kind)] = count
	}

	include := func(kind manifest.Kind) bool { return only == "" || only == kind }

	if include(manifest.KindService) {
		for _, id := range idx.ServiceIDs() {
			svc, _ := idx.Service(id)
			resp.Components = append(resp.Components, serviceToResponse(svc))
		}
	}
	for _, kind := range []manifest.Kind{manifest.KindCombo, manifest.KindBento, manifest.KindPlatter} {
		if !include(kind) {
			continue
		}
		for _, b := range idx.Bundles(kind) {
			resp.Components = append(resp.Components, bundleToResponse(b))
		}
	}
	if include(manifest.KindCapability) {
		for _, id := range idx.CapabilityIDs() {
			resp.Components = append(resp.Components, capabilityToResponse(idx, id))
		}
	}
	resp.Total = len(resp.Components)

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	kindParam := chi.URLParam(r, "kind")
	id := chi.URLParam(r, "id")

	kind, ok := manifest.ParseKind(kindParam)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown component kind: "+kindParam, "validation_error")
		return
	}

	idx := h.catalog.Index()
	if idx.Lookup(id).Kind != kind {
		h.writeError(w, http.StatusNotFound, string(kind)+" not found: "+id, "component_not_found")
		return
	}

	var resp ComponentResponse
	switch kind {
	case manifest.KindService:
		svc, _ := idx.Service(id)
		resp = serviceToResponse(svc)
	case manifest.KindCapability:
		resp = capabilityToResponse(idx, id)
	default:
		b, _ := idx.Bundle(id)
		resp = bundleToResponse(b)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListNetworkProfiles(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, ListNetworkProfilesResponse{
		Profiles: network.Profiles(),
		Default:  string(h.defaultTier),
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Reload(); err != nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "manifest reload failed, previous catalog kept",
			Code:    "reload_failed",
			Details: []string{err.Error()},
		})
		return
	}

	counts := make(map[string]int)
	for kind, count := range h.catalog.Index().Counts() {
		counts[string(kind)] = count
	}
	h.writeJSON(w, http.StatusOK, RefreshResponse{
		Status:   "reloaded",
		LoadedAt: h.catalog.LoadedAt(),
		Counts:   counts,
	})
}

// =============================================================================
// Conversions
// =============================================================================

func serviceToResponse(svc *manifest.Service) ComponentResponse {
	return ComponentResponse{
		ID:          svc.ID,
		Kind:        string(manifest.KindService),
		Name:        svc.Name,
		Description: svc.Description,
		Category:    svc.Category,
		Image:       svc.ImageRef(),
		Provides:    svc.Provides,
		Requires:    svc.Requires,
		Suggests:    svc.Suggests,
		Conflicts:   svc.Conflicts,
	}
}

func bundleToResponse(b *manifest.Bundle) ComponentResponse {
	return ComponentResponse{
		ID:          b.ID,
		Kind:        string(b.Kind),
		Name:        b.Name,
		Description: b.Description,
		Provides:    b.Provides,
		Members:     b.Members(false),
		Optional:    b.Optional,
		Difficulty:  b.Difficulty,
	}
}

func capabilityToResponse(idx *manifest.Index, id string) ComponentResponse {
	resp := ComponentResponse{
		ID:        id,
		Kind:      string(manifest.KindCapability),
		Providers: idx.Providers(id),
	}
	if c, ok := idx.Capability(id); ok {
		resp.Description = c.Description
	}
	if provider, ok := idx.DefaultProvider(id); ok {
		resp.DefaultProvider = provider
	}
	return resp
}
