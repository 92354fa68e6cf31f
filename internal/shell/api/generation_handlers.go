package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/kitchen/internal/shell/store"
)

// =============================================================================
// Generation Handlers
// =============================================================================

func (h *Handler) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "generation history is disabled", "history_disabled")
		return
	}

	opts := listOptions(r)
	generations, err := h.store.ListGenerations(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list generations", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list generations", "internal_error")
		return
	}

	total, err := h.store.CountGenerations(r.Context())
	if err != nil {
		h.logger.Error("failed to count generations", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list generations", "internal_error")
		return
	}

	resp := ListGenerationsResponse{
		Generations: make([]GenerationResponse, 0, len(generations)),
		Total:       total,
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	}
	for i := range generations {
		resp.Generations = append(resp.Generations, generationToResponse(&generations[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "generation history is disabled", "history_disabled")
		return
	}

	id := chi.URLParam(r, "id")
	gen, err := h.store.GetGeneration(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "generation not found", "generation_not_found")
			return
		}
		h.logger.Error("failed to get generation", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get generation", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, generationToResponse(gen))
}

func generationToResponse(gen *store.Generation) GenerationResponse {
	resp := GenerationResponse{
		ID:               gen.ID,
		Selection:        gen.Selection,
		Tier:             gen.Tier,
		IncludeOptional:  gen.IncludeOptional,
		IncludeSuggested: gen.IncludeSuggested,
		Services:         gen.Services,
		StartOrder:       gen.StartOrder,
		Compose:          gen.ComposeYAML,
		Validation: ValidationResponse{
			Valid:    gen.Valid,
			Warnings: gen.Warnings,
			Errors:   gen.Errors,
		},
		CreatedAt: gen.CreatedAt,
	}
	if resp.Validation.Warnings == nil {
		resp.Validation.Warnings = []string{}
	}
	if resp.Validation.Errors == nil {
		resp.Validation.Errors = []string{}
	}
	return resp
}
