package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/artpar/kitchen/internal/core/kitchen"
	"github.com/artpar/kitchen/internal/core/network"
	"github.com/artpar/kitchen/internal/core/validation"
	"github.com/artpar/kitchen/internal/shell/store"
)

// =============================================================================
// Compose Handlers
// =============================================================================

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	tierName := req.Tier
	if tierName == "" {
		tierName = string(h.defaultTier)
	}

	// Validate required fields using core validation
	if field, msg := validation.ValidateGenerateFields(req.Selection, tierName); field != "" {
		h.writeError(w, http.StatusBadRequest, msg, "validation_error")
		return
	}

	tier, err := network.ParseTier(tierName)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	includeOptional := h.includeOptional
	if req.IncludeOptional != nil {
		includeOptional = *req.IncludeOptional
	}

	genReq := kitchen.Request{
		Selection:        req.Selection,
		Tier:             tier,
		IncludeOptional:  includeOptional,
		IncludeSuggested: req.IncludeSuggested,
	}
	result, err := kitchen.Generate(h.catalog.Index(), genReq)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	resp := GenerateResponse{
		Tier:       string(tier),
		Services:   result.Services,
		StartOrder: result.StartOrder,
		Compose:    string(result.YAML),
		Validation: validationToResponse(result.Validation),
	}
	resp.ID = h.record(r.Context(), genReq, result)

	h.writeJSON(w, http.StatusOK, resp)
}

// record stores the generation and returns its ID. Failing to record is
// logged and does not fail the request.
func (h *Handler) record(ctx context.Context, req kitchen.Request, result *kitchen.Result) string {
	if h.store == nil {
		return ""
	}
	gen := &store.Generation{
		Selection:        req.Selection,
		Tier:             string(req.Tier),
		IncludeOptional:  req.IncludeOptional,
		IncludeSuggested: req.IncludeSuggested,
		Services:         result.Services,
		StartOrder:       result.StartOrder,
		ComposeYAML:      string(result.YAML),
		Valid:            result.Validation.Valid,
		Warnings:         result.Validation.Warnings,
		Errors:           result.Validation.Errors,
	}
	if err := h.store.CreateGeneration(ctx, gen); err != nil {
		h.logger.Warn("failed to record generation", "error", err)
		return ""
	}
	h.logger.Info("generation recorded",
		"generation_id", gen.ID,
		"tier", gen.Tier,
		"services", len(gen.Services),
		"valid", gen.Valid,
	)
	return gen.ID
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	if field, msg := validation.ValidateComposeField(req.Compose); field != "" {
		h.writeError(w, http.StatusBadRequest, msg, "validation_error")
		return
	}

	result := validation.ValidateYAML([]byte(req.Compose))
	h.writeJSON(w, http.StatusOK, validationToResponse(result))
}

func validationToResponse(result validation.Result) ValidationResponse {
	resp := ValidationResponse{
		Valid:    result.Valid,
		Warnings: result.Warnings,
		Errors:   result.Errors,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}
	return resp
}
