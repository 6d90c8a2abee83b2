package api

import (
	"fmt"
	"net/http"
)

// ResonanceHandler handles resonance requests.
type ResonanceHandler struct {
	deps Dependencies
}

// NewResonanceHandler creates a new resonance handler.
func NewResonanceHandler(deps Dependencies) *ResonanceHandler {
	return &ResonanceHandler{deps: deps}
}

// HandlePostResonance handles POST /resonance requests. The service never
// fails a well-formed request; training problems surface as a fallback
// result with status 200.
func (h *ResonanceHandler) HandlePostResonance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resonanceRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Resonance(r.Context(), req.Artist, req.Comparable))
}

// TierHandler handles tier requests.
type TierHandler struct {
	deps Dependencies
}

// NewTierHandler creates a new tier handler.
func NewTierHandler(deps Dependencies) *TierHandler {
	return &TierHandler{deps: deps}
}

// HandlePostTier handles POST /tier requests.
func (h *TierHandler) HandlePostTier(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req tierRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Tier(r.Context(), req.Metrics))
}

// RetrainHandler handles explicit model retraining.
type RetrainHandler struct {
	deps Dependencies
}

// NewRetrainHandler creates a new retrain handler.
func NewRetrainHandler(deps Dependencies) *RetrainHandler {
	return &RetrainHandler{deps: deps}
}

// HandlePostRetrain handles POST /model/retrain requests.
func (h *RetrainHandler) HandlePostRetrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req retrainRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	info, err := h.deps.Retrain(r.Context(), req.Artist)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "retrain_failed", fmt.Errorf("%w: %w", ErrRetrain, err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}
