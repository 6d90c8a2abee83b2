// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	service "github.com/okian/resonance/internal/app"
	"github.com/okian/resonance/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	Resonance(ctx context.Context, artist, comparable model.MetricsRecord) model.ResonanceResult
	Tier(ctx context.Context, rec model.MetricsRecord) model.TierResult
	Retrain(ctx context.Context, rec model.MetricsRecord) (service.ModelInfo, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	resonanceHandler *ResonanceHandler
	tierHandler      *TierHandler
	retrainHandler   *RetrainHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		resonanceHandler: NewResonanceHandler(deps),
		tierHandler:      NewTierHandler(deps),
		retrainHandler:   NewRetrainHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/resonance", MetricsMiddleware(s.resonanceHandler.HandlePostResonance, "resonance"))
	mux.HandleFunc("/tier", MetricsMiddleware(s.tierHandler.HandlePostTier, "tier"))
	mux.HandleFunc("/model/retrain", MetricsMiddleware(s.retrainHandler.HandlePostRetrain, "retrain"))
}

// resonanceRequest is the body of POST /resonance.
type resonanceRequest struct {
	Artist     model.MetricsRecord `json:"artist"`
	Comparable model.MetricsRecord `json:"comparable"`
}

// tierRequest is the body of POST /tier.
type tierRequest struct {
	Metrics model.MetricsRecord `json:"metrics"`
}

// retrainRequest is the optional body of POST /model/retrain. The record
// selects the model key when models are scoped per input.
type retrainRequest struct {
	Artist model.MetricsRecord `json:"artist"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decode reads a JSON body into dst and validates it. An empty body is
// accepted only when allowEmpty is set.
func decode(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := validateStruct(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
