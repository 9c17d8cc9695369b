// Package handlers implements the REST API request handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/commander-crafter/internal/api/response"
	"github.com/ramonehamilton/commander-crafter/internal/engine"
)

// RecommendationHandler serves commander listings and recommendation
// queries.
type RecommendationHandler struct {
	engine *engine.Engine
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(eng *engine.Engine) *RecommendationHandler {
	return &RecommendationHandler{engine: eng}
}

// GetCommanders lists commanders with recorded pair data.
func (h *RecommendationHandler) GetCommanders(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.engine.Commanders())
}

// GetCommanderInfo returns the consensus synergy profile for a commander.
func (h *RecommendationHandler) GetCommanderInfo(w http.ResponseWriter, r *http.Request) {
	// Card names contain spaces and punctuation, so the path segment
	// arrives percent-encoded.
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		response.BadRequest(w, errors.New("commander name is required"))
		return
	}

	info, err := h.engine.Info(name)
	if err != nil {
		var unknown *engine.UnknownCommanderError
		if errors.As(err, &unknown) {
			response.NotFound(w, err)
			return
		}
		response.InternalError(w, err)
		return
	}

	response.Success(w, info)
}

// RecommendRequest is the body of a recommendation query.
type RecommendRequest struct {
	Commander    string   `json:"commander"`
	TopK         int      `json:"top_k"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
	ExcludeKnown bool     `json:"exclude_known"`
}

// Recommend runs a recommendation query.
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Commander == "" {
		response.BadRequest(w, errors.New("commander is required"))
		return
	}
	if req.MaxPrice != nil && *req.MaxPrice < 0 {
		response.BadRequest(w, errors.New("max_price must not be negative"))
		return
	}

	recs, err := h.engine.Recommend(r.Context(), req.Commander, engine.Query{
		TopK:         req.TopK,
		MaxPrice:     req.MaxPrice,
		ExcludeKnown: req.ExcludeKnown,
	})
	if err != nil {
		var unknown *engine.UnknownCommanderError
		if errors.As(err, &unknown) {
			response.NotFound(w, err)
			return
		}
		response.InternalError(w, err)
		return
	}

	response.Success(w, recs)
}
