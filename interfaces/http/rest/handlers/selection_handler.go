package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"weaveclient/application/store"
	"weaveclient/domain/core/valueobjects"
	"weaveclient/pkg/common"
)

// SelectionHandler exposes selection replacement and viewport sampling
type SelectionHandler struct {
	store  *store.CacheStore
	logger *zap.Logger
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(cacheStore *store.CacheStore, logger *zap.Logger) *SelectionHandler {
	return &SelectionHandler{store: cacheStore, logger: logger}
}

// SelectNodes handles POST /selection/nodes
func (h *SelectionHandler) SelectNodes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	h.store.SelectNodes(body.IDs)
	common.RespondJSON(w, http.StatusOK, map[string][]string{
		"selected_nodes": h.store.SelectedNodeIDs(),
	})
}

// SelectEdges handles POST /selection/edges
func (h *SelectionHandler) SelectEdges(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	h.store.SelectEdges(body.IDs)
	common.RespondJSON(w, http.StatusOK, map[string][]string{
		"selected_edges": h.store.SelectedEdgeIDs(),
	})
}

// ReportViewport handles POST /viewport
func (h *SelectionHandler) ReportViewport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Center   valueobjects.Position `json:"center"`
		Radius   float64               `json:"radius"`
		Distance float64               `json:"distance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	sample := valueobjects.ViewportSample{
		Center:    body.Center,
		Radius:    body.Radius,
		Distance:  body.Distance,
		SampledAt: time.Now(),
	}

	triggered, err := h.store.ReportViewport(r.Context(), sample)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]bool{"segment_loaded": triggered})
}
