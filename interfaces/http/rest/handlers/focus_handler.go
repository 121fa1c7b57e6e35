package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"weaveclient/application/store"
	"weaveclient/domain/core/valueobjects"
	"weaveclient/pkg/common"
)

// FocusHandler drives the one-shot camera focus protocol: the renderer
// polls the pending target and acknowledges it by nonce
type FocusHandler struct {
	store  *store.CacheStore
	logger *zap.Logger
}

// NewFocusHandler creates a new focus handler
func NewFocusHandler(cacheStore *store.CacheStore, logger *zap.Logger) *FocusHandler {
	return &FocusHandler{store: cacheStore, logger: logger}
}

// GetFocus handles GET /focus. Responds 204 when no target is pending.
func (h *FocusHandler) GetFocus(w http.ResponseWriter, r *http.Request) {
	target := h.store.FocusTarget()
	if target == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	common.RespondJSON(w, http.StatusOK, target)
}

// RequestFocus handles POST /focus, issuing a target for an ad hoc point
func (h *FocusHandler) RequestFocus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Center valueobjects.Position `json:"center"`
		Radius float64               `json:"radius"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	target := h.store.RequestFocus(body.Center, body.Radius)
	common.RespondJSON(w, http.StatusOK, target)
}

// FocusSelection handles POST /focus/selection
func (h *FocusHandler) FocusSelection(w http.ResponseWriter, r *http.Request) {
	target := h.store.FocusOnSelection()
	if target == nil {
		common.RespondError(w, http.StatusConflict, "EMPTY_CACHE", "no cached nodes to focus")
		return
	}
	common.RespondJSON(w, http.StatusOK, target)
}

// AcknowledgeFocus handles POST /focus/ack
func (h *FocusHandler) AcknowledgeFocus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Nonce uint64 `json:"nonce"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	consumed := h.store.AcknowledgeFocus(body.Nonce)
	common.RespondJSON(w, http.StatusOK, map[string]bool{"consumed": consumed})
}
