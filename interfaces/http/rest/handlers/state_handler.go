package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"weaveclient/application/store"
	"weaveclient/pkg/common"
	pkgerrors "weaveclient/pkg/errors"
)

// StateHandler exposes the cache store's reactive state to the
// rendering layer
type StateHandler struct {
	store  *store.CacheStore
	logger *zap.Logger
}

// NewStateHandler creates a new state handler
func NewStateHandler(cacheStore *store.CacheStore, logger *zap.Logger) *StateHandler {
	return &StateHandler{store: cacheStore, logger: logger}
}

// GetState handles GET /state
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.store.Snapshot())
}

// ListWeaves handles GET /weaves
func (h *StateHandler) ListWeaves(w http.ResponseWriter, r *http.Request) {
	listing := h.store.AvailableWeaves()
	if listing == nil {
		listing = []store.WeaveSummary{}
	}
	common.RespondJSON(w, http.StatusOK, listing)
}

// Refresh handles POST /refresh
func (h *StateHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Refresh(r.Context()); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, h.store.Snapshot())
}

// SetActiveWeave handles POST /weave
func (h *StateHandler) SetActiveWeave(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WeaveID string `json:"weave_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	if err := h.store.SetActiveWeave(r.Context(), body.WeaveID); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, h.store.Snapshot())
}

// respondAppError maps an error to the envelope, using the AppError's
// HTTP status when one is attached
func respondAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.RespondError(w, status, string(appErr.Type), appErr.Message)
		return
	}

	logger.Error("unclassified error", zap.Error(err))
	common.RespondError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
}
