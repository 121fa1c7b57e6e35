package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"weaveclient/application/ports"
	"weaveclient/application/services"
	"weaveclient/pkg/common"
)

// MutationHandler exposes structural edits through the mutation façade
type MutationHandler struct {
	editor *services.WeaveEditor
	logger *zap.Logger
}

// NewMutationHandler creates a new mutation handler
func NewMutationHandler(editor *services.WeaveEditor, logger *zap.Logger) *MutationHandler {
	return &MutationHandler{editor: editor, logger: logger}
}

// CreateNode handles POST /nodes
func (h *MutationHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var input ports.NodeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	node, err := h.editor.CreateNode(r.Context(), input)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, node)
}

// UpdateNode handles PUT /nodes/{nodeID}
func (h *MutationHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	var input ports.NodeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	node, err := h.editor.UpdateNode(r.Context(), nodeID, input)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode handles DELETE /nodes/{nodeID}
func (h *MutationHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	removedEdges, err := h.editor.DeleteNode(r.Context(), nodeID)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"removed_edge_ids": removedEdges,
	})
}

// CreateEdge handles POST /edges
func (h *MutationHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var input ports.EdgeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	edge, err := h.editor.CreateEdge(r.Context(), input)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, edge)
}

// UpdateEdge handles PUT /edges/{edgeID}
func (h *MutationHandler) UpdateEdge(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")

	var input ports.EdgeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}

	edge, err := h.editor.UpdateEdge(r.Context(), edgeID, input)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, edge)
}

// DeleteEdge handles DELETE /edges/{edgeID}
func (h *MutationHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")

	if err := h.editor.DeleteEdge(r.Context(), edgeID); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
