package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rhinoai/cad-interpreter/internal/middleware"
	"github.com/rhinoai/cad-interpreter/internal/model"
	"github.com/rhinoai/cad-interpreter/internal/scene"
	"github.com/rhinoai/cad-interpreter/internal/service"
	"github.com/rhinoai/cad-interpreter/pkg/logger"
)

// InterpretHandler handles interpretation and scene endpoints.
type InterpretHandler struct {
	service *service.SessionService
	scene   *scene.Store
	logger  *logger.Logger
}

// NewInterpretHandler creates a new interpretation handler.
func NewInterpretHandler(svc *service.SessionService, store *scene.Store, log *logger.Logger) *InterpretHandler {
	return &InterpretHandler{
		service: svc,
		scene:   store,
		logger:  log,
	}
}

// Interpret handles POST /api/v1/sessions/:id/interpret
func (h *InterpretHandler) Interpret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.InterpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateInput(req.Input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Interpret(ctx, tenantID, sessionID, req.Input)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("interpretation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "interpretation failed")
		return
	}

	writeJSON(w, http.StatusOK, model.InterpretResponse{
		SessionID: sessionID,
		Result:    *result,
	})
}

// Scene handles GET /api/v1/scene
func (h *InterpretHandler) Scene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"objects": h.scene.Objects(),
	})
}

// Select handles POST /api/v1/scene/selection
func (h *InterpretHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ObjectIDs []string `json:"object_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.scene.Select(req.ObjectIDs)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"selected": req.ObjectIDs,
	})
}
