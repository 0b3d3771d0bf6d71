package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/Kr-bhairav/Study-Optimizer/internal/middleware"
	"github.com/Kr-bhairav/Study-Optimizer/internal/models"
	"github.com/Kr-bhairav/Study-Optimizer/internal/services"
)

type StudySessionHandler struct {
	service *services.SessionService
}

func NewStudySessionHandler(service *services.SessionService) *StudySessionHandler {
	return &StudySessionHandler{service: service}
}

func (h *StudySessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session": session,
	})
}

func (h *StudySessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessions, err := h.service.ListByOwner(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if sessions == nil {
		sessions = []models.StudySession{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

func (h *StudySessionHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	reminders, err := h.service.DueReminders(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if reminders == nil {
		reminders = []models.StudySession{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reminders": reminders,
	})
}

func (h *StudySessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CompleteSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session_id", r))
		return
	}

	session, err := h.service.Complete(r.Context(), userID, sessionID, req.Difficulty)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
	})
}
