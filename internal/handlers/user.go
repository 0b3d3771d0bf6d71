package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Kr-bhairav/Study-Optimizer/internal/middleware"
	"github.com/Kr-bhairav/Study-Optimizer/internal/models"
)

// UserGetter is the slice of the user repository this handler needs.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type UserHandler struct {
	userRepo UserGetter
}

func NewUserHandler(userRepo UserGetter) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": user,
	})
}
