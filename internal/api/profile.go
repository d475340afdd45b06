package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cinescope/backend/internal/auth"
)

// ProfileHandlers serves the current-user endpoints consumed by the catalog
// pages. They trust only the user ID that auth.RequireUser verified.
type ProfileHandlers struct {
	service *auth.Service
	log     *slog.Logger
}

func NewProfileHandlers(service *auth.Service) *ProfileHandlers {
	return &ProfileHandlers{
		service: service,
		log:     slog.Default().With(slog.String("component", "profile")),
	}
}

type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Image *string `json:"image,omitempty"`
}

func (h *ProfileHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, auth.ErrorResponse{Error: "Not authenticated"})
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, auth.ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error("failed to load user", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, auth.ErrorResponse{Error: "failed to load user"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]*auth.UserInfo{"user": user})
}

func (h *ProfileHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, auth.ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, auth.ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == nil && req.Image == nil {
		writeJSON(w, http.StatusBadRequest, auth.ErrorResponse{Error: "nothing to update"})
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, req.Name, req.Image)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, auth.ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error("failed to update profile", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, auth.ErrorResponse{Error: "failed to update profile"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]*auth.UserInfo{"user": user})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
