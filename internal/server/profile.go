package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MadScientist85/Ai-Web-App/internal/auth"
	"github.com/MadScientist85/Ai-Web-App/internal/profile"
)

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch profile")
		writeError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": p})
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var u profile.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.profiles.Upsert(r.Context(), userID, u)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to update profile")
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": p})
}
