package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/launchloom/server/pkg/auth"
	"github.com/launchloom/server/pkg/models"
)

func (s *Server) handleGetBrandProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	profile, err := s.DB.GetBrandProfile(r.Context(), userID)
	if err != nil || profile == nil {
		s.writeError(w, http.StatusNotFound, "brand profile not set")
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handlePutBrandProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var profile models.BrandProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if profile.Name == "" {
		s.writeError(w, http.StatusBadRequest, "brand name is required")
		return
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.DB.SetBrandProfile(r.Context(), userID, &profile); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save brand profile")
		return
	}
	s.writeJSON(w, http.StatusOK, &profile)
}
