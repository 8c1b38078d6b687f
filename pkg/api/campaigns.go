package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/auth"
	"github.com/launchloom/server/pkg/domain/plan"
	infrapubsub "github.com/launchloom/server/pkg/infrastructure/pubsub"
	"github.com/launchloom/server/pkg/models"
)

type createCampaignRequest struct {
	Goal     string            `json:"goal"`
	Channels []string          `json:"channels"`
	Answers  map[string]string `json:"answers,omitempty"`
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Goal == "" || len(req.Channels) == 0 {
		s.writeError(w, http.StatusBadRequest, "goal and channels are required")
		return
	}

	user, err := s.DB.GetUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	if plan.ShouldResetGenerationCount(user) {
		if err := s.DB.ResetGenerationCount(r.Context(), userID); err != nil {
			s.Logger.Warn("Failed to reset generation count", "user_id", userID, "error", err)
		} else {
			user.GenerationCountThisMonth = 0
		}
	}

	if allowed, reason := plan.CanGenerate(user); !allowed {
		if err := s.DB.IncrementBlockedGenerationCount(r.Context(), userID); err != nil {
			s.Logger.Warn("Failed to count blocked generation", "user_id", userID, "error", err)
		}
		s.writeError(w, http.StatusPaymentRequired, reason)
		return
	}

	now := time.Now().UTC()
	campaign := &models.Campaign{
		ID:        uuid.NewString(),
		UserID:    userID,
		Goal:      req.Goal,
		Channels:  req.Channels,
		Answers:   req.Answers,
		Status:    models.CampaignStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.DB.SetCampaign(r.Context(), userID, campaign); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to create campaign")
		return
	}

	if err := s.enqueueGeneration(r, &models.GenerationJob{
		CampaignID: campaign.ID,
		UserID:     userID,
	}); err != nil {
		s.Logger.Error("Failed to enqueue generation", "campaign_id", campaign.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to start generation")
		return
	}

	s.writeJSON(w, http.StatusAccepted, campaign)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	campaigns, err := s.DB.ListCampaigns(r.Context(), userID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list campaigns")
		return
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}
	s.writeJSON(w, http.StatusOK, campaigns)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	campaign, err := s.DB.GetCampaign(r.Context(), userID, chi.URLParam(r, "campaignID"))
	if err != nil || campaign == nil {
		s.writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	s.writeJSON(w, http.StatusOK, campaign)
}

func (s *Server) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	campaignID := chi.URLParam(r, "campaignID")

	if err := s.DB.DeleteCampaign(r.Context(), userID, campaignID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to delete campaign")
		return
	}
	// Checkpoint may or may not exist; deleting it keeps the recovery sweep
	// from resurrecting a deleted campaign.
	if err := s.DB.DeleteCheckpoint(r.Context(), campaignID); err != nil {
		s.Logger.Warn("Failed to delete checkpoint", "campaign_id", campaignID, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRerunChannel re-enqueues generation for a single failed channel.
func (s *Server) handleRerunChannel(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	campaignID := chi.URLParam(r, "campaignID")
	channel := chi.URLParam(r, "channel")

	campaign, err := s.DB.GetCampaign(r.Context(), userID, campaignID)
	if err != nil || campaign == nil {
		s.writeError(w, http.StatusNotFound, "campaign not found")
		return
	}

	result := campaign.ChannelResults[channel]
	if result == nil {
		s.writeError(w, http.StatusBadRequest, "channel has no prior run")
		return
	}
	if result.Status != models.ChannelStatusFailed {
		s.writeError(w, http.StatusConflict, "only failed channels can be re-run")
		return
	}

	// Reset the channel and queue a single-channel run. The worker re-plans
	// any channel whose stored blueprint was a manual-action placeholder, so
	// a degraded plan does not re-fail identically.
	updates := map[string]interface{}{
		"channel_results." + channel: &models.ChannelResult{
			Channel: channel,
			Status:  models.ChannelStatusPending,
		},
		"status":     models.CampaignStatusGenerating,
		"updated_at": time.Now().UTC(),
	}
	if err := s.DB.UpdateCampaign(r.Context(), userID, campaignID, updates); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to reset channel")
		return
	}

	if err := s.enqueueGeneration(r, &models.GenerationJob{
		CampaignID:   campaignID,
		UserID:       userID,
		OnlyChannels: []string{channel},
	}); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to enqueue re-run")
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"channel": channel, "status": "queued"})
}

func (s *Server) enqueueGeneration(r *http.Request, job *models.GenerationJob) error {
	e, err := infrapubsub.NewCloudEvent("api", infrapubsub.EventTypeGenerationRequested, job)
	if err != nil {
		return err
	}
	_, err = s.Pub.PublishCloudEvent(r.Context(), shared.TopicCampaignGeneration, e)
	return err
}
