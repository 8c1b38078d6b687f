// Package api serves the authenticated REST surface: campaign CRUD, channel
// re-runs, the brand profile, and the Stripe billing webhook. Generation
// itself never runs in a request handler; creating a campaign enqueues a job
// and returns immediately.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/auth"
)

// Server carries the API's dependencies.
type Server struct {
	DB       shared.Database
	Pub      shared.Publisher
	Verifier auth.TokenVerifier
	Logger   *slog.Logger

	// StripeWebhookSecret validates billing webhook signatures.
	StripeWebhookSecret string
}

func NewServer(db shared.Database, pub shared.Publisher, verifier auth.TokenVerifier, stripeSecret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		DB:                  db,
		Pub:                 pub,
		Verifier:            verifier,
		Logger:              logger.With("component", "api"),
		StripeWebhookSecret: stripeSecret,
	}
}

// Router assembles the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Webhooks authenticate via signature, not bearer token.
	r.Post("/webhooks/stripe", s.handleStripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.Verifier))

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", s.handleListCampaigns)
			r.Post("/", s.handleCreateCampaign)
			r.Route("/{campaignID}", func(r chi.Router) {
				r.Get("/", s.handleGetCampaign)
				r.Delete("/", s.handleDeleteCampaign)
				r.Post("/channels/{channel}/rerun", s.handleRerunChannel)
			})
		})

		r.Route("/brand-profile", func(r chi.Router) {
			r.Get("/", s.handleGetBrandProfile)
			r.Put("/", s.handlePutBrandProfile)
		})
	})

	return r
}

// writeJSON writes a JSON response body with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
