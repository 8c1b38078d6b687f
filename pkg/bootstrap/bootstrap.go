package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/infrastructure/database"
	"github.com/launchloom/server/pkg/infrastructure/generative"
	"github.com/launchloom/server/pkg/infrastructure/notifications"
	infrapubsub "github.com/launchloom/server/pkg/infrastructure/pubsub"
	infrastorage "github.com/launchloom/server/pkg/infrastructure/storage"
)

// Config holds standard configuration for all services
type Config struct {
	ProjectID     string
	EnablePublish bool
	AssetsBucket  string
	SignedURLTTL  time.Duration
	GeminiAPIKey  string
}

// Service holds initialized dependencies. Handles are constructed explicitly
// here and injected; nothing is initialized at import time.
type Service struct {
	DB            shared.Database
	Store         shared.BlobStore
	Pub           shared.Publisher
	Text          shared.TextGenerator
	Media         shared.MediaGenerator
	Notifications shared.NotificationService
	Firestore     *firestore.Client
	Config        *Config
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = shared.ProjectID // Fallback
	}

	ttl := time.Duration(shared.DefaultSignedURLTTLSeconds) * time.Second
	if raw := os.Getenv("SIGNED_URL_TTL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}

	return &Config{
		ProjectID:     projectID,
		EnablePublish: os.Getenv("ENABLE_PUBLISH") == "true",
		AssetsBucket:  os.Getenv("ASSETS_BUCKET"),
		SignedURLTTL:  ttl,
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
	}
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message
type ComponentHandler struct {
	slog.Handler
	component string
}

// WithGroup implements slog.Handler
func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{
		Handler:   h.Handler.WithGroup(name),
		component: h.component,
	}
}

// WithAttrs implements slog.Handler
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newComp := h.component
	for _, a := range attrs {
		if a.Key == "component" {
			newComp = a.Value.String()
		}
	}
	return &ComponentHandler{
		Handler:   h.Handler.WithAttrs(attrs),
		component: newComp,
	}
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	comp := h.component

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			comp = a.Value.String()
			return false // stop
		}
		return true
	})

	if comp != "" {
		newMsg := fmt.Sprintf("[%s] %s", comp, r.Message)
		newRecord := slog.NewRecord(r.Time, r.Level, newMsg, r.PC)
		// Keep the component attribute in the structured payload.
		r.Attrs(func(a slog.Attr) bool {
			newRecord.AddAttrs(a)
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// InitLogger configures structured logging with Cloud Logging compatible keys
func InitLogger() {
	opts := GetSlogHandlerOptions(slog.LevelInfo)
	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(&ComponentHandler{Handler: handler})
	slog.SetDefault(logger)
}

// NewLogger creates a configured logger instance
func NewLogger(serviceName string) *slog.Logger {
	logLevelStr := os.Getenv("LOG_LEVEL")
	var level slog.Level
	switch strings.ToLower(logLevelStr) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := GetSlogHandlerOptions(level)
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}

// NewService initializes all standard dependencies
func NewService(ctx context.Context) (*Service, error) {
	InitLogger()
	cfg := LoadConfig()

	slog.Info("Initializing service", "project_id", cfg.ProjectID)

	// Firestore
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Firestore init failed", "error", err)
		return nil, fmt.Errorf("firestore init: %w", err)
	}

	// Pub/Sub
	var pubAdapter shared.Publisher
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			slog.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		pubAdapter = &infrapubsub.PubSubAdapter{Client: psClient}
		slog.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		pubAdapter = &infrapubsub.LogPublisher{}
		slog.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	// Storage
	gcsClient, err := storage.NewClient(ctx)
	if err != nil {
		slog.Error("Storage init failed", "error", err)
		return nil, fmt.Errorf("storage init: %w", err)
	}

	db := database.NewFirestoreAdapter(fsClient)

	// Push notifications are best-effort: a failed FCM init degrades to no
	// notifications rather than failing startup.
	var notifier shared.NotificationService
	if app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}); err != nil {
		slog.Warn("Firebase init failed, notifications disabled", "error", err)
	} else if fcm, err := notifications.NewFCMAdapter(ctx, app, db); err != nil {
		slog.Warn("FCM init failed, notifications disabled", "error", err)
	} else {
		notifier = fcm
	}

	return &Service{
		DB:            db,
		Pub:           pubAdapter,
		Store:         &infrastorage.StorageAdapter{Client: gcsClient},
		Text:          generative.NewTextClient(cfg.GeminiAPIKey),
		Media:         generative.NewMediaClient(cfg.GeminiAPIKey),
		Notifications: notifier,
		Firestore:     fsClient,
		Config:        cfg,
	}, nil
}
