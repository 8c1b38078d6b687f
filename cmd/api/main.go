// The api binary serves the authenticated REST surface.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/launchloom/server/pkg/api"
	"github.com/launchloom/server/pkg/auth"
	"github.com/launchloom/server/pkg/bootstrap"
	"github.com/launchloom/server/pkg/infrastructure/sentry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.NewLogger("api")

	if err := sentry.Init(sentry.ConfigFromEnv("api"), logger); err != nil {
		logger.Warn("Sentry init failed", "error", err)
	}
	defer sentry.Flush(2 * time.Second)

	svc, err := bootstrap.NewService(ctx)
	if err != nil {
		logger.Error("Service init failed", "error", err)
		os.Exit(1)
	}

	verifier, err := auth.NewVerifier(ctx, svc.Config.ProjectID)
	if err != nil {
		logger.Error("Auth verifier init failed", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(svc.DB, svc.Pub, verifier, os.Getenv("STRIPE_WEBHOOK_SECRET"), logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}()

	logger.Info("API listening", "port", port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("API shut down")
}
