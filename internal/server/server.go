// Package server exposes the webhook pipeline and notifier jobs over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/propertystewards/steward/internal/webhook"
	"gorm.io/gorm"
)

// WebhookHandler handles a raw inbound webhook body.
type WebhookHandler interface {
	HandleRaw(ctx context.Context, body []byte) (webhook.Result, error)
}

// JobRunner runs a named scheduled job on demand.
type JobRunner interface {
	Run(ctx context.Context, name string) error
}

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	Webhook       WebhookHandler
	Jobs          JobRunner // optional; enables POST /jobs/:name
	DB            *gorm.DB  // optional; pinged by /healthz
	Port          int
	WebhookSecret string // empty disables signature checks
	Logger        *slog.Logger
}

// NewRouter builds the gin engine serving every route.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Webhook == nil {
		return nil, fmt.Errorf("server: webhook handler is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, opts)
	return router, nil
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WebhookSecret == "" {
		logger.Warn("webhook signature verification disabled: server.webhook_secret is empty")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("webhook server listening", "port", opts.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
