package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/propertystewards/steward/internal/notify"
	"github.com/propertystewards/steward/internal/wassenger"
	"gorm.io/gorm"
)

// maxBodyBytes caps inbound webhook bodies.
const maxBodyBytes = 1 << 20

// webhookTimeout bounds one delivery once it is detached from the caller.
const webhookTimeout = 2 * time.Minute

// signatureHeaders are checked in order for the webhook HMAC.
var signatureHeaders = []string{"X-Hub-Signature-256", "X-Hub-Signature", "X-Webhook-Signature"}

// registerRoutes sets up all routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	router.GET("/healthz", handleHealth(opts.DB))
	router.POST("/webhook", handleWebhook(opts.Webhook, opts.WebhookSecret, opts.Logger))
	if opts.Jobs != nil {
		router.POST("/jobs/:name", handleJob(opts.Jobs, opts.Logger))
	}
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleWebhook(h WebhookHandler, secret string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"status": "error", "message": "body too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "unreadable body"})
			return
		}

		if err := wassenger.Verify(signature(c), body, secret); err != nil {
			logger.Warn("webhook rejected", "remote", c.ClientIP(), "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid signature"})
			return
		}

		// Processing outlives a dropped provider connection.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), webhookTimeout)
		defer cancel()
		res, err := h.HandleRaw(ctx, body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Internal server error",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func signature(c *gin.Context) string {
	for _, h := range signatureHeaders {
		if v := c.GetHeader(h); v != "" {
			return v
		}
	}
	return ""
}

func handleJob(jobs JobRunner, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		err := jobs.Run(c.Request.Context(), name)
		switch {
		case errors.Is(err, notify.ErrUnknownJob):
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": err.Error()})
		case err != nil:
			logger.Error("job failed", "job", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"status": "success", "message": name + " processed"})
		}
	}
}
