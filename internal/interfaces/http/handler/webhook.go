package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/application/webhook"
	"github.com/dhruvretails/backend/internal/interfaces/http/dto"
)

// maxWebhookBody bounds a single webhook delivery body
const maxWebhookBody = 1 << 20

// Platform delivery headers
const (
	headerHMAC       = "X-Shopify-Hmac-Sha256"
	headerTopic      = "X-Shopify-Topic"
	headerShopDomain = "X-Shopify-Shop-Domain"
)

// WebhookHandler receives platform webhook deliveries
type WebhookHandler struct {
	BaseHandler
	service *webhook.Service
	logger  *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(service *webhook.Service, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, logger: logger}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/shopify", h.Receive)
}

// Receive verifies and enqueues one delivery. The body is read raw before
// anything parses it: the signature covers the exact bytes on the wire.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	delivery := webhook.Delivery{
		ShopDomain: c.GetHeader(headerShopDomain),
		Topic:      c.GetHeader(headerTopic),
		Payload:    json.RawMessage(body),
	}

	job, err := h.service.Accept(c.Request.Context(), delivery, c.GetHeader(headerHMAC))
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrMissingHeaders):
			h.BadRequest(c, "Missing delivery headers")
		case errors.Is(err, webhook.ErrInvalidSignature):
			h.Unauthorized(c, dto.ErrCodeInvalidSignature, "Webhook signature verification failed")
		default:
			h.logger.Error("failed to accept webhook", zap.Error(err))
			h.Internal(c, "Failed to accept delivery")
		}
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"job_id": job.ID}))
}
