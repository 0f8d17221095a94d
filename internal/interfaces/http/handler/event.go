package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dhruvretails/backend/internal/application/event"
	"github.com/dhruvretails/backend/internal/interfaces/http/dto"
)

// EventHandler records and lists tenant activity events
type EventHandler struct {
	BaseHandler
	service *event.Service
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(service *event.Service) *EventHandler {
	return &EventHandler{service: service}
}

// RegisterRoutes registers event routes
func (h *EventHandler) RegisterRoutes(rg *gin.RouterGroup) {
	events := rg.Group("/events")
	{
		events.POST("", h.Record)
		events.GET("", h.List)
	}
}

// RecordEventRequest is the body of POST /events
type RecordEventRequest struct {
	Type               string `json:"type" binding:"required"`
	Payload            string `json:"payload"`
	CustomerExternalID string `json:"customer_external_id"`
}

// Record creates an event
func (h *EventHandler) Record(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-Tenant-ID header")
		return
	}

	var req RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid request body")
		return
	}

	recorded, err := h.service.Record(c.Request.Context(), tenantID, req.Type, req.Payload, req.CustomerExternalID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{
		"id":          recorded.ID,
		"type":        recorded.Type,
		"customer_id": recorded.CustomerID,
		"created_at":  recorded.CreatedAt,
	})
}

// List returns the tenant's most recent events
func (h *EventHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-Tenant-ID header")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	events, err := h.service.List(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, events)
}
