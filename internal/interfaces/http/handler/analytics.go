package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dhruvretails/backend/internal/application/analytics"
)

// defaultAnalyticsWindow is the orders-by-date range when none is given
const defaultAnalyticsWindow = 30 * 24 * time.Hour

// AnalyticsHandler serves read-side aggregates
type AnalyticsHandler struct {
	BaseHandler
	service *analytics.Service
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// RegisterRoutes registers analytics routes
func (h *AnalyticsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/analytics")
	{
		group.GET("/summary", h.Summary)
		group.GET("/orders-by-date", h.OrdersByDate)
		group.GET("/top-customers", h.TopCustomers)
	}
}

// Summary returns headline counts and revenue
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-Tenant-ID header")
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"total_products":  summary.TotalProducts,
		"total_customers": summary.TotalCustomers,
		"total_orders":    summary.TotalOrders,
		"total_revenue":   summary.TotalRevenue,
	})
}

// OrdersByDate returns the per-day series for a date range
func (h *AnalyticsHandler) OrdersByDate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-Tenant-ID header")
		return
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.Add(-defaultAnalyticsWindow)

	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse("2006-01-02", raw); err != nil {
			h.BadRequest(c, "Invalid from date, expected YYYY-MM-DD")
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse("2006-01-02", raw); err != nil {
			h.BadRequest(c, "Invalid to date, expected YYYY-MM-DD")
			return
		}
	}
	if from.After(to) {
		h.BadRequest(c, "from must not be after to")
		return
	}

	stats, err := h.service.OrdersByDate(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// TopCustomers returns the highest-spending customers
func (h *AnalyticsHandler) TopCustomers(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-Tenant-ID header")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit < 1 || limit > 100 {
		h.BadRequest(c, "limit must be between 1 and 100")
		return
	}

	spenders, err := h.service.TopCustomers(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, spenders)
}
