package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	syncapp "github.com/dhruvretails/backend/internal/application/sync"
	"github.com/dhruvretails/backend/internal/domain/shared"
	"github.com/dhruvretails/backend/internal/infrastructure/queue"
)

// SyncHandler exposes sync operations: enqueue a sweep, run one inline and
// poll a queued job
type SyncHandler struct {
	BaseHandler
	orchestrator *syncapp.Orchestrator
	syncQueue    *queue.Queue
	logger       *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orchestrator *syncapp.Orchestrator, syncQueue *queue.Queue, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator, syncQueue: syncQueue, logger: logger}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/trigger", h.Trigger)
		sync.POST("/run", h.Run)
		sync.GET("/jobs/:id", h.GetJob)
	}
}

// Trigger enqueues a sync job. With an X-Tenant-ID header only that tenant
// is swept; without one the job sweeps every tenant.
func (h *SyncHandler) Trigger(c *gin.Context) {
	var job *queue.Job
	var err error

	if c.GetHeader("X-Tenant-ID") != "" {
		tenantID, parseErr := getTenantID(c)
		if parseErr != nil {
			h.BadRequest(c, "Invalid X-Tenant-ID header")
			return
		}
		job, err = h.syncQueue.Enqueue(c.Request.Context(), queue.JobTypeSyncTenant, syncapp.TenantPayload{TenantID: tenantID})
	} else {
		job, err = h.syncQueue.Enqueue(c.Request.Context(), queue.JobTypeSyncAllTenants, nil)
	}

	if err != nil {
		h.logger.Error("failed to enqueue sync", zap.Error(err))
		h.Internal(c, "Failed to enqueue sync job")
		return
	}

	h.Accepted(c, gin.H{"job_id": job.ID, "queue": job.Queue, "type": job.Type})
}

// Run executes one tenant's sweep inline and returns the report
func (h *SyncHandler) Run(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-Tenant-ID header")
		return
	}

	report, err := h.orchestrator.SyncTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// GetJob returns the last known state of a queued sync job
func (h *SyncHandler) GetJob(c *gin.Context) {
	job, err := h.syncQueue.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.NotFound(c, "Job not found")
			return
		}
		h.logger.Error("failed to read job state", zap.Error(err))
		h.Internal(c, "Failed to read job state")
		return
	}

	h.Success(c, job)
}
