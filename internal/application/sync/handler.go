package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/infrastructure/queue"
)

// TenantPayload is the payload of a single-tenant sync job
type TenantPayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
}

// JobHandler executes sync jobs popped off the sync queue
type JobHandler struct {
	orchestrator *Orchestrator
	logger       *zap.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(orchestrator *Orchestrator, logger *zap.Logger) *JobHandler {
	return &JobHandler{orchestrator: orchestrator, logger: logger}
}

// Handle dispatches a sync job by type
func (h *JobHandler) Handle(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeSyncAllTenants:
		results, err := h.orchestrator.SyncAllTenants(ctx)
		if err != nil {
			return err
		}
		for _, result := range results {
			if result.Error != "" {
				h.logger.Warn("tenant skipped during sweep",
					zap.String("tenant_id", result.TenantID.String()),
					zap.String("error", result.Error))
			}
		}
		return nil

	case queue.JobTypeSyncTenant:
		var payload TenantPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("invalid sync payload: %w", err)
		}
		_, err := h.orchestrator.SyncTenant(ctx, payload.TenantID)
		return err

	default:
		return fmt.Errorf("unknown sync job type %q", job.Type)
	}
}

var _ queue.Handler = (*JobHandler)(nil)
