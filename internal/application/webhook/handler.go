package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/domain/identity"
	"github.com/dhruvretails/backend/internal/domain/shared"
	"github.com/dhruvretails/backend/internal/domain/store"
	"github.com/dhruvretails/backend/internal/infrastructure/queue"
)

// JobHandler drains the webhook queue: each job is one verified delivery to
// turn into an event row. Tenant resolution happens here, off the request
// path, so a delivery for a not-yet-onboarded shop retries instead of being
// dropped at the door.
type JobHandler struct {
	tenantRepo   identity.TenantRepository
	customerRepo store.CustomerRepository
	eventRepo    store.EventRepository
	logger       *zap.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(
	tenantRepo identity.TenantRepository,
	customerRepo store.CustomerRepository,
	eventRepo store.EventRepository,
	logger *zap.Logger,
) *JobHandler {
	return &JobHandler{
		tenantRepo:   tenantRepo,
		customerRepo: customerRepo,
		eventRepo:    eventRepo,
		logger:       logger,
	}
}

// Handle records one delivery as an event
func (h *JobHandler) Handle(ctx context.Context, job *queue.Job) error {
	var delivery Delivery
	if err := json.Unmarshal(job.Payload, &delivery); err != nil {
		return fmt.Errorf("invalid webhook payload: %w", err)
	}

	tenant, err := h.tenantRepo.FindByStoreDomain(ctx, delivery.ShopDomain)
	if err != nil {
		return fmt.Errorf("failed to resolve tenant for %s: %w", delivery.ShopDomain, err)
	}

	event, err := store.NewEvent(tenant.ID, delivery.Topic, string(delivery.Payload))
	if err != nil {
		return err
	}
	event.CustomerID = h.resolveCustomer(ctx, tenant.ID, delivery.Payload)

	if err := h.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	h.logger.Info("webhook recorded",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("topic", delivery.Topic),
		zap.String("event_id", event.ID.String()))
	return nil
}

// resolveCustomer links the event to a synced customer when the payload
// embeds one. A missing or unknown customer leaves the event unlinked.
func (h *JobHandler) resolveCustomer(ctx context.Context, tenantID uuid.UUID, payload json.RawMessage) *uuid.UUID {
	var envelope struct {
		Customer *struct {
			ID int64 `json:"id"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Customer == nil {
		return nil
	}

	externalID := strconv.FormatInt(envelope.Customer.ID, 10)
	customer, err := h.customerRepo.FindByExternalID(ctx, tenantID, externalID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Warn("failed to resolve webhook customer",
				zap.String("tenant_id", tenantID.String()),
				zap.String("external_id", externalID),
				zap.Error(err))
		}
		return nil
	}
	id := customer.ID
	return &id
}

var _ queue.Handler = (*JobHandler)(nil)
