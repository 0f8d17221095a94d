package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/dhruvretails/backend/internal/domain/shared"
)

// Event is an append-only activity record. Rows are created both by direct
// API calls and by webhook deliveries drained off the webhook queue.
type Event struct {
	shared.TenantEntity
	Type       string
	CustomerID *uuid.UUID
	// Payload is the serialized event body, stored opaquely.
	Payload string
}

// NewEvent creates an event for a tenant
func NewEvent(tenantID uuid.UUID, eventType, payload string) (*Event, error) {
	if eventType == "" {
		return nil, shared.NewDomainError("INVALID_EVENT", "Event type is required")
	}
	return &Event{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Type:         eventType,
		Payload:      payload,
	}, nil
}

// EventRepository defines persistence operations for events
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]Event, error)
}
