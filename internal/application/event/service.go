package event

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/domain/shared"
	"github.com/dhruvretails/backend/internal/domain/store"
)

// defaultListLimit bounds event listings when the caller gives no limit
const defaultListLimit = 100

// Service records and lists tenant activity events
type Service struct {
	eventRepo    store.EventRepository
	customerRepo store.CustomerRepository
	logger       *zap.Logger
}

// NewService creates a new event Service
func NewService(eventRepo store.EventRepository, customerRepo store.CustomerRepository, logger *zap.Logger) *Service {
	return &Service{
		eventRepo:    eventRepo,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// Record creates an event for the tenant. When customerExternalID names a
// synced customer the event is linked to it; otherwise it stays unlinked.
func (s *Service) Record(ctx context.Context, tenantID uuid.UUID, eventType, payload, customerExternalID string) (*store.Event, error) {
	event, err := store.NewEvent(tenantID, eventType, payload)
	if err != nil {
		return nil, err
	}

	if customerExternalID != "" {
		customer, err := s.customerRepo.FindByExternalID(ctx, tenantID, customerExternalID)
		switch {
		case err == nil:
			id := customer.ID
			event.CustomerID = &id
		case errors.Is(err, shared.ErrNotFound):
		default:
			return nil, err
		}
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Debug("event recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("type", eventType))
	return event, nil
}

// List returns the tenant's most recent events
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]store.Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.eventRepo.FindAllForTenant(ctx, tenantID, limit)
}
