package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/dhruvretails/backend/internal/domain/shared"
)

// Customer is a store customer mirrored from the external platform,
// upserted by (tenant, external id).
type Customer struct {
	shared.TenantEntity
	ExternalID string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	City       string
	Tags       string
}

// CustomerRepository defines persistence operations for customers
type CustomerRepository interface {
	Upsert(ctx context.Context, customer *Customer) error

	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Customer, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Customer, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
