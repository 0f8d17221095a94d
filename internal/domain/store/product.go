package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dhruvretails/backend/internal/domain/shared"
)

// Product is a catalog product mirrored from the external platform. The
// platform's identifier is kept as ExternalID and used as the natural key for
// upserts: exactly one row exists per (tenant, external id) pair.
type Product struct {
	shared.TenantEntity
	ExternalID  string
	Title       string
	Description string
	Price       *decimal.Decimal
	Currency    string
	ImageURL    string
}

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	// Upsert inserts the product or updates the existing row keyed by
	// (tenant_id, external_id). The row's local ID is preserved on update.
	Upsert(ctx context.Context, product *Product) error

	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Product, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Product, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
