package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dhruvretails/backend/internal/domain/shared"
)

// Order is a store order mirrored from the external platform, upserted by
// (tenant, external id). CustomerID is resolved against already-synced
// customers at reconciliation time; an order whose customer has not been
// synced yet is stored with a nil CustomerID and the link is repaired by the
// next full sweep that re-upserts the order.
type Order struct {
	shared.TenantEntity
	ExternalID        string
	OrderNumber       string
	CustomerID        *uuid.UUID
	TotalPrice        *decimal.Decimal
	Currency          string
	ExternalCreatedAt *time.Time
	// AnalyticsDate is the date dimension used by the read side. It mirrors
	// ExternalCreatedAt so re-syncs do not shift historical buckets.
	AnalyticsDate     *time.Time
	FinancialStatus   string
	FulfillmentStatus string
	Items             []OrderItem
}

// OrderItem is a line item owned by an order. Items carry full-replace
// semantics: every order upsert deletes all existing rows for the order and
// recreates them from the current external line items, so stale lines cannot
// survive a sweep.
type OrderItem struct {
	shared.TenantEntity
	OrderID        uuid.UUID
	ProductID      *uuid.UUID
	ExternalLineID string
	Quantity       int
	Price          *decimal.Decimal
}

// OrderRepository defines persistence operations for orders and their items
type OrderRepository interface {
	// UpsertWithItems upserts the order keyed by (tenant_id, external_id)
	// and replaces all of its items with the given set, inside a single
	// transaction. A crash mid-order therefore cannot leave a mix of old
	// and new line items.
	UpsertWithItems(ctx context.Context, order *Order, items []OrderItem) error

	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Order, error)
	FindItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Order, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
