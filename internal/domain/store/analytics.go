package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Summary aggregates a tenant's synced store into headline figures
type Summary struct {
	TotalProducts  int64
	TotalCustomers int64
	TotalOrders    int64
	TotalRevenue   decimal.Decimal
}

// DailyOrderStats is one date bucket in the orders-by-date series. Buckets
// are keyed by the order's analytics date, not the sync time, so re-syncing
// old orders does not move history.
type DailyOrderStats struct {
	Date       time.Time
	OrderCount int64
	Revenue    decimal.Decimal
}

// CustomerSpend ranks a customer by their total order value
type CustomerSpend struct {
	CustomerID uuid.UUID
	FirstName  string
	LastName   string
	Email      string
	OrderCount int64
	TotalSpend decimal.Decimal
}

// AnalyticsRepository defines read-side aggregate queries over synced data
type AnalyticsRepository interface {
	Summary(ctx context.Context, tenantID uuid.UUID) (*Summary, error)
	OrdersByDate(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]DailyOrderStats, error)
	TopCustomers(ctx context.Context, tenantID uuid.UUID, limit int) ([]CustomerSpend, error)
}
