package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dhruvretails/backend/internal/domain/store"
	"github.com/dhruvretails/backend/internal/infrastructure/persistence/models"
)

// GormAnalyticsRepository implements AnalyticsRepository with aggregate
// queries over the synced tables
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewGormAnalyticsRepository creates a new GormAnalyticsRepository
func NewGormAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

// Summary returns headline counts and total revenue for a tenant
func (r *GormAnalyticsRepository) Summary(ctx context.Context, tenantID uuid.UUID) (*store.Summary, error) {
	summary := &store.Summary{TotalRevenue: decimal.Zero}

	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&summary.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&summary.TotalCustomers).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&summary.TotalOrders).Error; err != nil {
		return nil, err
	}

	var revenue struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("COALESCE(SUM(total_price), 0) AS total").
		Where("tenant_id = ?", tenantID).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	summary.TotalRevenue = revenue.Total

	return summary, nil
}

// OrdersByDate returns per-day order counts and revenue within [from, to]
func (r *GormAnalyticsRepository) OrdersByDate(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]store.DailyOrderStats, error) {
	type row struct {
		Date       time.Time
		OrderCount int64
		Revenue    decimal.Decimal
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("analytics_date AS date, COUNT(*) AS order_count, COALESCE(SUM(total_price), 0) AS revenue").
		Where("tenant_id = ? AND analytics_date IS NOT NULL AND analytics_date >= ? AND analytics_date <= ?", tenantID, from, to).
		Group("analytics_date").
		Order("analytics_date ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := make([]store.DailyOrderStats, len(rows))
	for i, r := range rows {
		stats[i] = store.DailyOrderStats{Date: r.Date, OrderCount: r.OrderCount, Revenue: r.Revenue}
	}
	return stats, nil
}

// TopCustomers returns the customers with the highest total order value
func (r *GormAnalyticsRepository) TopCustomers(ctx context.Context, tenantID uuid.UUID, limit int) ([]store.CustomerSpend, error) {
	if limit <= 0 {
		limit = 5
	}
	type row struct {
		CustomerID uuid.UUID
		FirstName  string
		LastName   string
		Email      string
		OrderCount int64
		TotalSpend decimal.Decimal
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("orders.customer_id AS customer_id, customers.first_name, customers.last_name, customers.email, COUNT(*) AS order_count, COALESCE(SUM(orders.total_price), 0) AS total_spend").
		Joins("JOIN customers ON customers.id = orders.customer_id").
		Where("orders.tenant_id = ? AND orders.customer_id IS NOT NULL", tenantID).
		Group("orders.customer_id, customers.first_name, customers.last_name, customers.email").
		Order("total_spend DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	spenders := make([]store.CustomerSpend, len(rows))
	for i, r := range rows {
		spenders[i] = store.CustomerSpend{
			CustomerID: r.CustomerID,
			FirstName:  r.FirstName,
			LastName:   r.LastName,
			Email:      r.Email,
			OrderCount: r.OrderCount,
			TotalSpend: r.TotalSpend,
		}
	}
	return spenders, nil
}

var _ store.AnalyticsRepository = (*GormAnalyticsRepository)(nil)
