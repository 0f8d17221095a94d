package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dhruvretails/backend/internal/domain/shared"
	"github.com/dhruvretails/backend/internal/domain/store"
	"github.com/dhruvretails/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// UpsertWithItems upserts the order keyed by (tenant_id, external_id) and
// replaces its line items inside one transaction. The lookup-then-write
// shape, rather than ON CONFLICT, is deliberate: the surviving row's local
// ID is needed to re-parent the fresh items.
func (r *GormOrderRepository) UpsertWithItems(ctx context.Context, order *store.Order, items []store.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.OrderModel
		model.FromDomain(order)

		var existing models.OrderModel
		err := tx.Where("tenant_id = ? AND external_id = ?", order.TenantID, order.ExternalID).
			First(&existing).Error
		switch {
		case err == nil:
			model.ID = existing.ID
			model.CreatedAt = existing.CreatedAt
			if err := tx.Model(&models.OrderModel{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"order_number":       model.OrderNumber,
					"customer_id":        model.CustomerID,
					"total_price":        model.TotalPrice,
					"currency":           model.Currency,
					"external_created_at": model.ExternalCreatedAt,
					"analytics_date":     model.AnalyticsDate,
					"financial_status":   model.FinancialStatus,
					"fulfillment_status": model.FulfillmentStatus,
					"updated_at":         model.UpdatedAt,
				}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if err := tx.Where("order_id = ?", model.ID).
			Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}

		for i := range items {
			var itemModel models.OrderItemModel
			itemModel.FromDomain(&items[i])
			itemModel.OrderID = model.ID
			if err := tx.Create(&itemModel).Error; err != nil {
				return err
			}
		}

		order.ID = model.ID
		order.CreatedAt = model.CreatedAt
		return nil
	})
}

// FindByExternalID finds an order by its external platform ID within a tenant
func (r *GormOrderRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*store.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id = ?", tenantID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindItems returns all line items belonging to an order
func (r *GormOrderRepository) FindItems(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error) {
	var itemModels []models.OrderItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make([]store.OrderItem, len(itemModels))
	for i, model := range itemModels {
		items[i] = *model.ToDomain()
	}
	return items, nil
}

// FindAllForTenant returns all orders belonging to a tenant
func (r *GormOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]store.Order, error) {
	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]store.Order, len(orderModels))
	for i, model := range orderModels {
		orders[i] = *model.ToDomain()
	}
	return orders, nil
}

// CountForTenant counts orders belonging to a tenant
func (r *GormOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

var _ store.OrderRepository = (*GormOrderRepository)(nil)
