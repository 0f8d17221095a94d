package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dhruvretails/backend/internal/domain/store"
	"github.com/dhruvretails/backend/internal/infrastructure/persistence/models"
)

// GormEventRepository implements EventRepository using GORM
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GormEventRepository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Create appends an event row
func (r *GormEventRepository) Create(ctx context.Context, event *store.Event) error {
	var model models.EventModel
	model.FromDomain(event)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindAllForTenant returns the most recent events for a tenant
func (r *GormEventRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]store.Event, error) {
	var eventModels []models.EventModel
	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&eventModels).Error; err != nil {
		return nil, err
	}
	events := make([]store.Event, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}
	return events, nil
}

var _ store.EventRepository = (*GormEventRepository)(nil)
