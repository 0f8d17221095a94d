package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dhruvretails/backend/internal/domain/identity"
	"github.com/dhruvretails/backend/internal/domain/shared"
	"github.com/dhruvretails/backend/internal/domain/store"
)

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TenantScopedModel extends BaseModel with the tenant discriminator
type TenantScopedModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (m *TenantScopedModel) toTenantEntity() shared.TenantEntity {
	return shared.TenantEntity{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TenantID:   m.TenantID,
	}
}

func (m *TenantScopedModel) fromTenantEntity(e shared.TenantEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
	m.TenantID = e.TenantID
}

// TenantModel is the persistence model for the Tenant entity
type TenantModel struct {
	BaseModel
	Name          string `gorm:"type:varchar(200);not null"`
	StoreDomain   string `gorm:"type:varchar(255);not null;uniqueIndex"`
	AccessToken   string `gorm:"type:varchar(255);not null"`
	WebhookSecret string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string { return "tenants" }

// ToDomain converts the persistence model to a domain Tenant
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseEntity:    shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Name:          m.Name,
		StoreDomain:   m.StoreDomain,
		AccessToken:   m.AccessToken,
		WebhookSecret: m.WebhookSecret,
	}
}

// ProductModel is the persistence model for the Product entity.
// External IDs are unique per tenant, not globally: two tenants may sync
// catalogs whose platform IDs collide.
type ProductModel struct {
	TenantScopedModel
	ExternalID  string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_products_tenant_external,priority:2"`
	Title       string           `gorm:"type:varchar(500);not null"`
	Description string           `gorm:"type:text"`
	Price       *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Currency    string           `gorm:"type:varchar(8);not null"`
	ImageURL    string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string { return "products" }

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *store.Product {
	return &store.Product{
		TenantEntity: m.toTenantEntity(),
		ExternalID:   m.ExternalID,
		Title:        m.Title,
		Description:  m.Description,
		Price:        m.Price,
		Currency:     m.Currency,
		ImageURL:     m.ImageURL,
	}
}

// FromDomain populates the model from a domain Product
func (m *ProductModel) FromDomain(p *store.Product) {
	m.fromTenantEntity(p.TenantEntity)
	m.ExternalID = p.ExternalID
	m.Title = p.Title
	m.Description = p.Description
	m.Price = p.Price
	m.Currency = p.Currency
	m.ImageURL = p.ImageURL
}

// CustomerModel is the persistence model for the Customer entity
type CustomerModel struct {
	TenantScopedModel
	ExternalID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_customers_tenant_external,priority:2"`
	FirstName  string `gorm:"type:varchar(200)"`
	LastName   string `gorm:"type:varchar(200)"`
	Email      string `gorm:"type:varchar(320);index"`
	Phone      string `gorm:"type:varchar(50)"`
	City       string `gorm:"type:varchar(100)"`
	Tags       string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string { return "customers" }

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *store.Customer {
	return &store.Customer{
		TenantEntity: m.toTenantEntity(),
		ExternalID:   m.ExternalID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		Phone:        m.Phone,
		City:         m.City,
		Tags:         m.Tags,
	}
}

// FromDomain populates the model from a domain Customer
func (m *CustomerModel) FromDomain(c *store.Customer) {
	m.fromTenantEntity(c.TenantEntity)
	m.ExternalID = c.ExternalID
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.Email = c.Email
	m.Phone = c.Phone
	m.City = c.City
	m.Tags = c.Tags
}

// OrderModel is the persistence model for the Order entity
type OrderModel struct {
	TenantScopedModel
	ExternalID        string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_tenant_external,priority:2"`
	OrderNumber       string           `gorm:"type:varchar(64)"`
	CustomerID        *uuid.UUID       `gorm:"type:uuid;index"`
	TotalPrice        *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Currency          string           `gorm:"type:varchar(8);not null"`
	ExternalCreatedAt *time.Time
	AnalyticsDate     *time.Time `gorm:"index"`
	FinancialStatus   string     `gorm:"type:varchar(32)"`
	FulfillmentStatus string     `gorm:"type:varchar(32)"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string { return "orders" }

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *store.Order {
	return &store.Order{
		TenantEntity:      m.toTenantEntity(),
		ExternalID:        m.ExternalID,
		OrderNumber:       m.OrderNumber,
		CustomerID:        m.CustomerID,
		TotalPrice:        m.TotalPrice,
		Currency:          m.Currency,
		ExternalCreatedAt: m.ExternalCreatedAt,
		AnalyticsDate:     m.AnalyticsDate,
		FinancialStatus:   m.FinancialStatus,
		FulfillmentStatus: m.FulfillmentStatus,
	}
}

// FromDomain populates the model from a domain Order
func (m *OrderModel) FromDomain(o *store.Order) {
	m.fromTenantEntity(o.TenantEntity)
	m.ExternalID = o.ExternalID
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.TotalPrice = o.TotalPrice
	m.Currency = o.Currency
	m.ExternalCreatedAt = o.ExternalCreatedAt
	m.AnalyticsDate = o.AnalyticsDate
	m.FinancialStatus = o.FinancialStatus
	m.FulfillmentStatus = o.FulfillmentStatus
}

// OrderItemModel is the persistence model for order line items
type OrderItemModel struct {
	TenantScopedModel
	OrderID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID      *uuid.UUID       `gorm:"type:uuid;index"`
	ExternalLineID string           `gorm:"type:varchar(64);not null"`
	Quantity       int              `gorm:"not null;default:0"`
	Price          *decimal.Decimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string { return "order_items" }

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() *store.OrderItem {
	return &store.OrderItem{
		TenantEntity:   m.toTenantEntity(),
		OrderID:        m.OrderID,
		ProductID:      m.ProductID,
		ExternalLineID: m.ExternalLineID,
		Quantity:       m.Quantity,
		Price:          m.Price,
	}
}

// FromDomain populates the model from a domain OrderItem
func (m *OrderItemModel) FromDomain(i *store.OrderItem) {
	m.fromTenantEntity(i.TenantEntity)
	m.OrderID = i.OrderID
	m.ProductID = i.ProductID
	m.ExternalLineID = i.ExternalLineID
	m.Quantity = i.Quantity
	m.Price = i.Price
}

// EventModel is the persistence model for events
type EventModel struct {
	TenantScopedModel
	Type       string     `gorm:"type:varchar(100);not null;index"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index"`
	Payload    string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (EventModel) TableName() string { return "events" }

// ToDomain converts the persistence model to a domain Event
func (m *EventModel) ToDomain() *store.Event {
	return &store.Event{
		TenantEntity: m.toTenantEntity(),
		Type:         m.Type,
		CustomerID:   m.CustomerID,
		Payload:      m.Payload,
	}
}

// FromDomain populates the model from a domain Event
func (m *EventModel) FromDomain(e *store.Event) {
	m.fromTenantEntity(e.TenantEntity)
	m.Type = e.Type
	m.CustomerID = e.CustomerID
	m.Payload = e.Payload
}
