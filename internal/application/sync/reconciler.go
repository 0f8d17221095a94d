package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/domain/integration"
	"github.com/dhruvretails/backend/internal/domain/shared"
	"github.com/dhruvretails/backend/internal/domain/store"
)

// Reconciler folds fetched platform records into local storage. Upserts are
// keyed by (tenant, external id), so running a reconcile twice over the same
// records converges to the same rows.
type Reconciler struct {
	productRepo  store.ProductRepository
	customerRepo store.CustomerRepository
	orderRepo    store.OrderRepository
	logger       *zap.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(
	productRepo store.ProductRepository,
	customerRepo store.CustomerRepository,
	orderRepo store.OrderRepository,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		productRepo:  productRepo,
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		logger:       logger,
	}
}

// OrderFailure records one order that could not be reconciled
type OrderFailure struct {
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

// ReconcileProducts upserts every fetched product for the tenant. A storage
// error aborts the pass: repository failures are systemic, not per-record.
func (r *Reconciler) ReconcileProducts(ctx context.Context, tenantID uuid.UUID, records []integration.ProductRecord) (int, error) {
	for i := range records {
		record := &records[i]
		product := &store.Product{
			TenantEntity: shared.NewTenantEntity(tenantID),
			ExternalID:   record.ExternalID,
			Title:        record.Title,
			Description:  record.Description,
			Price:        record.Price,
			Currency:     record.Currency,
			ImageURL:     record.ImageURL,
		}
		if err := r.productRepo.Upsert(ctx, product); err != nil {
			return i, fmt.Errorf("failed to upsert product %s: %w", record.ExternalID, err)
		}
	}
	return len(records), nil
}

// ReconcileCustomers upserts every fetched customer for the tenant
func (r *Reconciler) ReconcileCustomers(ctx context.Context, tenantID uuid.UUID, records []integration.CustomerRecord) (int, error) {
	for i := range records {
		record := &records[i]
		customer := &store.Customer{
			TenantEntity: shared.NewTenantEntity(tenantID),
			ExternalID:   record.ExternalID,
			FirstName:    record.FirstName,
			LastName:     record.LastName,
			Email:        record.Email,
			Phone:        record.Phone,
			City:         record.City,
			Tags:         record.Tags,
		}
		if err := r.customerRepo.Upsert(ctx, customer); err != nil {
			return i, fmt.Errorf("failed to upsert customer %s: %w", record.ExternalID, err)
		}
	}
	return len(records), nil
}

// ReconcileOrders upserts every fetched order with its line items. Failures
// are isolated per order: one bad order is recorded and the rest of the
// batch still lands.
func (r *Reconciler) ReconcileOrders(ctx context.Context, tenantID uuid.UUID, records []integration.OrderRecord) (int, []OrderFailure) {
	synced := 0
	var failures []OrderFailure

	for i := range records {
		record := &records[i]
		if err := r.reconcileOrder(ctx, tenantID, record); err != nil {
			r.logger.Warn("order reconcile failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("external_id", record.ExternalID),
				zap.Error(err))
			failures = append(failures, OrderFailure{
				ExternalID: record.ExternalID,
				Reason:     err.Error(),
			})
			continue
		}
		synced++
	}

	return synced, failures
}

func (r *Reconciler) reconcileOrder(ctx context.Context, tenantID uuid.UUID, record *integration.OrderRecord) error {
	customerID, err := r.resolveCustomer(ctx, tenantID, record.CustomerExternalID)
	if err != nil {
		return err
	}

	order := &store.Order{
		TenantEntity:      shared.NewTenantEntity(tenantID),
		ExternalID:        record.ExternalID,
		OrderNumber:       record.OrderNumber,
		CustomerID:        customerID,
		TotalPrice:        record.TotalPrice,
		Currency:          record.Currency,
		ExternalCreatedAt: record.CreatedAt,
		FinancialStatus:   record.FinancialStatus,
		FulfillmentStatus: record.FulfillmentStatus,
	}
	if record.CreatedAt != nil {
		day := record.CreatedAt.UTC().Truncate(24 * time.Hour)
		order.AnalyticsDate = &day
	}

	items := make([]store.OrderItem, 0, len(record.LineItems))
	for j := range record.LineItems {
		line := &record.LineItems[j]
		productID, err := r.resolveProduct(ctx, tenantID, line.ProductExternalID)
		if err != nil {
			return err
		}
		items = append(items, store.OrderItem{
			TenantEntity:   shared.NewTenantEntity(tenantID),
			ProductID:      productID,
			ExternalLineID: line.ExternalLineID,
			Quantity:       line.Quantity,
			Price:          line.Price,
		})
	}

	return r.orderRepo.UpsertWithItems(ctx, order, items)
}

// resolveCustomer maps a platform customer ID to the local row. An unknown
// customer is not an error: the order lands unlinked and the next sweep,
// which syncs customers first, repairs the link.
func (r *Reconciler) resolveCustomer(ctx context.Context, tenantID uuid.UUID, externalID string) (*uuid.UUID, error) {
	if externalID == "" {
		return nil, nil
	}
	customer, err := r.customerRepo.FindByExternalID(ctx, tenantID, externalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve customer %s: %w", externalID, err)
	}
	id := customer.ID
	return &id, nil
}

func (r *Reconciler) resolveProduct(ctx context.Context, tenantID uuid.UUID, externalID string) (*uuid.UUID, error) {
	if externalID == "" {
		return nil, nil
	}
	product, err := r.productRepo.FindByExternalID(ctx, tenantID, externalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve product %s: %w", externalID, err)
	}
	id := product.ID
	return &id, nil
}
