package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/domain/identity"
	"github.com/dhruvretails/backend/internal/domain/integration"
)

// Report summarizes one tenant's sweep
type Report struct {
	TenantID       uuid.UUID      `json:"tenant_id"`
	StoreDomain    string         `json:"store_domain"`
	Products       int            `json:"products"`
	Customers      int            `json:"customers"`
	Orders         int            `json:"orders"`
	OrderFailures  []OrderFailure `json:"order_failures,omitempty"`
	Duration       time.Duration  `json:"duration"`
}

// TenantResult is one tenant's outcome within a full sweep
type TenantResult struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	StoreDomain string    `json:"store_domain"`
	Report      *Report   `json:"report,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Orchestrator drives full sweeps: fetch each collection from the tenant's
// store, then reconcile it locally. Products and customers are independent
// and sync concurrently; orders wait for both so line items and customer
// links resolve against fresh rows.
type Orchestrator struct {
	tenantRepo identity.TenantRepository
	gateway    integration.StoreGateway
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	tenantRepo identity.TenantRepository,
	gateway integration.StoreGateway,
	reconciler *Reconciler,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		tenantRepo: tenantRepo,
		gateway:    gateway,
		reconciler: reconciler,
		logger:     logger,
	}
}

// SyncTenant runs one tenant's full sweep
func (o *Orchestrator) SyncTenant(ctx context.Context, tenantID uuid.UUID) (*Report, error) {
	tenant, err := o.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return o.syncTenant(ctx, tenant)
}

// SyncAllTenants sweeps every tenant in turn. One tenant's failure is
// recorded in its result and never blocks the remaining tenants.
func (o *Orchestrator) SyncAllTenants(ctx context.Context) ([]TenantResult, error) {
	tenants, err := o.tenantRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]TenantResult, 0, len(tenants))
	for i := range tenants {
		tenant := &tenants[i]
		result := TenantResult{TenantID: tenant.ID, StoreDomain: tenant.StoreDomain}

		report, err := o.syncTenant(ctx, tenant)
		if err != nil {
			o.logger.Error("tenant sync failed",
				zap.String("tenant_id", tenant.ID.String()),
				zap.String("store_domain", tenant.StoreDomain),
				zap.Error(err))
			result.Error = err.Error()
		} else {
			result.Report = report
		}
		results = append(results, result)
	}
	return results, nil
}

func (o *Orchestrator) syncTenant(ctx context.Context, tenant *identity.Tenant) (*Report, error) {
	started := time.Now()
	o.logger.Info("tenant sync started",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("store_domain", tenant.StoreDomain))

	report := &Report{TenantID: tenant.ID, StoreDomain: tenant.StoreDomain}

	var wg gosync.WaitGroup
	var productErr, customerErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		report.Products, productErr = o.syncProducts(ctx, tenant)
	}()
	go func() {
		defer wg.Done()
		report.Customers, customerErr = o.syncCustomers(ctx, tenant)
	}()
	wg.Wait()

	if productErr != nil {
		return nil, productErr
	}
	if customerErr != nil {
		return nil, customerErr
	}

	orderRecords, err := o.gateway.FetchOrders(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	report.Orders, report.OrderFailures = o.reconciler.ReconcileOrders(ctx, tenant.ID, orderRecords)

	report.Duration = time.Since(started)
	o.logger.Info("tenant sync finished",
		zap.String("tenant_id", tenant.ID.String()),
		zap.Int("products", report.Products),
		zap.Int("customers", report.Customers),
		zap.Int("orders", report.Orders),
		zap.Int("order_failures", len(report.OrderFailures)),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (o *Orchestrator) syncProducts(ctx context.Context, tenant *identity.Tenant) (int, error) {
	records, err := o.gateway.FetchProducts(ctx, tenant)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return o.reconciler.ReconcileProducts(ctx, tenant.ID, records)
}

func (o *Orchestrator) syncCustomers(ctx context.Context, tenant *identity.Tenant) (int, error) {
	records, err := o.gateway.FetchCustomers(ctx, tenant)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch customers: %w", err)
	}
	return o.reconciler.ReconcileCustomers(ctx, tenant.ID, records)
}
