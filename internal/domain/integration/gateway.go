package integration

import (
	"context"

	"github.com/dhruvretails/backend/internal/domain/identity"
)

// StoreGateway is the port to the external commerce platform's Admin API.
// Implementations authenticate with the tenant's own credential against the
// tenant's own store domain, page through each collection until exhausted and
// return the complete, normalized set. The reconciler needs the full
// collection up front, so results are never lazy.
//
// The concrete adapter lives in infrastructure/shopify.
type StoreGateway interface {
	FetchProducts(ctx context.Context, tenant *identity.Tenant) ([]ProductRecord, error)
	FetchCustomers(ctx context.Context, tenant *identity.Tenant) ([]CustomerRecord, error)
	FetchOrders(ctx context.Context, tenant *identity.Tenant) ([]OrderRecord, error)
}
