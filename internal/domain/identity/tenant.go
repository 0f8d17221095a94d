package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/dhruvretails/backend/internal/domain/shared"
)

// Tenant represents one onboarded store account. It is the isolation
// boundary for all synced data: products, customers, orders and events are
// always scoped to exactly one tenant.
type Tenant struct {
	shared.BaseEntity
	Name string
	// StoreDomain is the myshopify-style domain of the tenant's store,
	// unique across tenants. It doubles as the webhook shop identifier.
	StoreDomain string
	// AccessToken is the Admin API credential issued for this tenant's store.
	AccessToken string
	// WebhookSecret optionally overrides the process-wide webhook shared
	// secret for deliveries from this tenant's store. Empty means the
	// configured secret applies.
	WebhookSecret string
}

// NewTenant creates a tenant. The store domain is normalized to a bare host
// so lookups by the webhook shop-domain header match.
func NewTenant(name, storeDomain, accessToken string) (*Tenant, error) {
	domain := NormalizeStoreDomain(storeDomain)
	if name == "" || domain == "" {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant name and store domain are required")
	}
	if accessToken == "" {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant access token is required")
	}
	return &Tenant{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		StoreDomain: domain,
		AccessToken: accessToken,
	}, nil
}

// NormalizeStoreDomain strips scheme and trailing slashes from a store domain
func NormalizeStoreDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimSuffix(domain, "/")
	return strings.ToLower(domain)
}

// TenantRepository defines persistence operations for tenants.
// Tenant onboarding happens elsewhere; the sync engine only reads.
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByStoreDomain(ctx context.Context, storeDomain string) (*Tenant, error)
	FindAll(ctx context.Context) ([]Tenant, error)
}
