package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/domain/identity"
	"github.com/dhruvretails/backend/internal/domain/shared"
	"github.com/dhruvretails/backend/internal/infrastructure/queue"
)

var (
	// ErrInvalidSignature rejects a delivery whose HMAC does not match
	ErrInvalidSignature = errors.New("webhook: invalid signature")
	// ErrMissingHeaders rejects a delivery without the required headers
	ErrMissingHeaders = errors.New("webhook: missing delivery headers")
)

// secretCacheTTL bounds how long a tenant's webhook secret is reused before
// re-reading it, keeping the request path off the database for bursts
const secretCacheTTL = 5 * time.Minute

// Delivery is one webhook delivery as received on the wire
type Delivery struct {
	ShopDomain string          `json:"shop_domain"`
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
}

// Enqueuer is the slice of the queue the service needs
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload interface{}) (*queue.Job, error)
}

// Service verifies webhook deliveries and hands them to the webhook queue.
// The request path never writes to the database: verification uses a cached
// per-tenant secret or the shared one, and everything else happens in the
// queue worker.
type Service struct {
	verifier   *Verifier
	tenantRepo identity.TenantRepository
	queue      Enqueuer
	logger     *zap.Logger

	mu      sync.RWMutex
	secrets map[string]cachedSecret
}

type cachedSecret struct {
	secret    string
	expiresAt time.Time
}

// NewService creates a webhook Service
func NewService(verifier *Verifier, tenantRepo identity.TenantRepository, enqueuer Enqueuer, logger *zap.Logger) *Service {
	return &Service{
		verifier:   verifier,
		tenantRepo: tenantRepo,
		queue:      enqueuer,
		logger:     logger,
		secrets:    make(map[string]cachedSecret),
	}
}

// WarmSecrets loads every tenant's webhook secret into the cache so the
// first delivery after startup verifies without touching the database.
func (s *Service) WarmSecrets(ctx context.Context) error {
	tenants, err := s.tenantRepo.FindAll(ctx)
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(secretCacheTTL)
	s.mu.Lock()
	for _, tenant := range tenants {
		s.secrets[tenant.StoreDomain] = cachedSecret{secret: tenant.WebhookSecret, expiresAt: expiresAt}
	}
	s.mu.Unlock()

	s.logger.Info("webhook secret cache warmed", zap.Int("tenants", len(tenants)))
	return nil
}

// Accept verifies the delivery signature and enqueues it for processing.
// The returned job carries the ID the caller acknowledges with.
func (s *Service) Accept(ctx context.Context, delivery Delivery, signature string) (*queue.Job, error) {
	if delivery.ShopDomain == "" || delivery.Topic == "" {
		return nil, ErrMissingHeaders
	}

	secret := s.tenantSecret(ctx, delivery.ShopDomain)
	if !s.verifier.Verify(delivery.Payload, signature, secret) {
		s.logger.Warn("webhook signature rejected",
			zap.String("shop_domain", delivery.ShopDomain),
			zap.String("topic", delivery.Topic))
		return nil, ErrInvalidSignature
	}

	job, err := s.queue.Enqueue(ctx, queue.JobTypeWebhookDelivery, delivery)
	if err != nil {
		return nil, err
	}

	s.logger.Info("webhook accepted",
		zap.String("shop_domain", delivery.ShopDomain),
		zap.String("topic", delivery.Topic),
		zap.String("job_id", job.ID.String()))
	return job, nil
}

// tenantSecret returns the per-tenant webhook secret override for a shop
// domain, or empty when the tenant is unknown or carries none. Unknown shops
// are not rejected here; the shared secret still guards them and the worker
// settles tenant resolution.
func (s *Service) tenantSecret(ctx context.Context, shopDomain string) string {
	domain := identity.NormalizeStoreDomain(shopDomain)

	s.mu.RLock()
	cached, ok := s.secrets[domain]
	s.mu.RUnlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.secret
	}

	secret := ""
	tenant, err := s.tenantRepo.FindByStoreDomain(ctx, domain)
	switch {
	case err == nil:
		secret = tenant.WebhookSecret
	case errors.Is(err, shared.ErrNotFound):
	default:
		s.logger.Error("failed to load tenant webhook secret",
			zap.String("shop_domain", domain),
			zap.Error(err))
		if ok {
			// Stale beats nothing while the database is unhappy.
			return cached.secret
		}
		return ""
	}

	s.mu.Lock()
	s.secrets[domain] = cachedSecret{secret: secret, expiresAt: time.Now().Add(secretCacheTTL)}
	s.mu.Unlock()
	return secret
}
