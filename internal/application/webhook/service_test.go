package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/domain/identity"
	"github.com/dhruvretails/backend/internal/domain/shared"
	"github.com/dhruvretails/backend/internal/infrastructure/queue"
)

func newTestService(sharedSecret string) (*Service, *MockTenantRepository, *MockEnqueuer) {
	tenantRepo := new(MockTenantRepository)
	enqueuer := new(MockEnqueuer)
	service := NewService(NewVerifier(sharedSecret), tenantRepo, enqueuer, zap.NewNop())
	return service, tenantRepo, enqueuer
}

func delivery(body []byte) Delivery {
	return Delivery{
		ShopDomain: "dhruv-retails.myshopify.com",
		Topic:      "orders/create",
		Payload:    json.RawMessage(body),
	}
}

func TestService_Accept(t *testing.T) {
	body := []byte(`{"id":5000001}`)

	t.Run("enqueues a verified delivery", func(t *testing.T) {
		service, tenantRepo, enqueuer := newTestService("shared")

		tenantRepo.On("FindByStoreDomain", mock.Anything, "dhruv-retails.myshopify.com").
			Return(nil, shared.ErrNotFound)
		expected := queue.NewJob(queue.QueueWebhook, queue.JobTypeWebhookDelivery, body, 3)
		enqueuer.On("Enqueue", mock.Anything, queue.JobTypeWebhookDelivery, mock.MatchedBy(func(d Delivery) bool {
			return d.Topic == "orders/create" && string(d.Payload) == string(body)
		})).Return(expected, nil)

		job, err := service.Accept(context.Background(), delivery(body), sign(body, "shared"))

		require.NoError(t, err)
		assert.Equal(t, expected.ID, job.ID)
		enqueuer.AssertExpectations(t)
	})

	t.Run("rejects an invalid signature without enqueueing", func(t *testing.T) {
		service, tenantRepo, enqueuer := newTestService("shared")

		tenantRepo.On("FindByStoreDomain", mock.Anything, mock.Anything).
			Return(nil, shared.ErrNotFound)

		job, err := service.Accept(context.Background(), delivery(body), sign(body, "wrong"))

		assert.Nil(t, job)
		assert.ErrorIs(t, err, ErrInvalidSignature)
		enqueuer.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects deliveries without headers", func(t *testing.T) {
		service, _, _ := newTestService("shared")

		_, err := service.Accept(context.Background(), Delivery{Payload: body}, sign(body, "shared"))

		assert.ErrorIs(t, err, ErrMissingHeaders)
	})

	t.Run("prefers the tenant's own secret", func(t *testing.T) {
		service, tenantRepo, enqueuer := newTestService("shared")

		tenant, _ := identity.NewTenant("Dhruv Retails", "dhruv-retails.myshopify.com", "shpat_x")
		tenant.WebhookSecret = "tenant-own"
		tenantRepo.On("FindByStoreDomain", mock.Anything, "dhruv-retails.myshopify.com").
			Return(tenant, nil)
		enqueuer.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).
			Return(queue.NewJob(queue.QueueWebhook, queue.JobTypeWebhookDelivery, nil, 3), nil)

		_, err := service.Accept(context.Background(), delivery(body), sign(body, "tenant-own"))
		assert.NoError(t, err)

		// The shared secret no longer verifies for this shop.
		_, err = service.Accept(context.Background(), delivery(body), sign(body, "shared"))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("caches the tenant secret between deliveries", func(t *testing.T) {
		service, tenantRepo, enqueuer := newTestService("shared")

		tenant, _ := identity.NewTenant("Dhruv Retails", "dhruv-retails.myshopify.com", "shpat_x")
		tenant.WebhookSecret = "tenant-own"
		tenantRepo.On("FindByStoreDomain", mock.Anything, "dhruv-retails.myshopify.com").
			Return(tenant, nil).Once()
		enqueuer.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).
			Return(queue.NewJob(queue.QueueWebhook, queue.JobTypeWebhookDelivery, nil, 3), nil)

		for i := 0; i < 3; i++ {
			_, err := service.Accept(context.Background(), delivery(body), sign(body, "tenant-own"))
			require.NoError(t, err)
		}
		tenantRepo.AssertNumberOfCalls(t, "FindByStoreDomain", 1)
	})

	t.Run("warmed secrets skip the repository on the request path", func(t *testing.T) {
		service, tenantRepo, enqueuer := newTestService("shared")

		tenant, _ := identity.NewTenant("Dhruv Retails", "dhruv-retails.myshopify.com", "shpat_x")
		tenant.WebhookSecret = "tenant-own"
		tenantRepo.On("FindAll", mock.Anything).Return([]identity.Tenant{*tenant}, nil).Once()
		enqueuer.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).
			Return(queue.NewJob(queue.QueueWebhook, queue.JobTypeWebhookDelivery, nil, 3), nil)

		require.NoError(t, service.WarmSecrets(context.Background()))

		_, err := service.Accept(context.Background(), delivery(body), sign(body, "tenant-own"))
		require.NoError(t, err)

		tenantRepo.AssertNotCalled(t, "FindByStoreDomain", mock.Anything, mock.Anything)
	})

	t.Run("surfaces enqueue failures", func(t *testing.T) {
		service, tenantRepo, enqueuer := newTestService("shared")

		tenantRepo.On("FindByStoreDomain", mock.Anything, mock.Anything).
			Return(nil, shared.ErrNotFound)
		enqueuer.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("broker down"))

		job, err := service.Accept(context.Background(), delivery(body), sign(body, "shared"))

		assert.Nil(t, job)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidSignature)
	})
}
