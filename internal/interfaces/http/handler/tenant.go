package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dhruvretails/backend/internal/domain/identity"
	"github.com/dhruvretails/backend/internal/domain/store"
)

// TenantHandler serves tenant reads. Onboarding is out of band; the API
// never writes tenants.
type TenantHandler struct {
	BaseHandler
	tenantRepo   identity.TenantRepository
	productRepo  store.ProductRepository
	customerRepo store.CustomerRepository
	orderRepo    store.OrderRepository
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(
	tenantRepo identity.TenantRepository,
	productRepo store.ProductRepository,
	customerRepo store.CustomerRepository,
	orderRepo store.OrderRepository,
) *TenantHandler {
	return &TenantHandler{
		tenantRepo:   tenantRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
	}
}

// RegisterRoutes registers tenant routes
func (h *TenantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tenants := rg.Group("/tenants")
	{
		tenants.GET("", h.List)
		tenants.GET("/:id", h.Get)
	}
}

// TenantResponse is the public shape of a tenant. Credentials never leave
// the process.
type TenantResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	StoreDomain string    `json:"store_domain"`
}

func toTenantResponse(t *identity.Tenant) TenantResponse {
	return TenantResponse{ID: t.ID, Name: t.Name, StoreDomain: t.StoreDomain}
}

// List returns all onboarded tenants
func (h *TenantHandler) List(c *gin.Context) {
	tenants, err := h.tenantRepo.FindAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]TenantResponse, len(tenants))
	for i := range tenants {
		responses[i] = toTenantResponse(&tenants[i])
	}
	h.Success(c, responses)
}

// Get returns one tenant with its synced record counts
func (h *TenantHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	tenant, err := h.tenantRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	products, err := h.productRepo.CountForTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	customers, err := h.customerRepo.CountForTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	orders, err := h.orderRepo.CountForTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"tenant":    toTenantResponse(tenant),
		"products":  products,
		"customers": customers,
		"orders":    orders,
	})
}
