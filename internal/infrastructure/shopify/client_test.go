package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/domain/identity"
	"github.com/dhruvretails/backend/internal/domain/integration"
	"github.com/dhruvretails/backend/internal/infrastructure/config"
)

func newTestClient(serverURL string) *Client {
	client := NewClient(config.ShopifyConfig{
		APIVersion: "2024-10",
		Timeout:    5 * time.Second,
		PageSize:   2,
	}, zap.NewNop())
	client.baseURL = serverURL
	return client
}

func testTenant() *identity.Tenant {
	tenant, _ := identity.NewTenant("Dhruv Retails", "dhruv-retails.myshopify.com", "shpat_test_token")
	return tenant
}

func TestClient_FetchProducts(t *testing.T) {
	t.Run("fetches and converts a single page", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/api/2024-10/products.json", r.URL.Path)
			assert.Equal(t, "shpat_test_token", r.Header.Get("X-Shopify-Access-Token"))
			assert.Equal(t, "2", r.URL.Query().Get("limit"))

			fmt.Fprint(w, `{"products":[
				{"id":9000001,"title":"Cotton Kurta","body_html":"Hand-block printed",
				 "image":{"src":"https://cdn.example.com/kurta.jpg"},
				 "variants":[{"price":"799.00"}]},
				{"id":9000002,"title":"Silk Saree","variants":[]}
			]}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		records, err := client.FetchProducts(context.Background(), testTenant())

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "9000001", records[0].ExternalID)
		assert.Equal(t, "Cotton Kurta", records[0].Title)
		require.NotNil(t, records[0].Price)
		assert.Equal(t, "799", records[0].Price.String())
		assert.Equal(t, "INR", records[0].Currency)
		assert.Equal(t, "https://cdn.example.com/kurta.jpg", records[0].ImageURL)
		assert.Nil(t, records[1].Price)
	})

	t.Run("follows the Link header cursor across pages", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page_info") == "" {
				w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-10/products.json?page_info=cursor2&limit=2>; rel="next"`, server.URL))
				fmt.Fprint(w, `{"products":[{"id":1,"title":"A"},{"id":2,"title":"B"}]}`)
				return
			}
			assert.Equal(t, "cursor2", r.URL.Query().Get("page_info"))
			fmt.Fprint(w, `{"products":[{"id":3,"title":"C"}]}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		records, err := client.FetchProducts(context.Background(), testTenant())

		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "3", records[2].ExternalID)
	})

	t.Run("maps auth failures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		records, err := client.FetchProducts(context.Background(), testTenant())

		assert.Nil(t, records)
		assert.ErrorIs(t, err, integration.ErrUpstreamAuthFailed)
	})

	t.Run("maps server failures as unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.FetchProducts(context.Background(), testTenant())

		assert.ErrorIs(t, err, integration.ErrUpstreamUnavailable)
	})

	t.Run("maps malformed bodies as invalid response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"products": not-json`)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.FetchProducts(context.Background(), testTenant())

		assert.ErrorIs(t, err, integration.ErrUpstreamInvalidResponse)
	})
}

func TestClient_FetchCustomers(t *testing.T) {
	t.Run("converts embedded address and tags", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/api/2024-10/customers.json", r.URL.Path)
			fmt.Fprint(w, `{"customers":[
				{"id":7000001,"first_name":"Asha","last_name":"Patel",
				 "email":"asha@example.com","phone":"+919800000001",
				 "tags":"vip,returning","default_address":{"city":"Mumbai"}}
			]}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		records, err := client.FetchCustomers(context.Background(), testTenant())

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "7000001", records[0].ExternalID)
		assert.Equal(t, "Mumbai", records[0].City)
		assert.Equal(t, "vip,returning", records[0].Tags)
	})
}

func TestClient_FetchOrders(t *testing.T) {
	t.Run("requests all statuses and converts line items", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/api/2024-10/orders.json", r.URL.Path)
			assert.Equal(t, "any", r.URL.Query().Get("status"))

			fmt.Fprint(w, `{"orders":[
				{"id":5000001,"name":"#1001","currency":"INR","total_price":"1499.00",
				 "created_at":"2025-06-01T10:30:00Z","financial_status":"paid",
				 "customer":{"id":7000001},
				 "line_items":[
					{"id":11,"product_id":9000001,"quantity":2,"price":"749.50"},
					{"id":12,"product_id":null,"quantity":1,"price":"0.00"}
				 ]}
			]}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		records, err := client.FetchOrders(context.Background(), testTenant())

		require.NoError(t, err)
		require.Len(t, records, 1)

		order := records[0]
		assert.Equal(t, "5000001", order.ExternalID)
		assert.Equal(t, "#1001", order.OrderNumber)
		assert.Equal(t, "7000001", order.CustomerExternalID)
		require.NotNil(t, order.TotalPrice)
		assert.Equal(t, "1499", order.TotalPrice.String())
		require.Len(t, order.LineItems, 2)
		assert.Equal(t, "9000001", order.LineItems[0].ProductExternalID)
		assert.Equal(t, 2, order.LineItems[0].Quantity)
		assert.Empty(t, order.LineItems[1].ProductExternalID)
	})

	t.Run("defaults missing currency", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"orders":[{"id":5000002,"name":"#1002","total_price":"100.00"}]}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		records, err := client.FetchOrders(context.Background(), testTenant())

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "INR", records[0].Currency)
	})
}

func TestNextPageInfo(t *testing.T) {
	t.Run("extracts the next cursor", func(t *testing.T) {
		header := `<https://shop.myshopify.com/admin/api/2024-10/products.json?page_info=abc&limit=250>; rel="previous", ` +
			`<https://shop.myshopify.com/admin/api/2024-10/products.json?page_info=def&limit=250>; rel="next"`
		assert.Equal(t, "def", nextPageInfo(header))
	})

	t.Run("returns empty without a next link", func(t *testing.T) {
		header := `<https://shop.myshopify.com/admin/api/2024-10/products.json?page_info=abc>; rel="previous"`
		assert.Empty(t, nextPageInfo(header))
	})

	t.Run("returns empty for empty header", func(t *testing.T) {
		assert.Empty(t, nextPageInfo(""))
	})
}
