package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dhruvretails/backend/internal/domain/identity"
	"github.com/dhruvretails/backend/internal/domain/integration"
	"github.com/dhruvretails/backend/internal/infrastructure/config"
)

// maxResponseBytes bounds a single Admin API response body
const maxResponseBytes = 10 << 20

// Client talks to the Shopify Admin REST API. It is tenant-agnostic: every
// call takes the tenant whose store domain and access token to use, so one
// client serves all tenants.
type Client struct {
	cfg        config.ShopifyConfig
	httpClient *http.Client
	logger     *zap.Logger

	// baseURL overrides the https://{store domain} prefix in tests
	baseURL string
}

// NewClient creates a new Admin API client
func NewClient(cfg config.ShopifyConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// FetchProducts pages through the tenant's product catalog
func (c *Client) FetchProducts(ctx context.Context, tenant *identity.Tenant) ([]integration.ProductRecord, error) {
	var records []integration.ProductRecord
	err := c.fetchAll(ctx, tenant, "products.json", nil, func(body []byte) error {
		var envelope productsEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("%w: %v", integration.ErrUpstreamInvalidResponse, err)
		}
		for i := range envelope.Products {
			records = append(records, envelope.Products[i].toRecord())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FetchCustomers pages through the tenant's customers
func (c *Client) FetchCustomers(ctx context.Context, tenant *identity.Tenant) ([]integration.CustomerRecord, error) {
	var records []integration.CustomerRecord
	err := c.fetchAll(ctx, tenant, "customers.json", nil, func(body []byte) error {
		var envelope customersEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("%w: %v", integration.ErrUpstreamInvalidResponse, err)
		}
		for i := range envelope.Customers {
			records = append(records, envelope.Customers[i].toRecord())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FetchOrders pages through the tenant's orders regardless of status
func (c *Client) FetchOrders(ctx context.Context, tenant *identity.Tenant) ([]integration.OrderRecord, error) {
	var records []integration.OrderRecord
	query := url.Values{"status": {"any"}}
	err := c.fetchAll(ctx, tenant, "orders.json", query, func(body []byte) error {
		var envelope ordersEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("%w: %v", integration.ErrUpstreamInvalidResponse, err)
		}
		for i := range envelope.Orders {
			records = append(records, envelope.Orders[i].toRecord())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// fetchAll walks a paginated collection endpoint, following the Link header's
// rel="next" cursor until the platform stops handing one back.
func (c *Client) fetchAll(ctx context.Context, tenant *identity.Tenant, path string, extra url.Values, consume func(body []byte) error) error {
	pageInfo := ""
	for page := 1; ; page++ {
		requestURL := c.collectionURL(tenant, path, extra, pageInfo)

		body, next, err := c.get(ctx, tenant, requestURL)
		if err != nil {
			return err
		}
		if err := consume(body); err != nil {
			return err
		}

		c.logger.Debug("fetched platform page",
			zap.String("store_domain", tenant.StoreDomain),
			zap.String("path", path),
			zap.Int("page", page))

		if next == "" {
			return nil
		}
		pageInfo = next
	}
}

func (c *Client) collectionURL(tenant *identity.Tenant, path string, extra url.Values, pageInfo string) string {
	base := c.baseURL
	if base == "" {
		base = "https://" + identity.NormalizeStoreDomain(tenant.StoreDomain)
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.cfg.PageSize))
	if pageInfo != "" {
		// Cursor requests may not carry filter params alongside page_info.
		query.Set("page_info", pageInfo)
	} else {
		for key, values := range extra {
			for _, value := range values {
				query.Add(key, value)
			}
		}
	}

	return fmt.Sprintf("%s/admin/api/%s/%s?%s", base, c.cfg.APIVersion, path, query.Encode())
}

// get performs one authenticated request and returns the body plus the next
// page cursor, if any.
func (c *Client) get(ctx context.Context, tenant *identity.Tenant, requestURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", integration.ErrUpstreamRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", tenant.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", integration.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", integration.ErrUpstreamInvalidResponse, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, "", fmt.Errorf("%w: status %d", integration.ErrUpstreamAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, "", fmt.Errorf("%w: status %d", integration.ErrUpstreamRateLimited, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, "", fmt.Errorf("%w: status %d", integration.ErrUpstreamUnavailable, resp.StatusCode)
	default:
		return nil, "", fmt.Errorf("%w: status %d", integration.ErrUpstreamRequestFailed, resp.StatusCode)
	}

	return body, nextPageInfo(resp.Header.Get("Link")), nil
}

// nextPageInfo extracts the page_info cursor from a Link header's rel="next"
// entry. An empty return means the collection is exhausted.
func nextPageInfo(linkHeader string) string {
	for _, link := range strings.Split(linkHeader, ",") {
		parts := strings.Split(link, ";")
		if len(parts) < 2 {
			continue
		}
		if !strings.Contains(parts[1], `rel="next"`) {
			continue
		}
		rawURL := strings.Trim(strings.TrimSpace(parts[0]), "<>")
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return ""
		}
		return parsed.Query().Get("page_info")
	}
	return ""
}

var _ integration.StoreGateway = (*Client)(nil)
