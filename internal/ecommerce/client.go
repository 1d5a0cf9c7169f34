// Package ecommerce provides store lookups (products, orders) for in-call
// tools, plus the per-conversation registry of authenticated clients.
package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"go.uber.org/zap"
)

// SupportedPlatforms are the platforms with a dedicated adapter. Others are
// accepted with a warning and fail at fetch time.
var SupportedPlatforms = []string{"woocommerce", "shopify"}

// Result is the normalized outcome of a product or order fetch. Formatted is
// a human-readable summary suitable for a voice agent to read aloud.
type Result struct {
	Success   bool                     `json:"success"`
	Items     []map[string]interface{} `json:"items"`
	Formatted string                   `json:"formatted,omitempty"`
	Count     int                      `json:"count"`
	Error     string                   `json:"error,omitempty"`
}

func failure(format string, args ...interface{}) Result {
	return Result{Success: false, Items: []map[string]interface{}{}, Error: fmt.Sprintf(format, args...)}
}

// Client is an authenticated connection to one store.
type Client struct {
	Platform    string
	BaseURL     string
	apiKey      string
	apiSecret   string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates an ecommerce client for the given credentials. Unknown
// platforms are accepted but flagged, matching the gateway-facing policy of
// responding with an error at lookup time rather than rejecting the call.
func NewClient(creds domain.EcommerceCredentials) *Client {
	platform := strings.ToLower(creds.Platform)

	supported := false
	for _, p := range SupportedPlatforms {
		if p == platform {
			supported = true
			break
		}
	}
	if !supported {
		logger.Base().Warn("ecommerce platform may not be fully supported",
			zap.String("platform", platform))
	}

	return &Client{
		Platform:    platform,
		BaseURL:     strings.TrimRight(creds.BaseURL, "/"),
		apiKey:      creds.APIKey,
		apiSecret:   creds.APISecret,
		accessToken: creds.AccessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// GetProducts fetches up to limit products from the store.
func (c *Client) GetProducts(ctx context.Context, limit int) Result {
	switch c.Platform {
	case "woocommerce":
		return c.wooFetch(ctx, "/wp-json/wc/v3/products", limit, nil, formatWooProducts)
	case "shopify":
		return c.shopifyFetch(ctx, "/admin/api/2024-01/products.json", "products", limit, nil, formatShopifyProducts)
	default:
		return failure("Platform '%s' is not supported yet.", c.Platform)
	}
}

// GetOrders fetches up to limit recent orders from the store.
func (c *Client) GetOrders(ctx context.Context, limit int) Result {
	switch c.Platform {
	case "woocommerce":
		return c.wooFetch(ctx, "/wp-json/wc/v3/orders", limit, nil, formatWooOrders)
	case "shopify":
		return c.shopifyFetch(ctx, "/admin/api/2024-01/orders.json", "orders", limit, url.Values{"status": {"any"}}, formatShopifyOrders)
	default:
		return failure("Platform '%s' is not supported yet.", c.Platform)
	}
}

// wooFetch queries a WooCommerce collection endpoint with basic auth.
func (c *Client) wooFetch(ctx context.Context, path string, limit int, extra url.Values, format func([]map[string]interface{}) string) Result {
	query := url.Values{"per_page": {strconv.Itoa(limit)}}
	for k, vs := range extra {
		query[k] = vs
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return failure("failed to create request: %v", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Base().Error("woocommerce request failed", zap.String("path", path), zap.Error(err))
		return failure("%v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		logger.Base().Error("woocommerce non-200 response",
			zap.String("path", path), zap.Int("status_code", resp.StatusCode))
		return failure("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(body, &items); err != nil {
		return failure("failed to decode response: %v", err)
	}

	return Result{Success: true, Items: items, Formatted: format(items), Count: len(items)}
}

// shopifyFetch queries a Shopify admin endpoint with an access token. The
// collection rides under a named key in the response object.
func (c *Client) shopifyFetch(ctx context.Context, path, key string, limit int, extra url.Values, format func([]map[string]interface{}) string) Result {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	for k, vs := range extra {
		query[k] = vs
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return failure("failed to create request: %v", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Base().Error("shopify request failed", zap.String("path", path), zap.Error(err))
		return failure("%v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		logger.Base().Error("shopify non-200 response",
			zap.String("path", path), zap.Int("status_code", resp.StatusCode))
		return failure("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload map[string][]map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return failure("failed to decode response: %v", err)
	}

	items := payload[key]
	return Result{Success: true, Items: items, Formatted: format(items), Count: len(items)}
}

func strField(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key]; ok && v != nil {
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return fallback
}

func formatWooProducts(products []map[string]interface{}) string {
	if len(products) == 0 {
		return "No products found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d products:\n", len(products))
	for _, p := range products {
		fmt.Fprintf(&b, "\n- %s\n", strField(p, "name", "Unknown"))
		fmt.Fprintf(&b, "  Price: $%s\n", strField(p, "price", "0"))
		fmt.Fprintf(&b, "  SKU: %s\n", strField(p, "sku", "N/A"))
		fmt.Fprintf(&b, "  Stock: %s\n", strField(p, "stock_status", "unknown"))
	}
	return b.String()
}

func formatWooOrders(orders []map[string]interface{}) string {
	if len(orders) == 0 {
		return "No orders found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d recent orders:\n", len(orders))
	for _, o := range orders {
		customer := "Unknown"
		if billing, ok := o["billing"].(map[string]interface{}); ok {
			name := strings.TrimSpace(strField(billing, "first_name", "") + " " + strField(billing, "last_name", ""))
			if name != "" {
				customer = name
			}
		}
		fmt.Fprintf(&b, "\n- Order #%s\n", strField(o, "id", "Unknown"))
		fmt.Fprintf(&b, "  Customer: %s\n", customer)
		fmt.Fprintf(&b, "  Status: %s\n", strField(o, "status", "unknown"))
		fmt.Fprintf(&b, "  Total: $%s\n", strField(o, "total", "0"))
		fmt.Fprintf(&b, "  Date: %s\n", strField(o, "date_created", "Unknown"))
	}
	return b.String()
}

func formatShopifyProducts(products []map[string]interface{}) string {
	if len(products) == 0 {
		return "No products found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d products:\n", len(products))
	for _, p := range products {
		price, inventory := "0", "0"
		if variants, ok := p["variants"].([]interface{}); ok && len(variants) > 0 {
			if v, ok := variants[0].(map[string]interface{}); ok {
				price = strField(v, "price", "0")
				inventory = strField(v, "inventory_quantity", "0")
			}
		}
		fmt.Fprintf(&b, "\n- %s\n", strField(p, "title", "Unknown"))
		fmt.Fprintf(&b, "  Price: $%s\n", price)
		fmt.Fprintf(&b, "  Inventory: %s\n", inventory)
	}
	return b.String()
}

func formatShopifyOrders(orders []map[string]interface{}) string {
	if len(orders) == 0 {
		return "No orders found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d recent orders:\n", len(orders))
	for _, o := range orders {
		customer := "Unknown"
		if cust, ok := o["customer"].(map[string]interface{}); ok {
			name := strings.TrimSpace(strField(cust, "first_name", "") + " " + strField(cust, "last_name", ""))
			if name != "" {
				customer = name
			}
		}
		fulfillment := strField(o, "fulfillment_status", "unfulfilled")
		if fulfillment == "" {
			fulfillment = "unfulfilled"
		}
		fmt.Fprintf(&b, "\n- Order %s\n", strField(o, "name", "Unknown"))
		fmt.Fprintf(&b, "  Customer: %s\n", customer)
		fmt.Fprintf(&b, "  Payment: %s\n", strField(o, "financial_status", "unknown"))
		fmt.Fprintf(&b, "  Fulfillment: %s\n", fulfillment)
		fmt.Fprintf(&b, "  Total: $%s\n", strField(o, "total_price", "0"))
	}
	return b.String()
}
