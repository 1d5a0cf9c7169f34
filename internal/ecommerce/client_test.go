package ecommerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wooServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "expected basic auth")
		assert.Equal(t, "ck_key", user)
		assert.Equal(t, "cs_secret", pass)

		switch r.URL.Path {
		case "/wp-json/wc/v3/products":
			assert.Equal(t, "2", r.URL.Query().Get("per_page"))
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{"name": "Blue Mug", "price": "12.50", "sku": "MUG-1", "stock_status": "instock"},
				{"name": "Red Mug", "price": "13.00", "sku": "MUG-2", "stock_status": "outofstock"},
			})
		case "/wp-json/wc/v3/orders":
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{
					"id": float64(1001), "status": "processing", "total": "25.50",
					"date_created": "2026-08-01T10:00:00",
					"billing":      map[string]interface{}{"first_name": "John", "last_name": "Doe"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestWooCommerceProducts(t *testing.T) {
	srv := wooServer(t)
	defer srv.Close()

	client := NewClient(domain.EcommerceCredentials{
		Platform:  "WooCommerce",
		BaseURL:   srv.URL + "/",
		APIKey:    "ck_key",
		APISecret: "cs_secret",
	})
	assert.Equal(t, "woocommerce", client.Platform)

	result := client.GetProducts(context.Background(), 2)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 2, result.Count)
	assert.Contains(t, result.Formatted, "Found 2 products")
	assert.Contains(t, result.Formatted, "Blue Mug")
	assert.Contains(t, result.Formatted, "Price: $12.50")
	assert.Contains(t, result.Formatted, "Stock: outofstock")
}

func TestWooCommerceOrders(t *testing.T) {
	srv := wooServer(t)
	defer srv.Close()

	client := NewClient(domain.EcommerceCredentials{
		Platform:  "woocommerce",
		BaseURL:   srv.URL,
		APIKey:    "ck_key",
		APISecret: "cs_secret",
	})

	result := client.GetOrders(context.Background(), 5)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, result.Count)
	assert.Contains(t, result.Formatted, "Order #1001")
	assert.Contains(t, result.Formatted, "Customer: John Doe")
	assert.Contains(t, result.Formatted, "Total: $25.50")
}

func TestShopifyProductsAndOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shpat_token", r.Header.Get("X-Shopify-Access-Token"))

		switch r.URL.Path {
		case "/admin/api/2024-01/products.json":
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"products": []map[string]interface{}{
					{
						"title": "Desk Lamp",
						"variants": []interface{}{
							map[string]interface{}{"price": "45.00", "inventory_quantity": float64(8)},
						},
					},
				},
			})
		case "/admin/api/2024-01/orders.json":
			assert.Equal(t, "any", r.URL.Query().Get("status"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"orders": []map[string]interface{}{
					{
						"name": "#1501", "financial_status": "paid", "fulfillment_status": "",
						"total_price": "45.00",
						"customer":    map[string]interface{}{"first_name": "Jane", "last_name": "Roe"},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(domain.EcommerceCredentials{
		Platform:    "shopify",
		BaseURL:     srv.URL,
		AccessToken: "shpat_token",
	})

	products := client.GetProducts(context.Background(), 3)
	require.True(t, products.Success, products.Error)
	assert.Contains(t, products.Formatted, "Desk Lamp")
	assert.Contains(t, products.Formatted, "Price: $45.00")
	assert.Contains(t, products.Formatted, "Inventory: 8")

	orders := client.GetOrders(context.Background(), 3)
	require.True(t, orders.Success, orders.Error)
	assert.Contains(t, orders.Formatted, "Order #1501")
	assert.Contains(t, orders.Formatted, "Customer: Jane Roe")
	assert.Contains(t, orders.Formatted, "Fulfillment: unfulfilled")
}

func TestClientErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(domain.EcommerceCredentials{
		Platform: "woocommerce",
		BaseURL:  srv.URL,
	})

	result := client.GetProducts(context.Background(), 5)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "HTTP 401")
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
}

func TestUnsupportedPlatform(t *testing.T) {
	client := NewClient(domain.EcommerceCredentials{Platform: "magento"})

	result := client.GetProducts(context.Background(), 5)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "magento")
}

func TestFormattersEmpty(t *testing.T) {
	assert.Equal(t, "No products found.", formatWooProducts(nil))
	assert.Equal(t, "No orders found.", formatWooOrders(nil))
	assert.Equal(t, "No products found.", formatShopifyProducts(nil))
	assert.Equal(t, "No orders found.", formatShopifyOrders(nil))
}
