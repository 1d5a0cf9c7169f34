package domain

// EcommerceCredentials identifies a store on one of the supported commerce
// platforms. WooCommerce uses APIKey/APISecret basic auth, Shopify uses
// AccessToken.
type EcommerceCredentials struct {
	Platform    string `json:"platform"`
	BaseURL     string `json:"base_url"`
	APIKey      string `json:"api_key,omitempty"`
	APISecret   string `json:"api_secret,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// CustomerInfo is the identity attached to a call at initiation time so that
// in-call tools (email dispatch) can address the customer.
type CustomerInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
