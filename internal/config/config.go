package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultSenderEmail is the global fallback sender used when neither the
// session, the batch job, nor the template supplies one.
const DefaultSenderEmail = "no-reply@astra-campaign.io"

// CampaignConfig holds the full service configuration, loaded from the
// environment in main.
type CampaignConfig struct {
	Port       string
	InstanceID string
	EnableCORS bool

	// ConvAI gateway (the external calling platform)
	ConvAIAPIKey     string
	ConvAIBaseURL    string
	ConvAITimeoutSec int
	ConvAIMaxRetries int
	ConvAIRateLimit  float64 // requests per second toward the gateway

	// Base URL under which the gateway reaches our webhook tools,
	// e.g. https://campaigns.example.com/api/v1
	WebhookBaseURL string

	// External email-sending API
	EmailAPIURL        string
	DefaultSenderEmail string

	// Optional LLM credentials for transcript extraction
	OpenAIAPIKey string
	OpenAIModel  string

	// Optional Twilio credentials used to verify numbers before import
	TwilioAccountSID string
	TwilioAuthToken  string

	// Optional YAML file seeding email templates at startup
	TemplateSeedPath string
}

// LoadFromEnv builds the configuration from environment variables.
func LoadFromEnv() *CampaignConfig {
	return &CampaignConfig{
		Port:       GetEnvOrDefault("PORT", "8080"),
		InstanceID: GetEnvOrDefault("INSTANCE_ID", ""),
		EnableCORS: GetEnvAsBoolOrDefault("ENABLE_CORS", true),

		ConvAIAPIKey:     GetEnvOrDefault("CONVAI_API_KEY", ""),
		ConvAIBaseURL:    GetEnvOrDefault("CONVAI_BASE_URL", "https://api.elevenlabs.io"),
		ConvAITimeoutSec: GetEnvAsIntOrDefault("CONVAI_TIMEOUT_SECONDS", 30),
		ConvAIMaxRetries: GetEnvAsIntOrDefault("CONVAI_MAX_RETRIES", 3),
		ConvAIRateLimit:  GetEnvAsFloatOrDefault("CONVAI_RATE_LIMIT", 10),

		WebhookBaseURL: GetEnvOrDefault("WEBHOOK_BASE_URL", "http://localhost:8080/api/v1"),

		EmailAPIURL:        GetEnvOrDefault("EMAIL_API_URL", ""),
		DefaultSenderEmail: GetEnvOrDefault("DEFAULT_SENDER_EMAIL", DefaultSenderEmail),

		OpenAIAPIKey: GetEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:  GetEnvOrDefault("OPENAI_MODEL", ""),

		TwilioAccountSID: GetEnvOrDefault("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  GetEnvOrDefault("TWILIO_AUTH_TOKEN", ""),

		TemplateSeedPath: GetEnvOrDefault("TEMPLATE_SEED_PATH", "email_templates.yaml"),
	}
}

// Validate checks that required credentials are present. A missing gateway
// API key is fatal at startup rather than surfacing per request.
func (c *CampaignConfig) Validate() error {
	if c.ConvAIAPIKey == "" {
		return fmt.Errorf("CONVAI_API_KEY is required")
	}
	if c.ConvAIBaseURL == "" {
		return fmt.Errorf("ConvAI base URL cannot be empty")
	}
	return nil
}

// GetEnvOrDefault gets environment variable or returns default
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsIntOrDefault gets environment variable as int or returns default
func GetEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloatOrDefault gets environment variable as float64 or returns default
func GetEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBoolOrDefault gets environment variable as bool or returns default
func GetEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
