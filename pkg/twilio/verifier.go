// Package twilio verifies phone number ownership against a Twilio account
// before handing the number to the calling gateway.
package twilio

import (
	"fmt"

	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// NumberVerifier checks that a phone number belongs to the configured Twilio
// account. If credentials are absent the verifier is disabled and every check
// passes.
type NumberVerifier struct {
	client  *twilio.RestClient
	enabled bool
}

// NewNumberVerifier creates a verifier. Empty credentials disable it.
func NewNumberVerifier(accountSID, authToken string) *NumberVerifier {
	if accountSID == "" || authToken == "" {
		logger.Base().Warn("Twilio credentials not provided, number verification disabled")
		return &NumberVerifier{enabled: false}
	}

	return &NumberVerifier{
		client:  twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		enabled: true,
	}
}

// Enabled reports whether verification is active.
func (v *NumberVerifier) Enabled() bool {
	return v.enabled
}

// VerifyNumber confirms the number exists on the account's incoming phone
// numbers. Disabled verifiers pass everything.
func (v *NumberVerifier) VerifyNumber(phoneNumber string) error {
	if !v.enabled {
		return nil
	}

	params := &api.ListIncomingPhoneNumberParams{}
	params.SetPhoneNumber(phoneNumber)
	params.SetLimit(1)

	numbers, err := v.client.Api.ListIncomingPhoneNumber(params)
	if err != nil {
		return fmt.Errorf("querying Twilio account numbers: %w", err)
	}
	if len(numbers) == 0 {
		return fmt.Errorf("phone number %s not found on Twilio account", phoneNumber)
	}

	logger.Base().Info("verified Twilio number ownership", zap.String("phone_number", phoneNumber))
	return nil
}
