package convai

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	phoneNumbersEndpoint         = "/v1/convai/phone-numbers"
	twilioOutboundCallEndpoint   = "/v1/convai/twilio/outbound-call"
	sipTrunkOutboundCallEndpoint = "/v1/convai/sip-trunk/outbound-call"
)

// ImportTwilioNumber imports a Twilio-provisioned phone number into the
// gateway. Returns the gateway's phone number id.
func (c *Client) ImportTwilioNumber(ctx context.Context, phoneNumber, label, accountSID, authToken string) (string, error) {
	payload := map[string]interface{}{
		"phone_number": phoneNumber,
		"label":        label,
		"sid":          accountSID,
		"token":        authToken,
	}

	var result struct {
		PhoneNumberID string `json:"phone_number_id"`
	}
	if err := c.post(ctx, phoneNumbersEndpoint, payload, &result); err != nil {
		return "", err
	}
	logger.Base().Info("phone number imported",
		zap.String("phone_number", phoneNumber),
		zap.String("phone_number_id", result.PhoneNumberID))
	return result.PhoneNumberID, nil
}

// ImportSIPTrunkNumber imports a number from a SIP trunk provider. The trunk
// configuration differs per provider, so the payload is forwarded as built by
// the handler.
func (c *Client) ImportSIPTrunkNumber(ctx context.Context, payload map[string]interface{}) (string, error) {
	var result struct {
		PhoneNumberID string `json:"phone_number_id"`
	}
	if err := c.post(ctx, phoneNumbersEndpoint, payload, &result); err != nil {
		return "", err
	}
	return result.PhoneNumberID, nil
}

// ListPhoneNumbers lists imported phone numbers.
func (c *Client) ListPhoneNumbers(ctx context.Context, cursor string, pageSize int) (map[string]interface{}, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}

	var result map[string]interface{}
	if err := c.get(ctx, phoneNumbersEndpoint, query, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPhoneNumber returns one phone number's details.
func (c *Client) GetPhoneNumber(ctx context.Context, phoneNumberID string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.get(ctx, phoneNumbersEndpoint+"/"+phoneNumberID, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdatePhoneNumber patches a phone number, typically to assign an agent for
// inbound handling.
func (c *Client) UpdatePhoneNumber(ctx context.Context, phoneNumberID string, payload map[string]interface{}) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.patch(ctx, phoneNumbersEndpoint+"/"+phoneNumberID, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeletePhoneNumber removes an imported phone number.
func (c *Client) DeletePhoneNumber(ctx context.Context, phoneNumberID string) error {
	return c.delete(ctx, phoneNumbersEndpoint+"/"+phoneNumberID)
}

// OutboundCallResult is the gateway's response to a single outbound call
// initiation, Twilio or SIP.
type OutboundCallResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	CallSID        string `json:"callSid,omitempty"`
	SIPCallID      string `json:"sip_call_id,omitempty"`
}

// TwilioOutboundCall initiates a single outbound call through a
// Twilio-imported number.
func (c *Client) TwilioOutboundCall(ctx context.Context, agentID, agentPhoneNumberID, toNumber string, clientData *domain.ConversationInitiationClientData) (*OutboundCallResult, error) {
	payload := map[string]interface{}{
		"agent_id":              agentID,
		"agent_phone_number_id": agentPhoneNumberID,
		"to_number":             toNumber,
	}
	if clientData != nil {
		payload["conversation_initiation_client_data"] = clientData
	}

	var result OutboundCallResult
	if err := c.post(ctx, twilioOutboundCallEndpoint, payload, &result); err != nil {
		return nil, err
	}
	if result.Success {
		logger.Base().Info("outbound call initiated",
			zap.String("conversation_id", result.ConversationID),
			zap.String("to_number", toNumber))
	} else {
		logger.Base().Warn("outbound call failed",
			zap.String("to_number", toNumber),
			zap.String("message", result.Message))
	}
	return &result, nil
}

// SIPOutboundCall initiates a single outbound call through a SIP trunk
// number. Unlike the Twilio variant, variables and first message ride at the
// top level of the payload.
func (c *Client) SIPOutboundCall(ctx context.Context, agentID, agentPhoneNumberID, toNumber string, dynamicVariables map[string]interface{}, firstMessage string) (*OutboundCallResult, error) {
	payload := map[string]interface{}{
		"agent_id":              agentID,
		"agent_phone_number_id": agentPhoneNumberID,
		"to_number":             toNumber,
	}
	if dynamicVariables != nil {
		payload["dynamic_variables"] = dynamicVariables
	}
	if firstMessage != "" {
		payload["first_message"] = firstMessage
	}

	var result OutboundCallResult
	if err := c.post(ctx, sipTrunkOutboundCallEndpoint, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
