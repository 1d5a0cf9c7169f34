package handler

import (
	"net/http"

	"github.com/ClareAI/astra-campaign-service/internal/adapters/convai"
	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/internal/ecommerce"
	"github.com/ClareAI/astra-campaign-service/internal/session"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CallHandler initiates single outbound calls (Twilio and SIP trunk
// variants) and registers the per-conversation context they carry.
type CallHandler struct {
	convaiClient *convai.Client
	sessions     *session.Store
	registry     *ecommerce.Registry
}

// NewCallHandler creates an outbound call handler.
func NewCallHandler(convaiClient *convai.Client, sessions *session.Store, registry *ecommerce.Registry) *CallHandler {
	return &CallHandler{convaiClient: convaiClient, sessions: sessions, registry: registry}
}

// SetupCallRoutes registers the outbound call routes.
func (h *CallHandler) SetupCallRoutes(router *mux.Router) {
	router.HandleFunc("/phone-numbers/twilio/outbound-call", h.handleTwilioCall).Methods(http.MethodPost)
	router.HandleFunc("/sip-trunk/outbound-call", h.handleSIPCall).Methods(http.MethodPost)
}

// customerInfo is the identity attached to a single outbound call.
type customerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type outboundCallRequest struct {
	AgentID              string                       `json:"agent_id"`
	AgentPhoneNumberID   string                       `json:"agent_phone_number_id"`
	ToNumber             string                       `json:"to_number"`
	DynamicVariables     map[string]interface{}       `json:"dynamic_variables,omitempty"`
	FirstMessage         string                       `json:"first_message,omitempty"`
	EcommerceCredentials *domain.EcommerceCredentials `json:"ecommerce_credentials,omitempty"`
	CustomerInfo         *customerInfo                `json:"customer_info,omitempty"`
	SenderEmail          string                       `json:"sender_email,omitempty"`
}

type outboundCallResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	ConversationID   string `json:"conversation_id,omitempty"`
	CallSID          string `json:"call_sid,omitempty"`
	SIPCallID        string `json:"sip_call_id,omitempty"`
	EcommerceEnabled bool   `json:"ecommerce_enabled"`
	EmailEnabled     bool   `json:"email_enabled"`
}

func (h *CallHandler) handleTwilioCall(w http.ResponseWriter, r *http.Request) {
	var req outboundCallRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AgentID == "" || req.AgentPhoneNumberID == "" || req.ToNumber == "" {
		writeError(w, http.StatusBadRequest, "agent_id, agent_phone_number_id and to_number are required")
		return
	}

	var clientData *domain.ConversationInitiationClientData
	if len(req.DynamicVariables) > 0 || req.FirstMessage != "" {
		clientData = &domain.ConversationInitiationClientData{
			DynamicVariables: req.DynamicVariables,
			FirstMessage:     req.FirstMessage,
		}
	}

	result, err := h.convaiClient.TwilioOutboundCall(r.Context(), req.AgentID, req.AgentPhoneNumberID, req.ToNumber, clientData)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	resp := outboundCallResponse{
		Success:        result.Success,
		Message:        result.Message,
		ConversationID: result.ConversationID,
		CallSID:        result.CallSID,
	}
	resp.EcommerceEnabled, resp.EmailEnabled = h.registerCallContext(result.ConversationID, &req)
	writeJSON(w, http.StatusOK, resp)
}

func (h *CallHandler) handleSIPCall(w http.ResponseWriter, r *http.Request) {
	var req outboundCallRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AgentID == "" || req.AgentPhoneNumberID == "" || req.ToNumber == "" {
		writeError(w, http.StatusBadRequest, "agent_id, agent_phone_number_id and to_number are required")
		return
	}

	result, err := h.convaiClient.SIPOutboundCall(r.Context(), req.AgentID, req.AgentPhoneNumberID, req.ToNumber, req.DynamicVariables, req.FirstMessage)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	resp := outboundCallResponse{
		Success:        result.Success,
		Message:        result.Message,
		ConversationID: result.ConversationID,
		SIPCallID:      result.SIPCallID,
	}
	resp.EcommerceEnabled, resp.EmailEnabled = h.registerCallContext(result.ConversationID, &req)
	writeJSON(w, http.StatusOK, resp)
}

// registerCallContext stores ecommerce credentials and customer identity
// under the new conversation id so webhook tools can resolve them mid-call.
func (h *CallHandler) registerCallContext(conversationID string, req *outboundCallRequest) (ecommerceEnabled, emailEnabled bool) {
	if conversationID == "" {
		return false, false
	}

	if req.EcommerceCredentials != nil {
		h.registry.Connect(conversationID, *req.EcommerceCredentials)
		ecommerceEnabled = true
	}

	if req.CustomerInfo != nil {
		fields := map[string]interface{}{
			"name":  req.CustomerInfo.Name,
			"email": req.CustomerInfo.Email,
		}
		if req.SenderEmail != "" {
			fields["sender_email"] = req.SenderEmail
		}
		if len(req.DynamicVariables) > 0 {
			fields["dynamic_variables"] = req.DynamicVariables
		}
		h.sessions.Put(conversationID, fields)
		emailEnabled = true
	}

	if ecommerceEnabled || emailEnabled {
		logger.Base().Info("registered call context",
			zap.String("conversation_id", conversationID),
			zap.Bool("ecommerce", ecommerceEnabled),
			zap.Bool("email", emailEnabled))
	}
	return ecommerceEnabled, emailEnabled
}
