package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ClareAI/astra-campaign-service/internal/resolver"
	"github.com/ClareAI/astra-campaign-service/internal/services/template"
	"github.com/ClareAI/astra-campaign-service/internal/session"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// WebhookHandler serves the tool callbacks the ConvAI gateway invokes
// mid-conversation. Responses are always HTTP 200 with success carried in the
// body so the agent has something to speak even on failure.
type WebhookHandler struct {
	resolver      *resolver.Resolver
	templates     *template.Service
	sessions      *session.Store
	defaultSender string
}

// NewWebhookHandler creates the webhook tool handler.
func NewWebhookHandler(res *resolver.Resolver, templates *template.Service, sessions *session.Store, defaultSender string) *WebhookHandler {
	return &WebhookHandler{
		resolver:      res,
		templates:     templates,
		sessions:      sessions,
		defaultSender: defaultSender,
	}
}

// SetupWebhookRoutes registers the tool callback routes on a subrouter. The
// same handler is mounted under both /webhooks and /webhook.
func (h *WebhookHandler) SetupWebhookRoutes(router *mux.Router) {
	router.HandleFunc("/ecommerce/products", h.handleGetProducts).Methods(http.MethodPost)
	router.HandleFunc("/ecommerce/orders", h.handleGetOrders).Methods(http.MethodPost)
	router.HandleFunc("/email/{template_id}", h.handleSendEmail).Methods(http.MethodPost)
	router.HandleFunc("/test", h.handleTest).Methods(http.MethodPost)
}

// parseWebhookPayload decodes the tool callback body. A malformed body is
// answered with a speakable failure, never an HTTP error.
func parseWebhookPayload(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Base().Warn("unparseable webhook payload", zap.Error(err))
		writeWebhookResult(w, false, nil, "could not parse the tool request body")
		return nil, false
	}
	return payload, true
}

func (h *WebhookHandler) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	payload, ok := parseWebhookPayload(w, r)
	if !ok {
		return
	}
	logger.Base().Info("webhook get_products called")

	res := h.resolver.ResolveEcommerce(payload)
	if !res.Success {
		writeWebhookResult(w, false, nil, res.Reason)
		return
	}

	limit := resolver.ClampLimit(payload["limit"])
	result := res.Client.GetProducts(r.Context(), limit)
	if !result.Success {
		writeWebhookResult(w, false, nil, "Could not fetch products: "+result.Error)
		return
	}
	writeWebhookResult(w, true, result.Formatted, "")
}

func (h *WebhookHandler) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	payload, ok := parseWebhookPayload(w, r)
	if !ok {
		return
	}
	logger.Base().Info("webhook get_orders called")

	res := h.resolver.ResolveEcommerce(payload)
	if !res.Success {
		writeWebhookResult(w, false, nil, res.Reason)
		return
	}

	limit := resolver.ClampLimit(payload["limit"])
	result := res.Client.GetOrders(r.Context(), limit)
	if !result.Success {
		writeWebhookResult(w, false, nil, "Could not fetch orders: "+result.Error)
		return
	}
	writeWebhookResult(w, true, result.Formatted, "")
}

// correlationKeys are stripped from the payload before it is treated as
// template parameters.
var correlationKeys = map[string]struct{}{
	"conversation_id": {}, "conversationId": {}, "session_id": {}, "call_id": {},
	"agent_id": {}, "agentId": {},
	"called_number": {}, "to_number": {}, "phone_number": {}, "recipient_phone": {},
	"dynamic_variables": {},
}

func (h *WebhookHandler) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	templateID := mux.Vars(r)["template_id"]

	payload, ok := parseWebhookPayload(w, r)
	if !ok {
		return
	}
	logger.Base().Info("webhook email called", zap.String("template_id", templateID))

	tmpl, exists := h.templates.GetTemplate(templateID)
	if !exists {
		writeWebhookResult(w, false, nil, "Email template not found: "+templateID)
		return
	}

	res := h.resolver.ResolveEmailIdentity(payload)
	if !res.Success {
		writeWebhookResult(w, false, nil, res.Reason)
		return
	}

	parameters := make(map[string]interface{})
	for k, v := range payload {
		if _, skip := correlationKeys[k]; skip {
			continue
		}
		parameters[k] = v
	}

	sender := resolver.SenderEmail(res.Identity, tmpl.SenderEmail, h.defaultSender)
	if err := h.templates.SendEmail(r.Context(), templateID, res.Identity.Name, res.Identity.Email, parameters, sender); err != nil {
		logger.Base().Error("webhook email send failed",
			zap.String("template_id", templateID), zap.Error(err))
		writeWebhookResult(w, false, nil, "Failed to send email: "+err.Error())
		return
	}

	writeWebhookResult(w, true, "Email sent successfully to "+res.Identity.Email, "")
}

func (h *WebhookHandler) handleTest(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeWebhookResult(w, true, "Webhook received (no JSON body)", "")
		return
	}
	writeWebhookResult(w, true, fmt.Sprintf("Webhook received successfully. Payload: %v", payload), "")
}
