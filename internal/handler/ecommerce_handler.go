package handler

import (
	"net/http"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/internal/ecommerce"
	"github.com/ClareAI/astra-campaign-service/internal/resolver"
	"github.com/ClareAI/astra-campaign-service/internal/session"
	"github.com/gorilla/mux"
)

// EcommerceHandler manages store connections on the management API.
type EcommerceHandler struct {
	registry *ecommerce.Registry
	batches  *session.BatchStore
}

// NewEcommerceHandler creates an ecommerce management handler.
func NewEcommerceHandler(registry *ecommerce.Registry, batches *session.BatchStore) *EcommerceHandler {
	return &EcommerceHandler{registry: registry, batches: batches}
}

// SetupEcommerceRoutes registers ecommerce management routes.
func (h *EcommerceHandler) SetupEcommerceRoutes(router *mux.Router) {
	sub := router.PathPrefix("/ecommerce").Subrouter()
	sub.HandleFunc("/connect", h.handleConnect).Methods(http.MethodPost)
	sub.HandleFunc("/test", h.handleTest).Methods(http.MethodPost)
	sub.HandleFunc("/sessions", h.handleSessions).Methods(http.MethodGet)
	sub.HandleFunc("/products/{conversation_id}", h.handleProducts).Methods(http.MethodGet)
	sub.HandleFunc("/orders/{conversation_id}", h.handleOrders).Methods(http.MethodGet)
	sub.HandleFunc("/disconnect/{conversation_id}", h.handleDisconnect).Methods(http.MethodDelete)
}

type connectRequest struct {
	ConversationID string                      `json:"conversation_id"`
	Credentials    domain.EcommerceCredentials `json:"credentials"`
}

func (h *EcommerceHandler) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ConversationID == "" || req.Credentials.Platform == "" || req.Credentials.BaseURL == "" {
		writeError(w, http.StatusBadRequest, "conversation_id, credentials.platform and credentials.base_url are required")
		return
	}

	client := h.registry.Connect(req.ConversationID, req.Credentials)
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "ecommerce platform connected",
		Data: map[string]interface{}{
			"conversation_id": req.ConversationID,
			"platform":        client.Platform,
		},
	})
}

// handleTest verifies credentials by fetching a single product with a
// throwaway client.
func (h *EcommerceHandler) handleTest(w http.ResponseWriter, r *http.Request) {
	var creds domain.EcommerceCredentials
	if !decodeBody(w, r, &creds) {
		return
	}

	client := ecommerce.NewClient(creds)
	result := client.GetProducts(r.Context(), 1)
	if !result.Success {
		writeJSON(w, http.StatusOK, apiResponse{Success: false, Error: result.Error})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "connection verified",
		Data:    map[string]interface{}{"platform": client.Platform, "products_found": result.Count},
	})
}

func (h *EcommerceHandler) handleSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": h.registry.SessionKeys(),
	})
}

func (h *EcommerceHandler) handleProducts(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversation_id"]
	limit := resolver.ClampLimit(r.URL.Query().Get("limit"))

	result := h.registry.GetProducts(r.Context(), conversationID, limit)
	if !result.Success {
		writeError(w, http.StatusNotFound, result.Error)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *EcommerceHandler) handleOrders(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversation_id"]
	limit := resolver.ClampLimit(r.URL.Query().Get("limit"))

	result := h.registry.GetOrders(r.Context(), conversationID, limit)
	if !result.Success {
		writeError(w, http.StatusNotFound, result.Error)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *EcommerceHandler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversation_id"]
	h.registry.Disconnect(conversationID)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "ecommerce platform disconnected"})
}
