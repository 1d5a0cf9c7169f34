package handler

import (
	"net/http"
	"strconv"

	"github.com/ClareAI/astra-campaign-service/internal/adapters/convai"
	"github.com/gorilla/mux"
)

// ConversationHandler proxies conversation queries to the gateway.
type ConversationHandler struct {
	convaiClient *convai.Client
}

// NewConversationHandler creates a conversation query handler.
func NewConversationHandler(convaiClient *convai.Client) *ConversationHandler {
	return &ConversationHandler{convaiClient: convaiClient}
}

// SetupConversationRoutes registers conversation routes.
func (h *ConversationHandler) SetupConversationRoutes(router *mux.Router) {
	sub := router.PathPrefix("/conversations").Subrouter()
	sub.HandleFunc("", h.handleList).Methods(http.MethodGet)
	sub.HandleFunc("/{conversation_id}", h.handleGet).Methods(http.MethodGet)
	sub.HandleFunc("/{conversation_id}", h.handleDelete).Methods(http.MethodDelete)
}

func (h *ConversationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	conversations, err := h.convaiClient.ListConversations(r.Context(), query.Get("agent_id"), query.Get("cursor"), pageSize)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (h *ConversationHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	conversation, err := h.convaiClient.GetConversation(r.Context(), mux.Vars(r)["conversation_id"])
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

func (h *ConversationHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.convaiClient.DeleteConversation(r.Context(), mux.Vars(r)["conversation_id"]); err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "conversation deleted"})
}
