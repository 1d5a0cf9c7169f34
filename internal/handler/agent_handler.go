package handler

import (
	"net/http"
	"strconv"

	"github.com/ClareAI/astra-campaign-service/internal/adapters/convai"
	"github.com/gorilla/mux"
)

// AgentHandler proxies agent CRUD to the gateway.
type AgentHandler struct {
	convaiClient *convai.Client
}

// NewAgentHandler creates an agent management handler.
func NewAgentHandler(convaiClient *convai.Client) *AgentHandler {
	return &AgentHandler{convaiClient: convaiClient}
}

// SetupAgentRoutes registers agent routes.
func (h *AgentHandler) SetupAgentRoutes(router *mux.Router) {
	sub := router.PathPrefix("/agents").Subrouter()
	sub.HandleFunc("", h.handleCreate).Methods(http.MethodPost)
	sub.HandleFunc("", h.handleList).Methods(http.MethodGet)
	sub.HandleFunc("/{agent_id}", h.handleGet).Methods(http.MethodGet)
	sub.HandleFunc("/{agent_id}", h.handleUpdate).Methods(http.MethodPatch)
	sub.HandleFunc("/{agent_id}", h.handleDelete).Methods(http.MethodDelete)
}

func (h *AgentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if !decodeBody(w, r, &payload) {
		return
	}

	agent, err := h.convaiClient.CreateAgent(r.Context(), payload)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *AgentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	agents, err := h.convaiClient.ListAgents(r.Context(), query.Get("cursor"), pageSize)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *AgentHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	agent, err := h.convaiClient.GetAgent(r.Context(), mux.Vars(r)["agent_id"])
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if !decodeBody(w, r, &payload) {
		return
	}

	agent, err := h.convaiClient.UpdateAgent(r.Context(), mux.Vars(r)["agent_id"], payload)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.convaiClient.DeleteAgent(r.Context(), mux.Vars(r)["agent_id"]); err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "agent deleted"})
}
