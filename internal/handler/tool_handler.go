package handler

import (
	"net/http"

	"github.com/ClareAI/astra-campaign-service/internal/adapters/convai"
	"github.com/gorilla/mux"
)

// ToolHandler manages webhook tools registered with the gateway.
type ToolHandler struct {
	convaiClient *convai.Client
}

// NewToolHandler creates a tool management handler.
func NewToolHandler(convaiClient *convai.Client) *ToolHandler {
	return &ToolHandler{convaiClient: convaiClient}
}

// SetupToolRoutes registers tool routes.
func (h *ToolHandler) SetupToolRoutes(router *mux.Router) {
	sub := router.PathPrefix("/tools").Subrouter()
	sub.HandleFunc("", h.handleCreate).Methods(http.MethodPost)
	sub.HandleFunc("", h.handleList).Methods(http.MethodGet)
	sub.HandleFunc("/{tool_id}", h.handleGet).Methods(http.MethodGet)
	sub.HandleFunc("/{tool_id}", h.handleDelete).Methods(http.MethodDelete)
}

type createToolRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	WebhookURL  string                 `json:"webhook_url"`
	HTTPMethod  string                 `json:"http_method,omitempty"`
	Parameters  []convai.ToolParameter `json:"parameters,omitempty"`
}

func (h *ToolHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createToolRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.WebhookURL == "" {
		writeError(w, http.StatusBadRequest, "name and webhook_url are required")
		return
	}
	if req.HTTPMethod == "" {
		req.HTTPMethod = http.MethodPost
	}

	toolID, err := h.convaiClient.CreateWebhookTool(r.Context(), req.Name, req.Description, req.WebhookURL, req.HTTPMethod, req.Parameters)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"tool_id": toolID})
}

func (h *ToolHandler) handleList(w http.ResponseWriter, r *http.Request) {
	tools, err := h.convaiClient.ListTools(r.Context())
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tools)
}

func (h *ToolHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	tool, err := h.convaiClient.GetTool(r.Context(), mux.Vars(r)["tool_id"])
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

func (h *ToolHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.convaiClient.DeleteTool(r.Context(), mux.Vars(r)["tool_id"]); err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "tool deleted"})
}
