package handler

import (
	"net/http"

	"github.com/ClareAI/astra-campaign-service/internal/services/template"
	"github.com/ClareAI/astra-campaign-service/internal/session"
	"github.com/gorilla/mux"
)

// TemplateHandler manages email templates and customer sessions on the
// management API.
type TemplateHandler struct {
	templates *template.Service
	sessions  *session.Store
}

// NewTemplateHandler creates a template management handler.
func NewTemplateHandler(templates *template.Service, sessions *session.Store) *TemplateHandler {
	return &TemplateHandler{templates: templates, sessions: sessions}
}

// SetupTemplateRoutes registers email template and customer session routes.
func (h *TemplateHandler) SetupTemplateRoutes(router *mux.Router) {
	sub := router.PathPrefix("/email-templates").Subrouter()
	sub.HandleFunc("", h.handleCreate).Methods(http.MethodPost)
	sub.HandleFunc("", h.handleList).Methods(http.MethodGet)
	sub.HandleFunc("/customer-session", h.handleStoreSession).Methods(http.MethodPost)
	sub.HandleFunc("/customer-sessions", h.handleListSessions).Methods(http.MethodGet)
	sub.HandleFunc("/customer-session/{conversation_id}", h.handleGetSession).Methods(http.MethodGet)
	sub.HandleFunc("/customer-session/{conversation_id}", h.handleDeleteSession).Methods(http.MethodDelete)
	sub.HandleFunc("/{template_id}", h.handleGet).Methods(http.MethodGet)
	sub.HandleFunc("/{template_id}", h.handleDelete).Methods(http.MethodDelete)
}

type createTemplateRequest struct {
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	SubjectTemplate string               `json:"subject_template"`
	BodyTemplate    string               `json:"body_template"`
	Parameters      []template.Parameter `json:"parameters,omitempty"`
	AutoCreateTool  *bool                `json:"auto_create_tool,omitempty"`
	SenderEmail     string               `json:"sender_email,omitempty"`
}

func (h *TemplateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.SubjectTemplate == "" || req.BodyTemplate == "" {
		writeError(w, http.StatusBadRequest, "name, subject_template and body_template are required")
		return
	}

	autoCreateTool := true
	if req.AutoCreateTool != nil {
		autoCreateTool = *req.AutoCreateTool
	}

	tmpl, err := h.templates.CreateTemplate(r.Context(), req.Name, req.Description, req.SubjectTemplate, req.BodyTemplate, req.Parameters, autoCreateTool, req.SenderEmail)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

func (h *TemplateHandler) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"templates": h.templates.ListTemplates(),
	})
}

func (h *TemplateHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	templateID := mux.Vars(r)["template_id"]

	tmpl, ok := h.templates.GetTemplate(templateID)
	if !ok {
		writeError(w, http.StatusNotFound, "template not found: "+templateID)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (h *TemplateHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	templateID := mux.Vars(r)["template_id"]

	if !h.templates.DeleteTemplate(r.Context(), templateID) {
		writeError(w, http.StatusNotFound, "template not found: "+templateID)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "template deleted"})
}

type storeSessionRequest struct {
	ConversationID string                 `json:"conversation_id"`
	CustomerInfo   map[string]interface{} `json:"customer_info"`
}

func (h *TemplateHandler) handleStoreSession(w http.ResponseWriter, r *http.Request) {
	var req storeSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ConversationID == "" || len(req.CustomerInfo) == 0 {
		writeError(w, http.StatusBadRequest, "conversation_id and customer_info are required")
		return
	}

	h.sessions.Put(req.ConversationID, req.CustomerInfo)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "customer session stored"})
}

func (h *TemplateHandler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversation_id"]

	ctx, ok := h.sessions.Get(conversationID)
	if !ok {
		writeError(w, http.StatusNotFound, "no customer session for conversation "+conversationID)
		return
	}
	writeJSON(w, http.StatusOK, ctx)
}

func (h *TemplateHandler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversation_id"]
	h.sessions.Remove(conversationID)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "customer session removed"})
}

func (h *TemplateHandler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": h.sessions.List(),
		"count":    h.sessions.Len(),
	})
}
