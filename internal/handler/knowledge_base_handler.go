package handler

import (
	"net/http"
	"strconv"

	"github.com/ClareAI/astra-campaign-service/internal/adapters/convai"
	"github.com/gorilla/mux"
)

// KnowledgeBaseHandler manages knowledge base documents on the gateway.
type KnowledgeBaseHandler struct {
	convaiClient *convai.Client
}

// NewKnowledgeBaseHandler creates a knowledge base handler.
func NewKnowledgeBaseHandler(convaiClient *convai.Client) *KnowledgeBaseHandler {
	return &KnowledgeBaseHandler{convaiClient: convaiClient}
}

// SetupKnowledgeBaseRoutes registers knowledge base routes.
func (h *KnowledgeBaseHandler) SetupKnowledgeBaseRoutes(router *mux.Router) {
	sub := router.PathPrefix("/knowledge-base").Subrouter()
	sub.HandleFunc("/url", h.handleCreateFromURL).Methods(http.MethodPost)
	sub.HandleFunc("/text", h.handleCreateFromText).Methods(http.MethodPost)
	sub.HandleFunc("", h.handleList).Methods(http.MethodGet)
	sub.HandleFunc("/{document_id}", h.handleGet).Methods(http.MethodGet)
	sub.HandleFunc("/{document_id}", h.handleDelete).Methods(http.MethodDelete)
}

type createDocumentRequest struct {
	URL  string `json:"url,omitempty"`
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"`
}

func (h *KnowledgeBaseHandler) handleCreateFromURL(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	doc, err := h.convaiClient.CreateDocumentFromURL(r.Context(), req.URL, req.Name)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *KnowledgeBaseHandler) handleCreateFromText(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	doc, err := h.convaiClient.CreateDocumentFromText(r.Context(), req.Text, req.Name)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *KnowledgeBaseHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	docs, err := h.convaiClient.ListDocuments(r.Context(), query.Get("cursor"), pageSize)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *KnowledgeBaseHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.convaiClient.GetDocument(r.Context(), mux.Vars(r)["document_id"])
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *KnowledgeBaseHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.convaiClient.DeleteDocument(r.Context(), mux.Vars(r)["document_id"]); err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "document deleted"})
}
