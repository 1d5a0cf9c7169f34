package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ClareAI/astra-campaign-service/internal/adapters/convai"
	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/internal/session"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// BatchHandler exposes batch calling campaign endpoints.
type BatchHandler struct {
	convaiClient *convai.Client
	batches      *session.BatchStore
}

// NewBatchHandler creates a batch calling handler.
func NewBatchHandler(convaiClient *convai.Client, batches *session.BatchStore) *BatchHandler {
	return &BatchHandler{convaiClient: convaiClient, batches: batches}
}

// SetupBatchRoutes registers batch calling routes.
func (h *BatchHandler) SetupBatchRoutes(router *mux.Router) {
	sub := router.PathPrefix("/batch-calling").Subrouter()
	sub.HandleFunc("/submit", h.handleSubmit).Methods(http.MethodPost)
	sub.HandleFunc("", h.handleList).Methods(http.MethodGet)
	sub.HandleFunc("/{job_id}", h.handleGet).Methods(http.MethodGet)
	sub.HandleFunc("/{job_id}/calls", h.handleCalls).Methods(http.MethodGet)
	sub.HandleFunc("/{job_id}/cancel", h.handleCancel).Methods(http.MethodPost)
	sub.HandleFunc("/{job_id}/context", h.handleRemoveContext).Methods(http.MethodDelete)
}

// submitRecipient is one call target in a submission request.
type submitRecipient struct {
	PhoneNumber      string                 `json:"phone_number"`
	Name             string                 `json:"name,omitempty"`
	Email            string                 `json:"email,omitempty"`
	DynamicVariables map[string]interface{} `json:"dynamic_variables,omitempty"`
}

// submitBatchRequest is the campaign submission payload. Ecommerce
// credentials and sender email apply to every call in the batch.
type submitBatchRequest struct {
	CallName             string                       `json:"call_name"`
	AgentID              string                       `json:"agent_id"`
	PhoneNumberID        string                       `json:"phone_number_id"`
	Recipients           []submitRecipient            `json:"recipients"`
	ScheduledTimeUnix    int64                        `json:"scheduled_time_unix,omitempty"`
	Timezone             string                       `json:"timezone,omitempty"`
	RetryCount           int                          `json:"retry_count,omitempty"`
	EcommerceCredentials *domain.EcommerceCredentials `json:"ecommerce_credentials,omitempty"`
	SenderEmail          string                       `json:"sender_email,omitempty"`
}

func (h *BatchHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CallName == "" || req.AgentID == "" || len(req.Recipients) == 0 {
		writeError(w, http.StatusBadRequest, "call_name, agent_id and recipients are required")
		return
	}

	gatewayRecipients := make([]domain.BatchRecipient, 0, len(req.Recipients))
	for _, recipient := range req.Recipients {
		gr := domain.BatchRecipient{
			PhoneNumber: recipient.PhoneNumber,
			Name:        recipient.Name,
		}
		if len(recipient.DynamicVariables) > 0 {
			gr.ClientData = &domain.ConversationInitiationClientData{
				DynamicVariables: recipient.DynamicVariables,
			}
		}
		gatewayRecipients = append(gatewayRecipients, gr)
	}

	job, err := h.convaiClient.SubmitBatchJob(r.Context(), convai.SubmitBatchJobRequest{
		CallName:          req.CallName,
		AgentID:           req.AgentID,
		Recipients:        gatewayRecipients,
		PhoneNumberID:     req.PhoneNumberID,
		ScheduledTimeUnix: req.ScheduledTimeUnix,
		Timezone:          req.Timezone,
		RetryCount:        req.RetryCount,
	})
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	// Campaign context only matters when there is something to resolve
	// later: credentials, a sender, or recipient emails.
	if req.EcommerceCredentials != nil || req.SenderEmail != "" || anyRecipientEmail(req.Recipients) {
		infos := make([]session.RecipientInfo, 0, len(req.Recipients))
		for _, recipient := range req.Recipients {
			infos = append(infos, session.RecipientInfo{
				PhoneNumber: recipient.PhoneNumber,
				Name:        recipient.Name,
				Email:       recipient.Email,
			})
		}
		h.batches.StoreJob(job.ID, req.AgentID, req.EcommerceCredentials, req.SenderEmail, infos)
	}

	logger.Base().Info("batch job submitted",
		zap.String("job_id", job.ID),
		zap.String("agent_id", req.AgentID),
		zap.Int("recipients", len(req.Recipients)))
	writeJSON(w, http.StatusCreated, job)
}

func anyRecipientEmail(recipients []submitRecipient) bool {
	for _, r := range recipients {
		if r.Email != "" {
			return true
		}
	}
	return false
}

func (h *BatchHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	jobs, err := h.convaiClient.ListBatchJobs(r.Context(), query.Get("status"), query.Get("cursor"), pageSize)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *BatchHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	job, err := h.convaiClient.GetBatchJob(r.Context(), jobID)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *BatchHandler) handleCalls(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]
	query := r.URL.Query()
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	calls, err := h.convaiClient.GetBatchJobCalls(r.Context(), jobID, query.Get("status"), query.Get("cursor"), pageSize)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

func (h *BatchHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	if err := h.convaiClient.CancelBatchJob(r.Context(), jobID); err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "batch job cancelled"})
}

func (h *BatchHandler) handleRemoveContext(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]
	h.batches.RemoveJob(jobID)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "batch job context removed"})
}

// writeGatewayError maps a gateway failure onto the management API: 4xx pass
// through with their status, everything else is a 502.
func writeGatewayError(w http.ResponseWriter, err error) {
	var apiErr *convai.APIError
	if errors.As(err, &apiErr) {
		writeError(w, apiErr.StatusCode, apiErr.Message)
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}
