package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ClareAI/astra-campaign-service/internal/adapters/convai"
	"github.com/ClareAI/astra-campaign-service/internal/services/batch"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// AutomationHandler exposes the batch result automation surface: waiting on
// jobs, pushing results downstream, analysis and extraction.
type AutomationHandler struct {
	poller        *batch.Poller
	extractor     *batch.Extractor
	notifier      *batch.Notifier
	subscriptions *batch.SubscriptionStore
	convaiClient  *convai.Client
	upgrader      websocket.Upgrader
}

// NewAutomationHandler creates the automation handler.
func NewAutomationHandler(poller *batch.Poller, extractor *batch.Extractor, notifier *batch.Notifier, subscriptions *batch.SubscriptionStore, convaiClient *convai.Client) *AutomationHandler {
	return &AutomationHandler{
		poller:        poller,
		extractor:     extractor,
		notifier:      notifier,
		subscriptions: subscriptions,
		convaiClient:  convaiClient,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetupAutomationRoutes registers automation routes.
func (h *AutomationHandler) SetupAutomationRoutes(router *mux.Router) {
	sub := router.PathPrefix("/automation").Subrouter()
	sub.HandleFunc("/webhooks/subscribe", h.handleSubscribe).Methods(http.MethodPost)
	sub.HandleFunc("/webhooks/subscriptions", h.handleListSubscriptions).Methods(http.MethodGet)
	sub.HandleFunc("/webhooks/subscriptions/{subscription_id}", h.handleDeleteSubscription).Methods(http.MethodDelete)
	sub.HandleFunc("/batch/{job_id}/wait-and-get-results", h.handleWaitAndGetResults).Methods(http.MethodGet)
	sub.HandleFunc("/batch/{job_id}/progress", h.handleProgress).Methods(http.MethodGet)
	sub.HandleFunc("/batch/{job_id}/report.pdf", h.handleReport).Methods(http.MethodGet)
	sub.HandleFunc("/process-batch", h.handleProcessBatch).Methods(http.MethodPost)
	sub.HandleFunc("/analyze-conversation", h.handleAnalyzeConversation).Methods(http.MethodPost)
	sub.HandleFunc("/extract-data", h.handleExtractData).Methods(http.MethodPost)
}

type subscribeRequest struct {
	WebhookURL string            `json:"webhook_url"`
	Events     []string          `json:"events"`
	Headers    map[string]string `json:"headers,omitempty"`
}

func (h *AutomationHandler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.WebhookURL == "" {
		writeError(w, http.StatusBadRequest, "webhook_url is required")
		return
	}
	if len(req.Events) == 0 {
		req.Events = []string{"batch.completed"}
	}

	sub := h.subscriptions.Add(req.WebhookURL, req.Events, req.Headers)
	writeJSON(w, http.StatusCreated, apiResponse{
		Success: true,
		Message: "webhook subscription created",
		Data:    map[string]interface{}{"subscription_id": sub.ID},
	})
}

func (h *AutomationHandler) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subscriptions": h.subscriptions.List(),
	})
}

func (h *AutomationHandler) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["subscription_id"]

	if !h.subscriptions.Remove(id) {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "subscription deleted"})
}

// waitOptionsFromQuery reads polling knobs from the query string, falling
// back to the 5s/300s defaults.
func waitOptionsFromQuery(r *http.Request) batch.WaitOptions {
	opts := batch.DefaultWaitOptions()
	query := r.URL.Query()

	if v := query.Get("include_transcript"); v != "" {
		opts.IncludeTranscript, _ = strconv.ParseBool(v)
	}
	if v := query.Get("extract_appointments"); v != "" {
		opts.ExtractAppointments, _ = strconv.ParseBool(v)
	}
	if v, err := strconv.Atoi(query.Get("max_wait_seconds")); err == nil && v > 0 {
		opts.MaxWait = time.Duration(v) * time.Second
	}
	if v, err := strconv.Atoi(query.Get("poll_interval")); err == nil && v > 0 {
		opts.PollInterval = time.Duration(v) * time.Second
	}
	return opts
}

// extendWriteDeadline pushes the connection's write deadline out past the
// server-wide WriteTimeout for handlers that legitimately outlive it.
func extendWriteDeadline(w http.ResponseWriter, d time.Duration) {
	if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(d)); err != nil {
		logger.Base().Warn("could not extend write deadline", zap.Error(err))
	}
}

func (h *AutomationHandler) handleWaitAndGetResults(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	// The long poll can legitimately hold the connection for the full wait
	// budget before anything is written.
	opts := waitOptionsFromQuery(r)
	extendWriteDeadline(w, opts.MaxWait+30*time.Second)

	results, err := h.poller.WaitForCompletion(r.Context(), jobID, opts)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type processBatchRequest struct {
	JobID             string            `json:"job_id"`
	WebhookURL        string            `json:"webhook_url"`
	IncludeTranscript bool              `json:"include_transcript"`
	Headers           map[string]string `json:"headers,omitempty"`
}

// handleProcessBatch answers immediately and ships the results to the
// caller's webhook in the background.
func (h *AutomationHandler) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req processBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.JobID == "" || req.WebhookURL == "" {
		writeError(w, http.StatusBadRequest, "job_id and webhook_url are required")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		h.notifier.SendResults(ctx, req.JobID, req.WebhookURL, req.IncludeTranscript, req.Headers)
	}()

	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "Processing batch job " + req.JobID + ". Results will be sent to webhook.",
		Data:    map[string]interface{}{"job_id": req.JobID, "webhook_url": req.WebhookURL},
	})
}

type analyzeConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

func (h *AutomationHandler) handleAnalyzeConversation(w http.ResponseWriter, r *http.Request) {
	var req analyzeConversationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}

	analysis, err := h.poller.AnalyzeConversation(r.Context(), req.ConversationID)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type extractDataRequest struct {
	ConversationID string `json:"conversation_id"`
	ExtractionType string `json:"extraction_type"`
}

func (h *AutomationHandler) handleExtractData(w http.ResponseWriter, r *http.Request) {
	var req extractDataRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}
	if req.ExtractionType == "" {
		req.ExtractionType = "appointment"
	}

	conv, err := h.convaiClient.GetConversation(r.Context(), req.ConversationID)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	extraction := h.extractor.Extract(r.Context(), req.ConversationID, req.ExtractionType, conv.Transcript)
	writeJSON(w, http.StatusOK, extraction)
}

// handleProgress streams job status snapshots over a WebSocket until the job
// reaches a terminal state or the client goes away.
func (h *AutomationHandler) handleProgress(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Base().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	opts := waitOptionsFromQuery(r)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()
	deadline := time.Now().Add(opts.MaxWait)

	for {
		job, err := h.convaiClient.GetBatchJob(r.Context(), jobID)
		if err != nil {
			conn.WriteJSON(map[string]interface{}{"error": err.Error()})
			return
		}

		snapshot := map[string]interface{}{
			"job_id":                 job.ID,
			"status":                 job.Status,
			"total_calls_scheduled":  job.TotalCallsScheduled,
			"total_calls_dispatched": job.TotalCallsDispatched,
			"total_calls_finished":   job.TotalCallsFinished,
			"timestamp":              time.Now().UTC().Format(time.RFC3339),
		}
		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}
		if job.Status.IsTerminal() {
			return
		}
		if time.Now().After(deadline) {
			conn.WriteJSON(map[string]interface{}{"job_id": jobID, "status": "timeout"})
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// handleReport renders the aggregated results of a completed job as a PDF.
func (h *AutomationHandler) handleReport(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	// Aggregation fetches one conversation per completed recipient, which can
	// outlast the server-wide write timeout on large campaigns.
	extendWriteDeadline(w, 5*time.Minute)

	job, err := h.convaiClient.GetBatchJob(r.Context(), jobID)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	opts := waitOptionsFromQuery(r)
	results, err := h.poller.Aggregate(r.Context(), job, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	results.Status = job.Status

	var buf bytes.Buffer
	if err := batch.RenderReport(&buf, results); err != nil {
		logger.Base().Error("report generation failed", zap.String("job_id", jobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not generate report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="batch_`+jobID+`.pdf"`)
	w.Write(buf.Bytes())
}
