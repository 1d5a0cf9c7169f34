// Package batch waits on batch calling jobs and turns finished jobs into
// aggregated, per-recipient result records.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"go.uber.org/zap"
)

// Gateway is the slice of the ConvAI client the poller needs. Narrowed for
// testability.
type Gateway interface {
	GetBatchJob(ctx context.Context, jobID string) (*domain.BatchJob, error)
	GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error)
}

// WaitOptions controls polling cadence and aggregation detail.
type WaitOptions struct {
	IncludeTranscript   bool
	ExtractAppointments bool
	MaxWait             time.Duration
	PollInterval        time.Duration
}

// DefaultWaitOptions returns the standard 5s/300s polling configuration with
// transcripts and extraction enabled.
func DefaultWaitOptions() WaitOptions {
	return WaitOptions{
		IncludeTranscript:   true,
		ExtractAppointments: true,
		MaxWait:             300 * time.Second,
		PollInterval:        5 * time.Second,
	}
}

func (o WaitOptions) normalized() WaitOptions {
	if o.MaxWait <= 0 {
		o.MaxWait = 300 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	return o
}

// TranscriptMessage is one turn of a recipient's call transcript, flattened
// for result payloads.
type TranscriptMessage struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// RecipientResult is the aggregated outcome for a single call target.
type RecipientResult struct {
	RecipientID      string                 `json:"recipient_id"`
	PhoneNumber      string                 `json:"phone_number"`
	Status           string                 `json:"status"`
	ConversationID   string                 `json:"conversation_id,omitempty"`
	DynamicVariables map[string]interface{} `json:"dynamic_variables"`
	Transcript       []TranscriptMessage    `json:"transcript,omitempty"`
	DurationSeconds  int                    `json:"duration_seconds,omitempty"`
	ExtractedData    map[string]interface{} `json:"extracted_data,omitempty"`
}

// Results is the full outcome of waiting on a batch job.
type Results struct {
	JobID           string            `json:"job_id"`
	JobName         string            `json:"job_name,omitempty"`
	Status          domain.JobStatus  `json:"status"`
	Error           string            `json:"error,omitempty"`
	ElapsedSeconds  int               `json:"elapsed_seconds,omitempty"`
	TotalRecipients int               `json:"total_recipients"`
	CompletedCalls  int               `json:"completed_calls"`
	FailedCalls     int               `json:"failed_calls"`
	Records         []RecipientResult `json:"results"`
}

// Poller drives a batch job to a terminal state and aggregates its results.
type Poller struct {
	gateway   Gateway
	extractor *Extractor
}

// NewPoller creates a poller. The extractor may be nil when appointment
// extraction is never requested.
func NewPoller(gateway Gateway, extractor *Extractor) *Poller {
	return &Poller{gateway: gateway, extractor: extractor}
}

// WaitForCompletion polls a job until it reaches a terminal state or the wait
// budget elapses. Completed jobs proceed to aggregation; failed and cancelled
// jobs short-circuit with an empty result set; exhausting the budget yields a
// synthetic timeout status. Only transport failures return an error.
func (p *Poller) WaitForCompletion(ctx context.Context, jobID string, opts WaitOptions) (*Results, error) {
	opts = opts.normalized()
	start := time.Now()
	deadline := start.Add(opts.MaxWait)

	for {
		job, err := p.gateway.GetBatchJob(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("polling batch job %s: %w", jobID, err)
		}

		switch {
		case job.Status == domain.JobStatusCompleted:
			return p.Aggregate(ctx, job, opts)
		case job.Status.IsTerminal():
			logger.Base().Warn("batch job ended without completing",
				zap.String("job_id", jobID), zap.String("status", string(job.Status)))
			return &Results{
				JobID:   jobID,
				JobName: job.Name,
				Status:  job.Status,
				Error:   fmt.Sprintf("batch job %s", job.Status),
				Records: []RecipientResult{},
			}, nil
		}

		if time.Now().Add(opts.PollInterval).After(deadline) {
			elapsed := int(time.Since(start).Seconds())
			return &Results{
				JobID:          jobID,
				JobName:        job.Name,
				Status:         domain.JobStatusTimeout,
				Error:          fmt.Sprintf("batch job did not complete within %d seconds", int(opts.MaxWait.Seconds())),
				ElapsedSeconds: elapsed,
				Records:        []RecipientResult{},
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}
}

// Aggregate builds the per-recipient result set for a completed job. One
// recipient's transcript-fetch failure never aborts the rest; the record is
// kept with whatever was known at submission time.
func (p *Poller) Aggregate(ctx context.Context, job *domain.BatchJob, opts WaitOptions) (*Results, error) {
	records := make([]RecipientResult, 0, len(job.Recipients))
	completed := 0

	for i := range job.Recipients {
		recipient := &job.Recipients[i]
		record := RecipientResult{
			RecipientID:      recipient.ID,
			PhoneNumber:      recipient.PhoneNumber,
			Status:           recipient.Status,
			ConversationID:   recipient.ConversationID,
			DynamicVariables: recipient.DynamicVariables(),
		}
		if record.DynamicVariables == nil {
			record.DynamicVariables = map[string]interface{}{}
		}

		if recipient.Status == "completed" {
			completed++
			p.enrichRecord(ctx, &record, opts)
		}
		records = append(records, record)
	}

	return &Results{
		JobID:           job.ID,
		JobName:         job.Name,
		Status:          domain.JobStatusCompleted,
		TotalRecipients: len(job.Recipients),
		CompletedCalls:  completed,
		FailedCalls:     len(job.Recipients) - completed,
		Records:         records,
	}, nil
}

// enrichRecord fetches the recipient's conversation and fills transcript,
// duration and extracted data. Failures are logged and tolerated.
func (p *Poller) enrichRecord(ctx context.Context, record *RecipientResult, opts WaitOptions) {
	if record.ConversationID == "" {
		return
	}

	conv, err := p.gateway.GetConversation(ctx, record.ConversationID)
	if err != nil {
		logger.Base().Warn("could not fetch conversation for batch result",
			zap.String("conversation_id", record.ConversationID), zap.Error(err))
		return
	}

	if opts.IncludeTranscript {
		messages := make([]TranscriptMessage, 0, len(conv.Transcript))
		for _, turn := range conv.Transcript {
			messages = append(messages, TranscriptMessage{Role: turn.Role, Message: turn.Text()})
		}
		record.Transcript = messages
	}
	record.DurationSeconds = conv.Metadata.CallDurationSecs

	if opts.ExtractAppointments && p.extractor != nil {
		extraction := p.extractor.ExtractWithRules(record.ConversationID, conv.Transcript)
		record.ExtractedData = extraction.ExtractedData
	}
}
