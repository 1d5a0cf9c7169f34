package convai

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	batchCallingSubmitEndpoint = "/v1/convai/batch-calling/submit"
	batchCallingEndpoint       = "/v1/convai/batch-calling"
)

// SubmitBatchJobRequest is the payload for scheduling a batch campaign.
type SubmitBatchJobRequest struct {
	CallName          string                  `json:"call_name"`
	AgentID           string                  `json:"agent_id"`
	Recipients        []domain.BatchRecipient `json:"recipients"`
	PhoneNumberID     string                  `json:"phone_number_id,omitempty"`
	ScheduledTimeUnix int64                   `json:"scheduled_time_unix,omitempty"`
	Timezone          string                  `json:"timezone,omitempty"`
	RetryCount        int                     `json:"retry_count,omitempty"`
}

// SubmitBatchJob schedules calls for multiple recipients.
func (c *Client) SubmitBatchJob(ctx context.Context, req SubmitBatchJobRequest) (*domain.BatchJob, error) {
	if req.PhoneNumberID == "" {
		// The gateway rejects submissions without a caller id; surface it in
		// the logs the same way the submission error will.
		logger.Base().Error("phone_number_id is required for batch submission",
			zap.String("call_name", req.CallName))
	}

	var job domain.BatchJob
	if err := c.post(ctx, batchCallingSubmitEndpoint, req, &job); err != nil {
		return nil, err
	}

	logger.Base().Info("batch job submitted",
		zap.String("job_id", job.ID),
		zap.String("status", string(job.Status)),
		zap.Int("recipients", len(req.Recipients)))
	return &job, nil
}

// GetBatchJob returns the current descriptor of a batch job, including its
// per-recipient progress.
func (c *Client) GetBatchJob(ctx context.Context, jobID string) (*domain.BatchJob, error) {
	var job domain.BatchJob
	if err := c.get(ctx, batchCallingEndpoint+"/"+jobID, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListBatchJobs lists batch jobs with optional status filter and pagination.
func (c *Client) ListBatchJobs(ctx context.Context, status, cursor string, pageSize int) (*domain.BatchJobList, error) {
	query := url.Values{}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}
	if status != "" {
		query.Set("status", status)
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var list domain.BatchJobList
	if err := c.get(ctx, batchCallingEndpoint, query, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CancelBatchJob cancels pending calls of a job. Calls already in progress
// run to completion.
func (c *Client) CancelBatchJob(ctx context.Context, jobID string) error {
	if err := c.post(ctx, batchCallingEndpoint+"/"+jobID+"/cancel", nil, nil); err != nil {
		return err
	}
	logger.Base().Info("batch job cancelled", zap.String("job_id", jobID))
	return nil
}

// BatchJobCalls is the individual call listing of a batch job.
type BatchJobCalls struct {
	Calls  []map[string]interface{} `json:"calls"`
	Cursor string                   `json:"cursor,omitempty"`
}

// GetBatchJobCalls returns the individual call results of a batch job.
func (c *Client) GetBatchJobCalls(ctx context.Context, jobID, status, cursor string, pageSize int) (*BatchJobCalls, error) {
	query := url.Values{}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}
	if status != "" {
		query.Set("status", status)
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var calls BatchJobCalls
	if err := c.get(ctx, batchCallingEndpoint+"/"+jobID+"/calls", query, &calls); err != nil {
		return nil, err
	}
	return &calls, nil
}
