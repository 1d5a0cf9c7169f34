package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/internal/services/batch"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stuckGateway reports a job that never leaves in_progress.
type stuckGateway struct{}

func (stuckGateway) GetBatchJob(ctx context.Context, jobID string) (*domain.BatchJob, error) {
	return &domain.BatchJob{ID: jobID, Name: "Stuck", Status: domain.JobStatusRunning}, nil
}

func (stuckGateway) GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	return nil, errors.New("not needed")
}

// The long poll must survive a server WriteTimeout shorter than the wait
// budget: nothing is written until the budget elapses, so the handler extends
// its own write deadline per request.
func TestWaitAndGetResultsOutlivesServerWriteTimeout(t *testing.T) {
	poller := batch.NewPoller(stuckGateway{}, nil)
	handler := NewAutomationHandler(poller, nil, nil, batch.NewSubscriptionStore(), nil)

	router := mux.NewRouter()
	handler.SetupAutomationRoutes(router)

	srv := httptest.NewUnstartedServer(router)
	srv.Config.WriteTimeout = 500 * time.Millisecond
	srv.Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/automation/batch/job_1/wait-and-get-results?max_wait_seconds=2&poll_interval=1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var results batch.Results
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	assert.Equal(t, domain.JobStatusTimeout, results.Status)
	assert.Contains(t, results.Error, "did not complete")
	assert.Empty(t, results.Records)
}

func TestWaitOptionsFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/automation/batch/job_1/wait-and-get-results?include_transcript=false&extract_appointments=false&max_wait_seconds=60&poll_interval=2", nil)

	opts := waitOptionsFromQuery(req)
	assert.False(t, opts.IncludeTranscript)
	assert.False(t, opts.ExtractAppointments)
	assert.Equal(t, 60*time.Second, opts.MaxWait)
	assert.Equal(t, 2*time.Second, opts.PollInterval)

	// Defaults when nothing is supplied.
	opts = waitOptionsFromQuery(httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.True(t, opts.IncludeTranscript)
	assert.True(t, opts.ExtractAppointments)
	assert.Equal(t, 300*time.Second, opts.MaxWait)
	assert.Equal(t, 5*time.Second, opts.PollInterval)
}
