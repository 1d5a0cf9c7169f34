package batch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionStoreLifecycle(t *testing.T) {
	store := NewSubscriptionStore()

	sub := store.Add("https://hooks.example.com/a", []string{"batch.completed"}, nil)
	assert.True(t, strings.HasPrefix(sub.ID, "sub_"))
	assert.Len(t, sub.ID, len("sub_")+16)
	assert.True(t, sub.Active)
	assert.NotNil(t, sub.Headers)

	store.Add("https://hooks.example.com/b", []string{"batch.failed"}, map[string]string{"X-Token": "t"})
	assert.Len(t, store.List(), 2)

	matched := store.ForEvent("batch.completed")
	require.Len(t, matched, 1)
	assert.Equal(t, sub.ID, matched[0].ID)

	assert.True(t, store.Remove(sub.ID))
	assert.False(t, store.Remove(sub.ID))
	assert.Empty(t, store.ForEvent("batch.completed"))
}

func TestNotifierSendResults(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Webhook-Token"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
	}))
	defer srv.Close()

	gateway := &fakeGateway{
		job: domain.BatchJob{
			Name: "Webhook campaign",
			Recipients: []domain.BatchRecipient{
				{ID: "rec_1", PhoneNumber: "+100", Status: "completed"},
				{ID: "rec_2", PhoneNumber: "+200", Status: "failed"},
			},
		},
		statuses: []domain.JobStatus{domain.JobStatusCompleted},
	}

	notifier := NewNotifier(NewPoller(gateway, nil))
	notifier.SendResults(context.Background(), "job_1", srv.URL, false, map[string]string{"X-Webhook-Token": "secret"})

	payload := <-received
	assert.Equal(t, "batch.completed", payload["event"])
	assert.Equal(t, "job_1", payload["job_id"])
	assert.Equal(t, "Webhook campaign", payload["job_name"])
	assert.Equal(t, float64(2), payload["total_recipients"])
	assert.Equal(t, float64(1), payload["completed"])
	assert.Equal(t, float64(1), payload["failed"])
	results, ok := payload["results"].([]interface{})
	require.True(t, ok)
	assert.Len(t, results, 2)
}

func TestNotifierBroadcastFiltersByEvent(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	store := NewSubscriptionStore()
	store.Add(srv.URL, []string{"batch.completed"}, nil)
	store.Add(srv.URL, []string{"batch.failed"}, nil)

	notifier := NewNotifier(NewPoller(&fakeGateway{}, nil))
	notifier.Broadcast(context.Background(), store, "batch.completed", map[string]interface{}{"event": "batch.completed"})

	assert.Equal(t, 1, hits)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "IN PROGRESS", statusLabel(domain.JobStatusRunning))
	assert.Equal(t, "COMPLETED", statusLabel(domain.JobStatusCompleted))
}
