package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subscription is a registered webhook destination for batch events.
type Subscription struct {
	ID         string            `json:"id"`
	WebhookURL string            `json:"webhook_url"`
	Events     []string          `json:"events"`
	Headers    map[string]string `json:"headers"`
	Active     bool              `json:"active"`
}

// SubscriptionStore keeps webhook subscriptions in memory.
type SubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]Subscription
}

// NewSubscriptionStore creates an empty subscription store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{subs: make(map[string]Subscription)}
}

// Add registers a webhook destination and returns its subscription id.
func (s *SubscriptionStore) Add(webhookURL string, events []string, headers map[string]string) Subscription {
	sub := Subscription{
		ID:         "sub_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		WebhookURL: webhookURL,
		Events:     events,
		Headers:    headers,
		Active:     true,
	}
	if sub.Headers == nil {
		sub.Headers = map[string]string{}
	}

	s.mu.Lock()
	s.subs[sub.ID] = sub
	s.mu.Unlock()

	logger.Base().Info("webhook subscription created", zap.String("subscription_id", sub.ID))
	return sub
}

// List returns all subscriptions.
func (s *SubscriptionStore) List() []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out
}

// Remove deletes a subscription, reporting whether it existed.
func (s *SubscriptionStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[id]; !ok {
		return false
	}
	delete(s.subs, id)
	return true
}

// ForEvent returns the active subscriptions listening for an event.
func (s *SubscriptionStore) ForEvent(event string) []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Subscription
	for _, sub := range s.subs {
		if !sub.Active {
			continue
		}
		for _, e := range sub.Events {
			if e == event {
				out = append(out, sub)
				break
			}
		}
	}
	return out
}

// Notifier ships aggregated batch results to external webhook URLs.
type Notifier struct {
	poller     *Poller
	httpClient *http.Client
}

// NewNotifier creates a notifier over the given poller.
func NewNotifier(poller *Poller) *Notifier {
	return &Notifier{
		poller:     poller,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SendResults fetches a job's current results and POSTs them to webhookURL.
// Meant to run as a background task; failures are logged, not returned.
func (n *Notifier) SendResults(ctx context.Context, jobID, webhookURL string, includeTranscript bool, headers map[string]string) {
	job, err := n.poller.gateway.GetBatchJob(ctx, jobID)
	if err != nil {
		logger.Base().Error("could not fetch batch job for webhook dispatch",
			zap.String("job_id", jobID), zap.Error(err))
		return
	}

	results, err := n.poller.Aggregate(ctx, job, WaitOptions{IncludeTranscript: includeTranscript})
	if err != nil {
		logger.Base().Error("could not aggregate batch results for webhook dispatch",
			zap.String("job_id", jobID), zap.Error(err))
		return
	}

	payload := map[string]interface{}{
		"event":            "batch.completed",
		"job_id":           jobID,
		"job_name":         job.Name,
		"status":           job.Status,
		"total_recipients": results.TotalRecipients,
		"completed":        results.CompletedCalls,
		"failed":           results.FailedCalls,
		"results":          results.Records,
	}
	n.post(ctx, webhookURL, payload, headers)
}

// Broadcast sends an event payload to every active subscription for that
// event.
func (n *Notifier) Broadcast(ctx context.Context, store *SubscriptionStore, event string, payload map[string]interface{}) {
	for _, sub := range store.ForEvent(event) {
		n.post(ctx, sub.WebhookURL, payload, sub.Headers)
	}
}

func (n *Notifier) post(ctx context.Context, webhookURL string, payload map[string]interface{}, headers map[string]string) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Base().Error("could not encode webhook payload", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		logger.Base().Error("could not build webhook request", zap.String("url", webhookURL), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		logger.Base().Error("webhook dispatch failed", zap.String("url", webhookURL), zap.Error(err))
		return
	}
	resp.Body.Close()

	logger.Base().Info("webhook sent",
		zap.String("url", webhookURL), zap.Int("status_code", resp.StatusCode))
}

// statusLabel renders a job status for human-facing output.
func statusLabel(status domain.JobStatus) string {
	return strings.ToUpper(strings.ReplaceAll(string(status), "_", " "))
}
