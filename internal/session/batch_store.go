package session

import (
	"sync"
	"time"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"go.uber.org/zap"
)

// JobContext is the campaign-wide shared context stored at batch submission
// time. Immutable after creation.
type JobContext struct {
	JobID       string                       `json:"job_id"`
	AgentID     string                       `json:"agent_id"`
	Ecommerce   *domain.EcommerceCredentials `json:"ecommerce_credentials,omitempty"`
	SenderEmail string                       `json:"sender_email,omitempty"`
	CreatedAt   time.Time                    `json:"created_at"`
}

// RecipientEntry is one campaign recipient's identity, keyed by phone number.
// A phone number maps to at most one entry: submitting a new batch with an
// overlapping number overwrites the prior entry (last campaign wins).
type RecipientEntry struct {
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	JobID       string `json:"job_id"`
	AgentID     string `json:"agent_id"`
}

// RecipientInfo is the per-recipient identity supplied at submission time.
type RecipientInfo struct {
	PhoneNumber string
	Name        string
	Email       string
}

// BatchStore maps batch jobs to their campaign context and recipients, and
// keeps a single-slot reverse index from agent id to that agent's most recent
// job. Webhook callbacks often carry only an agent id, so the reverse index
// is what makes them resolvable; an agent running two concurrent campaigns
// only ever resolves to the later one.
type BatchStore struct {
	mu         sync.RWMutex
	jobs       map[string]JobContext     // job_id -> context
	recipients map[string]RecipientEntry // phone -> entry
	agentIndex map[string]string         // agent_id -> most recent job_id
}

// NewBatchStore creates an empty batch job context store.
func NewBatchStore() *BatchStore {
	return &BatchStore{
		jobs:       make(map[string]JobContext),
		recipients: make(map[string]RecipientEntry),
		agentIndex: make(map[string]string),
	}
}

// StoreJob upserts a job's campaign context, registers its recipients and
// unconditionally points the agent reverse index at this job. Recipient
// entries for overlapping phone numbers are overwritten regardless of their
// originating job.
func (s *BatchStore) StoreJob(jobID, agentID string, creds *domain.EcommerceCredentials, senderEmail string, recipients []RecipientInfo) {
	var credsCopy *domain.EcommerceCredentials
	if creds != nil {
		c := *creds
		credsCopy = &c
	}

	s.mu.Lock()
	s.jobs[jobID] = JobContext{
		JobID:       jobID,
		AgentID:     agentID,
		Ecommerce:   credsCopy,
		SenderEmail: senderEmail,
		CreatedAt:   time.Now().UTC(),
	}
	s.agentIndex[agentID] = jobID
	for _, r := range recipients {
		if r.PhoneNumber == "" {
			continue
		}
		s.recipients[r.PhoneNumber] = RecipientEntry{
			PhoneNumber: r.PhoneNumber,
			Name:        r.Name,
			Email:       r.Email,
			JobID:       jobID,
			AgentID:     agentID,
		}
	}
	s.mu.Unlock()

	logger.Base().Info("stored batch job context",
		zap.String("job_id", jobID),
		zap.String("agent_id", agentID),
		zap.Int("recipients", len(recipients)),
		zap.Bool("has_ecommerce", credsCopy != nil))
}

// GetJob returns a job's context by job id.
func (s *BatchStore) GetJob(jobID string) (JobContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctx, ok := s.jobs[jobID]
	return copyJobContext(ctx), ok
}

// GetJobByAgent resolves the agent's most recent job through the reverse
// index only. Older jobs for the same agent are not reachable this way.
func (s *BatchStore) GetJobByAgent(agentID string) (JobContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobID, ok := s.agentIndex[agentID]
	if !ok {
		return JobContext{}, false
	}
	ctx, ok := s.jobs[jobID]
	return copyJobContext(ctx), ok
}

// GetRecipientByPhone returns the recipient entry registered for a phone
// number, if any.
func (s *BatchStore) GetRecipientByPhone(phone string) (RecipientEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.recipients[phone]
	return entry, ok
}

// GetEcommerceCredentials returns the ecommerce credentials stored for an
// agent's most recent job.
func (s *BatchStore) GetEcommerceCredentials(agentID string) (*domain.EcommerceCredentials, bool) {
	ctx, ok := s.GetJobByAgent(agentID)
	if !ok || ctx.Ecommerce == nil {
		return nil, false
	}
	return ctx.Ecommerce, true
}

// GetSenderEmail returns the default sender email stored for an agent's most
// recent job.
func (s *BatchStore) GetSenderEmail(agentID string) (string, bool) {
	ctx, ok := s.GetJobByAgent(agentID)
	if !ok || ctx.SenderEmail == "" {
		return "", false
	}
	return ctx.SenderEmail, true
}

// RemoveJob deletes a job's context, clears the agent reverse index when it
// still points at this job, and removes exactly the recipient entries owned
// by this job. Entries overwritten by a later campaign are left untouched.
func (s *BatchStore) RemoveJob(jobID string) {
	s.mu.Lock()
	ctx, existed := s.jobs[jobID]
	if existed {
		delete(s.jobs, jobID)
		if current, ok := s.agentIndex[ctx.AgentID]; ok && current == jobID {
			delete(s.agentIndex, ctx.AgentID)
		}
	}
	removed := 0
	for phone, entry := range s.recipients {
		if entry.JobID == jobID {
			delete(s.recipients, phone)
			removed++
		}
	}
	s.mu.Unlock()

	if existed || removed > 0 {
		logger.Base().Info("removed batch job context",
			zap.String("job_id", jobID),
			zap.Int("recipients_removed", removed))
	}
}

// ListJobs returns a snapshot of all stored job contexts. Diagnostic use.
func (s *BatchStore) ListJobs() []JobContext {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobContext, 0, len(s.jobs))
	for _, ctx := range s.jobs {
		out = append(out, copyJobContext(ctx))
	}
	return out
}

func copyJobContext(ctx JobContext) JobContext {
	if ctx.Ecommerce != nil {
		c := *ctx.Ecommerce
		ctx.Ecommerce = &c
	}
	return ctx
}
