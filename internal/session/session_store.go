// Package session holds the in-memory call-context stores: per-conversation
// customer identity and per-campaign batch context. All state is
// process-local and lost on restart.
package session

import (
	"sync"
	"time"

	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

// Context is the identity data captured for one conversation at
// call-initiation time. Fields carries at least name/email plus any extra
// identity keys the caller supplied (sender_email, dynamic_variables, ...).
type Context struct {
	ConversationID string                 `json:"conversation_id"`
	Fields         map[string]interface{} `json:"fields"`
	StoredAt       time.Time              `json:"stored_at"`
}

// Store maps a conversation id to customer identity data. Thread-safe;
// entries are replaced wholesale, never mutated in place.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Context
}

// NewStore creates an empty session context store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]Context)}
}

// Put upserts identity data for a conversation. Last write wins; no
// validation is applied to the supplied fields.
func (s *Store) Put(conversationID string, fields map[string]interface{}) {
	copied := copyFields(fields)

	s.mu.Lock()
	s.sessions[conversationID] = Context{
		ConversationID: conversationID,
		Fields:         copied,
		StoredAt:       time.Now().UTC(),
	}
	s.mu.Unlock()

	logger.Base().Info("stored customer session", zap.String("conversation_id", conversationID))
}

// Get returns the identity data for a conversation. The second return value
// reports presence; absence is not an error.
func (s *Store) Get(conversationID string) (Context, bool) {
	s.mu.RLock()
	ctx, ok := s.sessions[conversationID]
	s.mu.RUnlock()
	if !ok {
		return Context{}, false
	}
	ctx.Fields = copyFields(ctx.Fields)
	return ctx, true
}

// Remove deletes a conversation's session if present.
func (s *Store) Remove(conversationID string) {
	s.mu.Lock()
	_, existed := s.sessions[conversationID]
	delete(s.sessions, conversationID)
	s.mu.Unlock()

	if existed {
		logger.Base().Info("removed customer session", zap.String("conversation_id", conversationID))
	}
}

// List returns a snapshot of all sessions, keyed by conversation id.
// Diagnostic use only.
func (s *Store) List() map[string]Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Context, len(s.sessions))
	for id, ctx := range s.sessions {
		ctx.Fields = copyFields(ctx.Fields)
		out[id] = ctx
	}
	return out
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// copyFields deep-copies a field map so callers cannot mutate stored state.
func copyFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(fields))
	if err := copier.CopyWithOption(&out, fields, copier.Option{DeepCopy: true}); err != nil {
		logger.Base().Warn("failed to deep-copy session fields", zap.Error(err))
		for k, v := range fields {
			out[k] = v
		}
	}
	return out
}
