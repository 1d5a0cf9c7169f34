package ecommerce

import (
	"context"
	"sync"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"go.uber.org/zap"
)

// noPlatformError is spoken back to the caller by the agent, so it stays a
// plain instructive sentence.
const noPlatformError = "No ecommerce platform connected. Please provide store credentials when starting the call."

// Registry maps a session key (conversation id, or batch_<agent_id> when no
// conversation is known yet) to an authenticated store client. One active
// client per key; Connect replaces any prior client.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty ecommerce session registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Connect creates and registers a client for a session.
func (r *Registry) Connect(sessionID string, creds domain.EcommerceCredentials) *Client {
	client := NewClient(creds)

	r.mu.Lock()
	r.clients[sessionID] = client
	r.mu.Unlock()

	logger.Base().Info("ecommerce client connected",
		zap.String("session_id", sessionID),
		zap.String("platform", client.Platform))
	return client
}

// Get returns the client registered for a session, if any.
func (r *Registry) Get(sessionID string) (*Client, bool) {
	r.mu.RLock()
	client, ok := r.clients[sessionID]
	r.mu.RUnlock()
	return client, ok
}

// Disconnect removes the client registered for a session.
func (r *Registry) Disconnect(sessionID string) {
	r.mu.Lock()
	_, existed := r.clients[sessionID]
	delete(r.clients, sessionID)
	r.mu.Unlock()

	if existed {
		logger.Base().Info("ecommerce client disconnected", zap.String("session_id", sessionID))
	}
}

// SessionKeys returns the active session keys. Diagnostic use.
func (r *Registry) SessionKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.clients))
	for k := range r.clients {
		keys = append(keys, k)
	}
	return keys
}

// GetProducts fetches products for a session, or a structured failure when
// no client is connected.
func (r *Registry) GetProducts(ctx context.Context, sessionID string, limit int) Result {
	client, ok := r.Get(sessionID)
	if !ok {
		return failure(noPlatformError)
	}
	return client.GetProducts(ctx, limit)
}

// GetOrders fetches orders for a session, or a structured failure when no
// client is connected.
func (r *Registry) GetOrders(ctx context.Context, sessionID string, limit int) Result {
	client, ok := r.Get(sessionID)
	if !ok {
		return failure(noPlatformError)
	}
	return client.GetOrders(ctx, limit)
}
