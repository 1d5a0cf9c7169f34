package resolver

import (
	"fmt"

	"github.com/ClareAI/astra-campaign-service/internal/ecommerce"
	"github.com/ClareAI/astra-campaign-service/internal/session"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"go.uber.org/zap"
)

// Resolver correlates inbound webhook payloads with stored call context. Two
// precedence chains exist because email dispatch needs a resolvable address
// while ecommerce lookups only need credentials.
type Resolver struct {
	sessions *session.Store
	batches  *session.BatchStore
	stores   *ecommerce.Registry
}

// New creates a resolver over the given stores.
func New(sessions *session.Store, batches *session.BatchStore, stores *ecommerce.Registry) *Resolver {
	return &Resolver{sessions: sessions, batches: batches, stores: stores}
}

// Identity is the customer identity resolved for email dispatch.
type Identity struct {
	Name        string
	Email       string
	SenderEmail string // session- or job-level sender, empty when neither applies
	Source      string // which chain step produced the identity
}

// EmailResolution is the tagged outcome of the email-dispatch chain. Not-found
// is a failure with a reason, never an error.
type EmailResolution struct {
	Success  bool
	Identity Identity
	Reason   string
}

func emailFailure(format string, args ...interface{}) EmailResolution {
	return EmailResolution{Success: false, Reason: fmt.Sprintf(format, args...)}
}

// EcommerceResolution is the tagged outcome of the ecommerce chain.
type EcommerceResolution struct {
	Success    bool
	Client     *ecommerce.Client
	SessionKey string
	Reason     string
}

// ResolveEcommerce finds (or lazily materializes) the ecommerce client for a
// webhook payload. Precedence: existing client by conversation id, then
// campaign credentials by agent id.
func (r *Resolver) ResolveEcommerce(payload map[string]interface{}) EcommerceResolution {
	conversationID := ExtractConversationID(payload)
	if conversationID != "" {
		if client, ok := r.stores.Get(conversationID); ok {
			return EcommerceResolution{Success: true, Client: client, SessionKey: conversationID}
		}
	}

	agentID := ExtractAgentID(payload)
	if agentID != "" {
		if creds, ok := r.batches.GetEcommerceCredentials(agentID); ok {
			key := conversationID
			if key == "" {
				key = "batch_" + agentID
			}
			client := r.stores.Connect(key, *creds)
			logger.Base().Info("materialized ecommerce client from batch credentials",
				zap.String("agent_id", agentID), zap.String("session_key", key))
			return EcommerceResolution{Success: true, Client: client, SessionKey: key}
		}
	}

	return EcommerceResolution{
		Success: false,
		Reason:  "No ecommerce platform connected for this session. Connect a store or include credentials when launching the campaign.",
	}
}

// ResolveEmailIdentity walks the email-dispatch chain: session context, batch
// recipient by phone, batch job by agent, then the raw payload itself. The
// resolved email passes through dynamic-variable indirection before use.
func (r *Resolver) ResolveEmailIdentity(payload map[string]interface{}) EmailResolution {
	conversationID := ExtractConversationID(payload)

	if conversationID != "" {
		if ctx, ok := r.sessions.Get(conversationID); ok {
			if res := r.identityFromSession(ctx); res.Success || res.Reason != "" {
				return res
			}
		}
	}

	if phone := ExtractPhoneNumber(payload); phone != "" {
		if entry, ok := r.batches.GetRecipientByPhone(phone); ok && entry.Email != "" {
			sender, _ := r.batches.GetSenderEmail(entry.AgentID)
			return r.finishIdentity(Identity{
				Name:        entry.Name,
				Email:       entry.Email,
				SenderEmail: sender,
				Source:      "batch_recipient",
			}, dynamicVariablesOf(payload))
		}
	}

	var jobSender string
	if agentID := ExtractAgentID(payload); agentID != "" {
		jobSender, _ = r.batches.GetSenderEmail(agentID)
	}

	if email := ExtractEmail(payload); email != "" {
		name := ExtractName(payload)
		if name == "" {
			name = "Customer"
		}
		return r.finishIdentity(Identity{
			Name:        name,
			Email:       email,
			SenderEmail: jobSender,
			Source:      "payload",
		}, dynamicVariablesOf(payload))
	}

	return emailFailure("could not resolve a customer email: no session, batch recipient, or payload field matched")
}

// identityFromSession builds an identity from stored session fields. Returns
// a zero resolution when the session carries no email at all, letting the
// chain continue to later steps.
func (r *Resolver) identityFromSession(ctx session.Context) EmailResolution {
	fields := ctx.Fields
	name, _ := fields["name"].(string)
	if name == "" {
		name, _ = fields["customer_name"].(string)
	}
	email, _ := fields["email"].(string)
	if email == "" {
		email, _ = fields["customer_email"].(string)
	}
	if email == "" {
		return EmailResolution{}
	}

	sender, _ := fields["sender_email"].(string)
	return r.finishIdentity(Identity{
		Name:        name,
		Email:       email,
		SenderEmail: sender,
		Source:      "session",
	}, dynamicVariablesOf(fields))
}

// finishIdentity applies dynamic-variable indirection to the email and the
// "Customer" name fallback, producing the final tagged result.
func (r *Resolver) finishIdentity(identity Identity, dynamicVariables map[string]interface{}) EmailResolution {
	resolved, err := resolveDynamicEmail(identity.Email, dynamicVariables)
	if err != nil {
		return emailFailure("%v", err)
	}
	identity.Email = resolved
	if identity.Name == "" {
		identity.Name = "Customer"
	}
	return EmailResolution{Success: true, Identity: identity}
}

// SenderEmail applies the sender precedence chain: identity-level sender
// (session or job), then the template default, then the global fallback.
func SenderEmail(identity Identity, templateDefault, globalDefault string) string {
	if identity.SenderEmail != "" {
		return identity.SenderEmail
	}
	if templateDefault != "" {
		return templateDefault
	}
	return globalDefault
}
