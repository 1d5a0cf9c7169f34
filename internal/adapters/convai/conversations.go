package convai

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
)

const conversationsEndpoint = "/v1/convai/conversations"

// GetConversation returns a conversation's full record, transcript included.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := c.get(ctx, conversationsEndpoint+"/"+conversationID, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations lists conversations, optionally filtered by agent.
func (c *Client) ListConversations(ctx context.Context, agentID, cursor string, pageSize int) (*domain.ConversationList, error) {
	query := url.Values{}
	if agentID != "" {
		query.Set("agent_id", agentID)
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}

	var list domain.ConversationList
	if err := c.get(ctx, conversationsEndpoint, query, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteConversation removes a conversation record from the gateway.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.delete(ctx, conversationsEndpoint+"/"+conversationID)
}
