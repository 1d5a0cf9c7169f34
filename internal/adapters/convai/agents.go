package convai

import (
	"context"
	"net/url"
	"strconv"
)

const (
	createAgentEndpoint = "/v1/convai/agents/create"
	agentsEndpoint      = "/v1/convai/agents"
)

// Agent CRUD is a thin pass-through: the gateway's agent configuration is a
// large evolving document, so payloads are shaped by the caller and forwarded
// as-is.

// CreateAgent creates a conversational agent from the given configuration.
func (c *Client) CreateAgent(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.post(ctx, createAgentEndpoint, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAgent returns an agent's configuration.
func (c *Client) GetAgent(ctx context.Context, agentID string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.get(ctx, agentsEndpoint+"/"+agentID, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAgents lists agents with pagination.
func (c *Client) ListAgents(ctx context.Context, cursor string, pageSize int) (map[string]interface{}, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}

	var result map[string]interface{}
	if err := c.get(ctx, agentsEndpoint, query, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateAgent patches an agent's configuration.
func (c *Client) UpdateAgent(ctx context.Context, agentID string, payload map[string]interface{}) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.patch(ctx, agentsEndpoint+"/"+agentID, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteAgent deletes an agent.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	return c.delete(ctx, agentsEndpoint+"/"+agentID)
}
