package convai

import (
	"context"

	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"go.uber.org/zap"
)

const toolsEndpoint = "/v1/convai/tools"

// ToolParameter describes one parameter of a webhook tool. The gateway
// accepts exactly one of Description, DynamicVariable or ConstantValue per
// parameter; a dynamic variable binds the parameter to a platform-provided
// value (e.g. system__conversation_id) instead of letting the agent fill it.
type ToolParameter struct {
	Name            string
	Type            string
	Description     string
	Required        bool
	DynamicVariable string
	ConstantValue   string
}

// CreateWebhookTool registers a webhook tool the agent can invoke mid-call.
// Returns the gateway-assigned tool id.
func (c *Client) CreateWebhookTool(ctx context.Context, name, description, webhookURL, httpMethod string, parameters []ToolParameter) (string, error) {
	if httpMethod == "" {
		httpMethod = "POST"
	}

	properties := map[string]interface{}{}
	required := []string{}
	for _, param := range parameters {
		paramType := param.Type
		if paramType == "" {
			paramType = "string"
		}
		prop := map[string]interface{}{"type": paramType}
		switch {
		case param.DynamicVariable != "":
			prop["dynamic_variable"] = param.DynamicVariable
		case param.ConstantValue != "":
			prop["constant_value"] = param.ConstantValue
		default:
			prop["description"] = param.Description
		}
		properties[param.Name] = prop
		if param.Required {
			required = append(required, param.Name)
		}
	}

	payload := map[string]interface{}{
		"tool_config": map[string]interface{}{
			"type":        "webhook",
			"name":        name,
			"description": description,
			"api_schema": map[string]interface{}{
				"url":    webhookURL,
				"method": httpMethod,
				"request_body_schema": map[string]interface{}{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		},
	}

	var result struct {
		ID     string `json:"id"`
		ToolID string `json:"tool_id"`
	}
	if err := c.post(ctx, toolsEndpoint, payload, &result); err != nil {
		return "", err
	}

	toolID := result.ID
	if toolID == "" {
		toolID = result.ToolID
	}
	logger.Base().Info("webhook tool created",
		zap.String("tool_id", toolID),
		zap.String("name", name),
		zap.String("url", webhookURL))
	return toolID, nil
}

// ListTools lists all registered tools.
func (c *Client) ListTools(ctx context.Context) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.get(ctx, toolsEndpoint, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetTool returns one tool's configuration.
func (c *Client) GetTool(ctx context.Context, toolID string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.get(ctx, toolsEndpoint+"/"+toolID, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteTool deletes a tool. Fails if the tool is still attached to an agent.
func (c *Client) DeleteTool(ctx context.Context, toolID string) error {
	return c.delete(ctx, toolsEndpoint+"/"+toolID)
}
