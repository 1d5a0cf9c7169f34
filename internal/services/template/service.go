// Package template manages email templates and the webhook tools that let a
// conversational agent trigger templated email sends mid-call.
package template

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ClareAI/astra-campaign-service/internal/adapters/convai"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"go.uber.org/zap"
)

// Parameter is one fillable slot in a template's subject or body.
type Parameter struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// EmailTemplate is a reusable subject/body pair with {{placeholder}} tokens.
// ToolID is set once a webhook tool has been registered with the gateway.
type EmailTemplate struct {
	TemplateID      string      `json:"template_id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	SubjectTemplate string      `json:"subject_template"`
	BodyTemplate    string      `json:"body_template"`
	Parameters      []Parameter `json:"parameters"`
	SenderEmail     string      `json:"sender_email,omitempty"`
	ToolID          string      `json:"tool_id,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// ToolRegistrar is the slice of the gateway client used for tool lifecycle.
type ToolRegistrar interface {
	CreateWebhookTool(ctx context.Context, name, description, webhookURL, httpMethod string, parameters []convai.ToolParameter) (string, error)
	DeleteTool(ctx context.Context, toolID string) error
}

// Service stores templates in memory and registers matching webhook tools.
type Service struct {
	mu             sync.RWMutex
	templates      map[string]EmailTemplate
	registrar      ToolRegistrar
	webhookBaseURL string
	emailAPIURL    string
	httpClient     *http.Client
}

// NewService creates a template service. webhookBaseURL is the externally
// reachable prefix registered tools will call back to.
func NewService(registrar ToolRegistrar, webhookBaseURL, emailAPIURL string) *Service {
	return &Service{
		templates:      make(map[string]EmailTemplate),
		registrar:      registrar,
		webhookBaseURL: strings.TrimRight(webhookBaseURL, "/"),
		emailAPIURL:    emailAPIURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// TemplateID derives the canonical template id from a human-readable name:
// lowercased, spaces and dashes become underscores.
func TemplateID(name string) string {
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, " ", "_")
	id = strings.ReplaceAll(id, "-", "_")
	return id
}

// placeholderPattern matches {{placeholder}} and {placeholder} tokens.
var placeholderPattern = regexp.MustCompile(`\{\{?\s*(\w+)\s*\}?\}`)

// ExtractPlaceholders returns the unique placeholder names in a template
// string, sorted.
func ExtractPlaceholders(tmpl string) []string {
	seen := map[string]struct{}{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		seen[m[1]] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FillTemplate substitutes values into both {{key}} and {key} tokens.
func FillTemplate(tmpl string, values map[string]interface{}) string {
	result := tmpl
	for key, value := range values {
		str := fmt.Sprintf("%v", value)
		double := regexp.MustCompile(`\{\{\s*` + regexp.QuoteMeta(key) + `\s*\}\}`)
		single := regexp.MustCompile(`\{\s*` + regexp.QuoteMeta(key) + `\s*\}`)
		result = double.ReplaceAllString(result, str)
		result = single.ReplaceAllString(result, str)
	}
	return result
}

// sessionFields are supplied from stored call context, never from the agent,
// so they are excluded from auto-derived tool parameter schemas.
var sessionFields = map[string]struct{}{
	"customer_name":  {},
	"customer_email": {},
	"name":           {},
	"email":          {},
}

// CreateTemplate registers a template. When parameters is nil they are
// auto-derived from the subject and body placeholders, minus session-supplied
// fields. When autoCreateTool is set a webhook tool is registered with the
// gateway and its id recorded on the template.
func (s *Service) CreateTemplate(ctx context.Context, name, description, subjectTemplate, bodyTemplate string, parameters []Parameter, autoCreateTool bool, senderEmail string) (EmailTemplate, error) {
	templateID := TemplateID(name)

	if parameters == nil {
		placeholders := map[string]struct{}{}
		for _, p := range ExtractPlaceholders(subjectTemplate) {
			placeholders[p] = struct{}{}
		}
		for _, p := range ExtractPlaceholders(bodyTemplate) {
			placeholders[p] = struct{}{}
		}

		names := make([]string, 0, len(placeholders))
		for p := range placeholders {
			if _, session := sessionFields[p]; session {
				continue
			}
			names = append(names, p)
		}
		sort.Strings(names)

		parameters = make([]Parameter, 0, len(names))
		for _, p := range names {
			parameters = append(parameters, Parameter{Name: p, Description: "Value for " + p, Required: true})
		}
	}

	tmpl := EmailTemplate{
		TemplateID:      templateID,
		Name:            name,
		Description:     description,
		SubjectTemplate: subjectTemplate,
		BodyTemplate:    bodyTemplate,
		Parameters:      parameters,
		SenderEmail:     senderEmail,
		CreatedAt:       time.Now().UTC(),
	}

	if autoCreateTool {
		toolID, err := s.registerTool(ctx, tmpl)
		if err != nil {
			return EmailTemplate{}, fmt.Errorf("creating webhook tool for template %s: %w", templateID, err)
		}
		tmpl.ToolID = toolID
	}

	s.mu.Lock()
	s.templates[templateID] = tmpl
	s.mu.Unlock()

	logger.Base().Info("created email template",
		zap.String("template_id", templateID), zap.String("tool_id", tmpl.ToolID))
	return tmpl, nil
}

// registerTool creates the gateway webhook tool for a template. The system
// identifiers ride as dynamic-variable-bound parameters so the resolver can
// correlate the callback.
func (s *Service) registerTool(ctx context.Context, tmpl EmailTemplate) (string, error) {
	webhookURL := fmt.Sprintf("%s/webhooks/email/%s", s.webhookBaseURL, tmpl.TemplateID)

	toolParams := []convai.ToolParameter{
		{Name: "conversation_id", Type: "string", Description: "Conversation ID", Required: true, DynamicVariable: "system__conversation_id"},
		{Name: "agent_id", Type: "string", Description: "Agent ID", Required: true, DynamicVariable: "system__agent_id"},
		{Name: "called_number", Type: "string", Description: "Recipient phone number", Required: true, DynamicVariable: "system__called_number"},
	}
	for _, p := range tmpl.Parameters {
		toolParams = append(toolParams, convai.ToolParameter{
			Name:        p.Name,
			Type:        "string",
			Description: p.Description,
			Required:    p.Required,
		})
	}

	return s.registrar.CreateWebhookTool(ctx, tmpl.TemplateID, tmpl.Description, webhookURL, http.MethodPost, toolParams)
}

// GetTemplate returns a template by id.
func (s *Service) GetTemplate(templateID string) (EmailTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tmpl, ok := s.templates[templateID]
	return tmpl, ok
}

// ListTemplates returns all templates, ordered by id.
func (s *Service) ListTemplates() []EmailTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]EmailTemplate, 0, len(s.templates))
	for _, tmpl := range s.templates {
		out = append(out, tmpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TemplateID < out[j].TemplateID })
	return out
}

// DeleteTemplate removes a template and best-effort deletes its registered
// tool. Returns false when the template does not exist.
func (s *Service) DeleteTemplate(ctx context.Context, templateID string) bool {
	s.mu.Lock()
	tmpl, ok := s.templates[templateID]
	if ok {
		delete(s.templates, templateID)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	if tmpl.ToolID != "" {
		if err := s.registrar.DeleteTool(ctx, tmpl.ToolID); err != nil {
			logger.Base().Warn("could not delete tool for removed template",
				zap.String("template_id", templateID),
				zap.String("tool_id", tmpl.ToolID),
				zap.Error(err))
		}
	}

	logger.Base().Info("deleted email template", zap.String("template_id", templateID))
	return true
}

// SendEmail fills a template with customer info and parameters, then posts
// the message to the external email API. senderEmail rides in the
// x-user-email header.
func (s *Service) SendEmail(ctx context.Context, templateID string, customerName, customerEmail string, parameters map[string]interface{}, senderEmail string) error {
	tmpl, ok := s.GetTemplate(templateID)
	if !ok {
		return fmt.Errorf("template not found: %s", templateID)
	}
	if customerEmail == "" {
		return fmt.Errorf("customer email is required")
	}

	values := map[string]interface{}{
		"customer_name":  customerName,
		"customer_email": customerEmail,
		"name":           customerName,
		"email":          customerEmail,
	}
	for k, v := range parameters {
		values[k] = v
	}

	subject := FillTemplate(tmpl.SubjectTemplate, values)
	body := FillTemplate(tmpl.BodyTemplate, values)

	payload, err := json.Marshal(map[string]string{
		"to":      customerEmail,
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return fmt.Errorf("encoding email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.emailAPIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building email request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-user-email", senderEmail)

	logger.Base().Info("sending templated email",
		zap.String("template_id", templateID),
		zap.String("to", customerEmail),
		zap.String("sender", senderEmail))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
