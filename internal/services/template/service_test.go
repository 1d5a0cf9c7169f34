package template

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ClareAI/astra-campaign-service/internal/adapters/convai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistrar records tool creations and deletions.
type fakeRegistrar struct {
	created    []createdTool
	deleted    []string
	createErr  error
	nextToolID string
}

type createdTool struct {
	Name       string
	WebhookURL string
	Parameters []convai.ToolParameter
}

func (f *fakeRegistrar) CreateWebhookTool(ctx context.Context, name, description, webhookURL, httpMethod string, parameters []convai.ToolParameter) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, createdTool{Name: name, WebhookURL: webhookURL, Parameters: parameters})
	if f.nextToolID != "" {
		return f.nextToolID, nil
	}
	return "tool_123", nil
}

func (f *fakeRegistrar) DeleteTool(ctx context.Context, toolID string) error {
	f.deleted = append(f.deleted, toolID)
	return nil
}

func TestTemplateID(t *testing.T) {
	assert.Equal(t, "appointment_confirmation", TemplateID("Appointment Confirmation"))
	assert.Equal(t, "follow_up_v2", TemplateID("Follow-Up V2"))
	assert.Equal(t, "plain", TemplateID("plain"))
}

func TestExtractPlaceholders(t *testing.T) {
	got := ExtractPlaceholders("Hi {{customer_name}}, your {{ product }} ships on {date}. Bye {{customer_name}}.")
	assert.Equal(t, []string{"customer_name", "date", "product"}, got)

	assert.Empty(t, ExtractPlaceholders("no placeholders here"))
}

func TestFillTemplate(t *testing.T) {
	out := FillTemplate("Hi {{name}}, order {order_id} total {{ total }}", map[string]interface{}{
		"name":     "John",
		"order_id": 1001,
		"total":    "25.50",
	})
	assert.Equal(t, "Hi John, order 1001 total 25.50", out)

	// Unknown placeholders are left untouched.
	out = FillTemplate("Hi {{name}}", map[string]interface{}{"other": "x"})
	assert.Equal(t, "Hi {{name}}", out)
}

func TestCreateTemplateAutoDerivesParameters(t *testing.T) {
	registrar := &fakeRegistrar{}
	svc := NewService(registrar, "https://api.example.com/api/v1/", "https://mail.example.com/send")

	tmpl, err := svc.CreateTemplate(context.Background(),
		"Appointment Confirmation", "Confirms a booked appointment",
		"Your appointment on {{appointment_date}}",
		"Hi {{customer_name}}, see you at {{appointment_time}}. Reply to {{email}}.",
		nil, true, "sales@example.com")
	require.NoError(t, err)

	assert.Equal(t, "appointment_confirmation", tmpl.TemplateID)
	assert.Equal(t, "tool_123", tmpl.ToolID)
	assert.Equal(t, "sales@example.com", tmpl.SenderEmail)

	// Session-supplied fields never become tool parameters.
	require.Len(t, tmpl.Parameters, 2)
	assert.Equal(t, "appointment_date", tmpl.Parameters[0].Name)
	assert.Equal(t, "appointment_time", tmpl.Parameters[1].Name)
	assert.True(t, tmpl.Parameters[0].Required)

	require.Len(t, registrar.created, 1)
	tool := registrar.created[0]
	assert.Equal(t, "appointment_confirmation", tool.Name)
	assert.Equal(t, "https://api.example.com/api/v1/webhooks/email/appointment_confirmation", tool.WebhookURL)

	// Correlation identifiers ride as dynamic-variable-bound parameters ahead
	// of the template's own parameters.
	require.GreaterOrEqual(t, len(tool.Parameters), 5)
	assert.Equal(t, "conversation_id", tool.Parameters[0].Name)
	assert.Equal(t, "system__conversation_id", tool.Parameters[0].DynamicVariable)
	assert.Equal(t, "system__agent_id", tool.Parameters[1].DynamicVariable)
	assert.Equal(t, "system__called_number", tool.Parameters[2].DynamicVariable)
	assert.Equal(t, "appointment_date", tool.Parameters[3].Name)
}

func TestCreateTemplateWithoutTool(t *testing.T) {
	registrar := &fakeRegistrar{}
	svc := NewService(registrar, "https://api.example.com", "https://mail.example.com/send")

	tmpl, err := svc.CreateTemplate(context.Background(), "Plain", "", "Subject", "Body", nil, false, "")
	require.NoError(t, err)
	assert.Empty(t, tmpl.ToolID)
	assert.Empty(t, registrar.created)
}

func TestCreateTemplateToolFailure(t *testing.T) {
	registrar := &fakeRegistrar{createErr: errors.New("gateway unavailable")}
	svc := NewService(registrar, "https://api.example.com", "https://mail.example.com/send")

	_, err := svc.CreateTemplate(context.Background(), "Broken", "", "S", "B", nil, true, "")
	require.Error(t, err)

	// Nothing is stored when tool registration fails.
	_, ok := svc.GetTemplate("broken")
	assert.False(t, ok)
}

func TestListTemplatesSorted(t *testing.T) {
	svc := NewService(&fakeRegistrar{}, "https://api.example.com", "")

	_, err := svc.CreateTemplate(context.Background(), "Zeta", "", "S", "B", nil, false, "")
	require.NoError(t, err)
	_, err = svc.CreateTemplate(context.Background(), "Alpha", "", "S", "B", nil, false, "")
	require.NoError(t, err)

	all := svc.ListTemplates()
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].TemplateID)
	assert.Equal(t, "zeta", all[1].TemplateID)
}

func TestDeleteTemplateRemovesTool(t *testing.T) {
	registrar := &fakeRegistrar{}
	svc := NewService(registrar, "https://api.example.com", "")

	_, err := svc.CreateTemplate(context.Background(), "Doomed", "", "S", "B", nil, true, "")
	require.NoError(t, err)

	assert.True(t, svc.DeleteTemplate(context.Background(), "doomed"))
	assert.Equal(t, []string{"tool_123"}, registrar.deleted)

	assert.False(t, svc.DeleteTemplate(context.Background(), "doomed"))
}

func TestSendEmail(t *testing.T) {
	type sentMail struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	received := make(chan sentMail, 1)
	var gotSender string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSender = r.Header.Get("x-user-email")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var mail sentMail
		require.NoError(t, json.NewDecoder(r.Body).Decode(&mail))
		received <- mail
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewService(&fakeRegistrar{}, "https://api.example.com", srv.URL)
	_, err := svc.CreateTemplate(context.Background(), "Welcome", "",
		"Welcome {{customer_name}}",
		"Hi {{name}}, your code is {{code}}. We will write to {{email}}.",
		nil, false, "")
	require.NoError(t, err)

	err = svc.SendEmail(context.Background(), "welcome", "John", "john@example.com",
		map[string]interface{}{"code": "XYZ"}, "sales@example.com")
	require.NoError(t, err)

	mail := <-received
	assert.Equal(t, "john@example.com", mail.To)
	assert.Equal(t, "Welcome John", mail.Subject)
	assert.Equal(t, "Hi John, your code is XYZ. We will write to john@example.com.", mail.Body)
	assert.Equal(t, "sales@example.com", gotSender)
}

func TestSendEmailValidation(t *testing.T) {
	svc := NewService(&fakeRegistrar{}, "https://api.example.com", "http://unused.example.com")

	err := svc.SendEmail(context.Background(), "missing", "John", "john@example.com", nil, "")
	assert.ErrorContains(t, err, "template not found")

	_, err = svc.CreateTemplate(context.Background(), "Welcome", "", "S", "B", nil, false, "")
	require.NoError(t, err)

	err = svc.SendEmail(context.Background(), "welcome", "John", "", nil, "")
	assert.ErrorContains(t, err, "customer email is required")
}

func TestSendEmailAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	svc := NewService(&fakeRegistrar{}, "https://api.example.com", srv.URL)
	_, err := svc.CreateTemplate(context.Background(), "Welcome", "", "S", "B", nil, false, "")
	require.NoError(t, err)

	err = svc.SendEmail(context.Background(), "welcome", "John", "john@example.com", nil, "")
	assert.ErrorContains(t, err, "403")
	assert.ErrorContains(t, err, "quota exceeded")
}
