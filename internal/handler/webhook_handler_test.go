package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ClareAI/astra-campaign-service/internal/ecommerce"
	"github.com/ClareAI/astra-campaign-service/internal/resolver"
	"github.com/ClareAI/astra-campaign-service/internal/services/template"
	"github.com/ClareAI/astra-campaign-service/internal/session"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookFixture struct {
	router   *mux.Router
	sessions *session.Store
	batches  *session.BatchStore
	registry *ecommerce.Registry
	mailSrv  *httptest.Server
	sent     chan sentEmail
}

type sentEmail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sender  string `json:"-"`
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	sent := make(chan sentEmail, 1)
	mailSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var mail sentEmail
		require.NoError(t, json.NewDecoder(r.Body).Decode(&mail))
		mail.Sender = r.Header.Get("x-user-email")
		sent <- mail
	}))
	t.Cleanup(mailSrv.Close)

	sessions := session.NewStore()
	batches := session.NewBatchStore()
	registry := ecommerce.NewRegistry()
	res := resolver.New(sessions, batches, registry)
	templates := template.NewService(nil, "https://api.example.com/api/v1", mailSrv.URL)

	router := mux.NewRouter()
	NewWebhookHandler(res, templates, sessions, "noreply@example.com").SetupWebhookRoutes(router)

	_, err := templates.CreateTemplate(context.Background(), "Welcome", "",
		"Hello {{customer_name}}", "Hi {{customer_name}}, {{note}}", nil, false, "")
	require.NoError(t, err)

	return &webhookFixture{
		router:   router,
		sessions: sessions,
		batches:  batches,
		registry: registry,
		mailSrv:  mailSrv,
		sent:     sent,
	}
}

func postWebhook(t *testing.T, router *mux.Router, path string, payload map[string]interface{}) (int, apiResponse) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec.Code, envelope
}

func TestWebhookSendEmailFromSession(t *testing.T) {
	f := newWebhookFixture(t)

	f.sessions.Put("conv_1", map[string]interface{}{
		"name":         "John",
		"email":        "john@example.com",
		"sender_email": "sales@example.com",
	})

	status, envelope := postWebhook(t, f.router, "/email/welcome", map[string]interface{}{
		"conversation_id": "conv_1",
		"note":            "thanks for calling",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, envelope.Success)
	assert.Equal(t, "Email sent successfully to john@example.com", envelope.Data)

	mail := <-f.sent
	assert.Equal(t, "john@example.com", mail.To)
	assert.Equal(t, "Hello John", mail.Subject)
	assert.Equal(t, "Hi John, thanks for calling", mail.Body)
	assert.Equal(t, "sales@example.com", mail.Sender)
}

func TestWebhookSendEmailUnknownTemplateStill200(t *testing.T) {
	f := newWebhookFixture(t)

	status, envelope := postWebhook(t, f.router, "/email/ghost", map[string]interface{}{
		"conversation_id": "conv_1",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Error, "ghost")
}

func TestWebhookSendEmailUnresolvedIdentityStill200(t *testing.T) {
	f := newWebhookFixture(t)

	status, envelope := postWebhook(t, f.router, "/email/welcome", map[string]interface{}{
		"conversation_id": "conv_unknown",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Error, "could not resolve a customer email")
}

func TestWebhookSendEmailGlobalSenderFallback(t *testing.T) {
	f := newWebhookFixture(t)

	f.sessions.Put("conv_1", map[string]interface{}{
		"name":  "John",
		"email": "john@example.com",
	})

	_, envelope := postWebhook(t, f.router, "/email/welcome", map[string]interface{}{
		"conversation_id": "conv_1",
		"note":            "x",
	})
	assert.True(t, envelope.Success)

	mail := <-f.sent
	assert.Equal(t, "noreply@example.com", mail.Sender)
}

func TestWebhookProductsNoPlatformStill200(t *testing.T) {
	f := newWebhookFixture(t)

	status, envelope := postWebhook(t, f.router, "/ecommerce/products", map[string]interface{}{
		"conversation_id": "conv_1",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Error, "No ecommerce platform connected")
}

func TestWebhookMalformedBodyStill200(t *testing.T) {
	f := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Contains(t, envelope.Data, "no JSON body")
}
