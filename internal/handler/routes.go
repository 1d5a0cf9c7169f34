package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ClareAI/astra-campaign-service/internal/adapters/convai"
	"github.com/ClareAI/astra-campaign-service/internal/config"
	"github.com/ClareAI/astra-campaign-service/internal/ecommerce"
	"github.com/ClareAI/astra-campaign-service/internal/resolver"
	"github.com/ClareAI/astra-campaign-service/internal/services/batch"
	"github.com/ClareAI/astra-campaign-service/internal/services/template"
	"github.com/ClareAI/astra-campaign-service/internal/session"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HandlerManager builds and holds the services shared by all handlers.
type HandlerManager struct {
	config        *config.CampaignConfig
	convaiClient  *convai.Client
	sessions      *session.Store
	batches       *session.BatchStore
	registry      *ecommerce.Registry
	resolver      *resolver.Resolver
	poller        *batch.Poller
	extractor     *batch.Extractor
	notifier      *batch.Notifier
	subscriptions *batch.SubscriptionStore
	templates     *template.Service
}

// NewHandlerManager creates all services and stores.
func NewHandlerManager(cfg *config.CampaignConfig) (*HandlerManager, error) {
	convaiClient := convai.NewClient(cfg.ConvAIBaseURL, cfg.ConvAIAPIKey,
		convai.WithTimeout(time.Duration(cfg.ConvAITimeoutSec)*time.Second),
		convai.WithMaxRetries(cfg.ConvAIMaxRetries),
		convai.WithRateLimit(cfg.ConvAIRateLimit),
	)

	sessions := session.NewStore()
	batches := session.NewBatchStore()
	registry := ecommerce.NewRegistry()

	extractor := batch.NewExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	poller := batch.NewPoller(convaiClient, extractor)

	templates := template.NewService(convaiClient, cfg.WebhookBaseURL, cfg.EmailAPIURL)
	if cfg.TemplateSeedPath != "" {
		if count, err := templates.LoadSeedFile(context.Background(), cfg.TemplateSeedPath); err != nil {
			logger.Base().Warn("could not load template seed file",
				zap.String("path", cfg.TemplateSeedPath), zap.Error(err))
		} else if count > 0 {
			logger.Base().Info("seeded email templates", zap.Int("count", count))
		}
	}

	return &HandlerManager{
		config:        cfg,
		convaiClient:  convaiClient,
		sessions:      sessions,
		batches:       batches,
		registry:      registry,
		resolver:      resolver.New(sessions, batches, registry),
		poller:        poller,
		extractor:     extractor,
		notifier:      batch.NewNotifier(poller),
		subscriptions: batch.NewSubscriptionStore(),
		templates:     templates,
	}, nil
}

// SetupAllRoutes registers every route under /api/v1 plus health and the
// /webhook alias prefix.
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	if hm.config.EnableCORS {
		router.Use(CORSMiddleware)
	}
	router.Use(LoggingMiddleware)

	router.HandleFunc("/health", hm.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(ValidationMiddleware)

	batchHandler := NewBatchHandler(hm.convaiClient, hm.batches)
	batchHandler.SetupBatchRoutes(api)

	callHandler := NewCallHandler(hm.convaiClient, hm.sessions, hm.registry)
	callHandler.SetupCallRoutes(api)

	conversationHandler := NewConversationHandler(hm.convaiClient)
	conversationHandler.SetupConversationRoutes(api)

	agentHandler := NewAgentHandler(hm.convaiClient)
	agentHandler.SetupAgentRoutes(api)

	phoneNumberHandler := NewPhoneNumberHandler(hm.convaiClient, hm.config)
	phoneNumberHandler.SetupPhoneNumberRoutes(api)

	toolHandler := NewToolHandler(hm.convaiClient)
	toolHandler.SetupToolRoutes(api)

	knowledgeBaseHandler := NewKnowledgeBaseHandler(hm.convaiClient)
	knowledgeBaseHandler.SetupKnowledgeBaseRoutes(api)

	ecommerceHandler := NewEcommerceHandler(hm.registry, hm.batches)
	ecommerceHandler.SetupEcommerceRoutes(api)

	templateHandler := NewTemplateHandler(hm.templates, hm.sessions)
	templateHandler.SetupTemplateRoutes(api)

	automationHandler := NewAutomationHandler(hm.poller, hm.extractor, hm.notifier, hm.subscriptions, hm.convaiClient)
	automationHandler.SetupAutomationRoutes(api)

	webhookHandler := NewWebhookHandler(hm.resolver, hm.templates, hm.sessions, hm.config.DefaultSenderEmail)
	webhookHandler.SetupWebhookRoutes(api.PathPrefix("/webhooks").Subrouter())
	// Some agent tool configurations were registered with the singular
	// prefix; both spellings must answer.
	webhookHandler.SetupWebhookRoutes(api.PathPrefix("/webhook").Subrouter())

	logger.Base().Info("all application routes registered")
}

func (hm *HandlerManager) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "astra-campaign-service",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
