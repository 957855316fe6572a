// Package webhook mounts the inbound message webhook and the conversation
// ops endpoints, and owns the wiring of the turn pipeline.
package webhook

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrz80/chatbot-backend-sub001/internal/analytics"
	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/internal/conversation/repository"
	"github.com/lrz80/chatbot-backend-sub001/internal/events"
	"github.com/lrz80/chatbot-backend-sub001/internal/followup"
	apphttp "github.com/lrz80/chatbot-backend-sub001/internal/http"
	"github.com/lrz80/chatbot-backend-sub001/internal/tenant"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
	"github.com/lrz80/chatbot-backend-sub001/platform/validator"
)

// Deps are the external collaborators the module cannot build itself: LLM
// ports, the matcher, the outbound transport and the task enqueuer. Any of
// them may be nil; the pipeline degrades instead of failing.
type Deps struct {
	Pool       *pgxpool.Pool
	Bus        events.Bus
	Log        *logger.Logger
	Validate   *validator.Validator
	Classifier conversation.Classifier
	Detector   conversation.LanguageDetector
	Generator  conversation.Generator
	Composer   conversation.Composer
	Matcher    conversation.IntentMatcher
	Transport  conversation.Transport
	Notifier   conversation.OverrideNotifier
	Enqueuer   followup.Enqueuer
}

// Module is the webhook bounded context.
type Module struct {
	handler *Handler
	tenants *tenant.Repository
}

// NewModule wires the full turn pipeline on top of the database pool.
func NewModule(deps Deps) *Module {
	tenants := tenant.NewRepository(deps.Pool)
	links := tenant.NewLinkRepository(deps.Pool)
	faqs := tenant.NewFAQRepository(deps.Pool)

	states := repository.NewStateRepository(deps.Pool)
	clients := repository.NewClientRepository(deps.Pool)
	messages := repository.NewMessageRepository(deps.Pool)
	memory := repository.NewMemoryRepository(deps.Pool)

	activator := conversation.NewOverrideActivator(clients, deps.Notifier, deps.Bus, deps.Log)

	pipeline := conversation.NewPipeline(deps.Log,
		conversation.NewHumanOverrideGate(clients, deps.Log),
		conversation.NewPaymentGuard(clients, activator, deps.Log),
		conversation.NewAwaitingFieldGate(clients, deps.Log),
		conversation.NewYesNoGate(deps.Log),
	)

	cta := conversation.NewCTAResolver(links, deps.Log)
	fastpath := conversation.NewFastPath(deps.Matcher, faqs, cta, deps.Composer, deps.Log)
	intents := conversation.NewIntentService(deps.Classifier, deps.Log)
	language := conversation.NewLanguageResolver(deps.Detector, clients, deps.Log)
	finalizer := conversation.NewFinalizer(deps.Transport, states, messages, memory, deps.Log)

	analyticsSvc := analytics.NewService(analytics.NewRepository(deps.Pool), deps.Bus, deps.Log)
	followups := followup.NewService(followup.NewRepository(deps.Pool), tenants, deps.Enqueuer, deps.Bus, deps.Log)
	postReply := conversation.NewPostReply(analyticsSvc, analyticsSvc, followups, deps.Log)

	turns := conversation.NewService(
		tenants, states, clients, messages,
		language, pipeline, intents, fastpath,
		deps.Generator, finalizer, postReply, deps.Log,
	)

	return &Module{
		handler: NewHandler(turns, activator, states, clients, deps.Validate, deps.Log),
		tenants: tenants,
	}
}

func (m *Module) Name() string { return "webhook" }

// RegisterRoutes mounts the API-key webhook route and the JWT ops routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	inbound := ctx.V1.Group("/webhook")
	inbound.Use(ctx.WebhookLimiter.RateLimit())
	inbound.Use(APIKeyAuth(m.tenants))
	inbound.POST("/message", m.handler.HandleInbound)

	ops := ctx.Protected.Group("/conversations")
	ops.GET("/state", m.handler.HandleState)
	ops.POST("/override", m.handler.HandleOverrideActivate)
	ops.DELETE("/override", m.handler.HandleOverrideClear)
}
