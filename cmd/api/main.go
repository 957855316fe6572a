package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrz80/chatbot-backend-sub001/internal/ai/gemini"
	"github.com/lrz80/chatbot-backend-sub001/internal/ai/matcher"
	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/internal/email"
	"github.com/lrz80/chatbot-backend-sub001/internal/events"
	"github.com/lrz80/chatbot-backend-sub001/internal/followup"
	apphttp "github.com/lrz80/chatbot-backend-sub001/internal/http"
	"github.com/lrz80/chatbot-backend-sub001/internal/http/router"
	"github.com/lrz80/chatbot-backend-sub001/internal/messaging"
	"github.com/lrz80/chatbot-backend-sub001/internal/notification"
	"github.com/lrz80/chatbot-backend-sub001/internal/scheduler"
	"github.com/lrz80/chatbot-backend-sub001/internal/tenant"
	"github.com/lrz80/chatbot-backend-sub001/internal/webhook"
	"github.com/lrz80/chatbot-backend-sub001/platform/config"
	"github.com/lrz80/chatbot-backend-sub001/platform/db"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
	"github.com/lrz80/chatbot-backend-sub001/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// ========================================================================
	// External Services
	// ========================================================================

	var (
		classifier conversation.Classifier
		detector   conversation.LanguageDetector
		generator  conversation.Generator
		composer   conversation.Composer
	)
	if cfg.IsGeminiEnabled() {
		geminiClient, err := gemini.NewClient(ctx, cfg, log)
		if err != nil {
			log.Error("failed to initialize gemini client", "error", err)
			panic("failed to initialize gemini client: " + err.Error())
		}
		classifier = geminiClient
		detector = geminiClient
		generator = geminiClient
		composer = geminiClient
		log.Info("gemini client initialized", "model", cfg.GeminiModel)
	} else {
		log.Warn("GEMINI_API_KEY not configured; generated replies fall back to canned text")
	}

	var intentMatcher conversation.IntentMatcher
	if cfg.IsMatcherEnabled() {
		intentMatcher = matcher.NewClient(cfg)
		log.Info("intent matcher initialized", "url", cfg.MatcherURL)
	}

	gateway := messaging.NewClient(cfg, log)
	sender := email.NewSender(cfg)
	tenants := tenant.NewRepository(pool)
	notifier := notification.NewNotifier(tenants, sender, gateway, log)

	enqueuer, closeScheduler := initFollowUpScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	webhookModule := webhook.NewModule(webhook.Deps{
		Pool:       pool,
		Bus:        eventBus,
		Log:        log,
		Validate:   val,
		Classifier: classifier,
		Detector:   detector,
		Generator:  generator,
		Composer:   composer,
		Matcher:    intentMatcher,
		Transport:  gateway,
		Notifier:   notifier,
		Enqueuer:   enqueuer,
	})

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			webhookModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initFollowUpScheduler(cfg config.SchedulerConfig, log *logger.Logger) (followup.Enqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-ups rely on the scheduler sweep")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
