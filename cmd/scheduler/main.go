package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation/repository"
	"github.com/lrz80/chatbot-backend-sub001/internal/messaging"
	"github.com/lrz80/chatbot-backend-sub001/internal/scheduler"
	"github.com/lrz80/chatbot-backend-sub001/internal/tenant"
	"github.com/lrz80/chatbot-backend-sub001/platform/config"
	"github.com/lrz80/chatbot-backend-sub001/platform/db"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// sweepInterval is how often the worker scans for due rows whose queue task
// was lost.
const sweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	gateway := messaging.NewClient(cfg, log)
	tenants := tenant.NewRepository(pool)
	clients := repository.NewClientRepository(pool)

	enqueuer, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer enqueuer.Close()

	worker, err := scheduler.NewWorker(cfg, pool, clients, tenants, gateway, enqueuer, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	go worker.RunSweep(ctx, sweepInterval)

	log.Info("scheduler worker running")
	worker.Run(ctx)
	log.Info("scheduler stopped")
}
