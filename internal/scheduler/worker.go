package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/internal/followup"
	"github.com/lrz80/chatbot-backend-sub001/platform/config"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// rescheduleSlack is how far in the future a row's send time may be before
// the task requeues itself instead of sending.
const rescheduleSlack = 30 * time.Second

// sweepBatchSize bounds one periodic sweep pass.
const sweepBatchSize = 100

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	repo      *followup.Repository
	clients   conversation.ClientStore
	tenants   conversation.TenantReader
	transport conversation.Transport
	enqueuer  *Client
	log       *logger.Logger
}

func NewWorker(
	cfg config.SchedulerConfig,
	pool *pgxpool.Pool,
	clients conversation.ClientStore,
	tenants conversation.TenantReader,
	transport conversation.Transport,
	enqueuer *Client,
	log *logger.Logger,
) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		repo:      followup.NewRepository(pool),
		clients:   clients,
		tenants:   tenants,
		transport: transport,
		enqueuer:  enqueuer,
		log:       log,
	}

	mux.HandleFunc(TaskFollowUpDispatch, w.handleFollowUpDispatch)

	return w, nil
}

func (w *Worker) handleFollowUpDispatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpDispatchPayload(task)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(payload.ScheduledID)
	if err != nil {
		return err
	}

	return w.dispatch(ctx, id)
}

// dispatch sends one scheduled follow-up. The MarkSent claim makes it safe to
// run the same id from a stale task and the sweep at once: exactly one caller
// wins the flip and sends.
func (w *Worker) dispatch(ctx context.Context, id uuid.UUID) error {
	row, err := w.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if row == nil || row.Enviado {
		return nil
	}

	// A rescheduled row moved its send time; requeue for the new one.
	if time.Until(row.FechaEnvio) > rescheduleSlack {
		if w.enqueuer != nil {
			return w.enqueuer.EnqueueDispatch(ctx, id, row.FechaEnvio)
		}
		return nil
	}

	settings, err := w.tenants.Settings(ctx, row.TenantID)
	if err != nil {
		return err
	}
	if !settings.MembresiaActiva {
		_, err := w.repo.MarkSent(ctx, id)
		return err
	}

	// An operator owns the conversation; nudging now would interrupt them.
	client, err := w.clients.Get(ctx, row.TenantID, row.Canal, row.Contact)
	if err != nil {
		return err
	}
	if client.OverrideActive(time.Now()) {
		if w.enqueuer != nil {
			return w.enqueuer.EnqueueDispatch(ctx, id, time.Now().Add(time.Hour))
		}
		return nil
	}

	claimed, err := w.repo.MarkSent(ctx, id)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	if err := w.transport.Send(ctx, conversation.SendParams{
		TenantID:  row.TenantID,
		Canal:     row.Canal,
		MessageID: "followup:" + id.String(),
		Contact:   row.Contact,
		Text:      row.Contenido,
	}); err != nil {
		// The row stays claimed; a retry would risk double-sending from a
		// gateway that accepted but failed to acknowledge.
		w.log.Error("follow-up send failed", "error", err, "id", id.String())
	}
	return nil
}

// RunSweep periodically dispatches due rows whose queue task was lost.
func (w *Worker) RunSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := w.repo.Due(ctx, time.Now(), sweepBatchSize)
			if err != nil {
				w.log.Error("follow-up sweep query failed", "error", err)
				continue
			}
			for _, id := range ids {
				if err := w.dispatch(ctx, id); err != nil {
					w.log.Error("follow-up sweep dispatch failed", "error", err, "id", id.String())
				}
			}
		}
	}
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
