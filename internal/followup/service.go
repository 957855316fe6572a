package followup

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/internal/events"
	"github.com/lrz80/chatbot-backend-sub001/internal/tenant"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
	"github.com/lrz80/chatbot-backend-sub001/platform/phone"
)

// Delay bounds in minutes. The tenant wait is clamped into this window before
// jitter so a follow-up never fires moments after the conversation nor days
// later.
const (
	minDelayMinutes = 60
	maxDelayMinutes = 1380
	jitterFraction  = 0.10
	floorDelay      = 5 * time.Minute
)

// Store persists the single pending follow-up per contact.
type Store interface {
	UpsertPending(ctx context.Context, row *Scheduled) (uuid.UUID, error)
}

// TenantConfig loads the per-tenant follow-up knobs.
type TenantConfig interface {
	Settings(ctx context.Context, tenantID uuid.UUID) (*conversation.TenantSettings, error)
	FollowUp(ctx context.Context, tenantID uuid.UUID) (*tenant.FollowUpConfig, error)
}

// Enqueuer schedules the dispatch task for a stored follow-up.
type Enqueuer interface {
	EnqueueDispatch(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service decides whether a turn earns a follow-up and schedules it.
type Service struct {
	repo     Store
	tenants  TenantConfig
	enqueuer Enqueuer
	bus      events.Bus
	log      *logger.Logger
}

// NewService creates the follow-up service. enqueuer may be nil; the
// scheduler binary then picks pending rows up by fecha_envio.
func NewService(repo Store, tenants TenantConfig, enqueuer Enqueuer, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, tenants: tenants, enqueuer: enqueuer, bus: bus, log: log}
}

// randFloat is the jitter source; swapped in tests.
var randFloat = rand.Float64

// ScheduleIfEligible schedules (or reschedules) the contact's single pending
// follow-up when the turn qualifies. Ineligible turns are a silent no-op.
func (s *Service) ScheduleIfEligible(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, intent string, nivel int, text string) error {
	if !canal.Supported() {
		return nil
	}
	if canal == conversation.CanalWhatsApp && !phone.IsPlausible(contact) {
		return nil
	}
	if intent == "" || intent == conversation.IntentSaludo || intent == conversation.IntentGracias {
		return nil
	}
	if nivel < 2 {
		return nil
	}

	settings, err := s.tenants.Settings(ctx, tenantID)
	if err != nil {
		return err
	}
	if !settings.MembresiaActiva {
		return nil
	}

	cfg, err := s.tenants.FollowUp(ctx, tenantID)
	if err != nil {
		return err
	}

	sendAt := time.Now().Add(delayFor(cfg.WaitMinutes))

	id, err := s.repo.UpsertPending(ctx, &Scheduled{
		TenantID:   tenantID,
		Canal:      canal,
		Contact:    contact,
		Contenido:  templateFor(cfg, nivel),
		Intencion:  intent,
		Nivel:      nivel,
		FechaEnvio: sendAt,
	})
	if err != nil {
		return err
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueDispatch(ctx, id, sendAt); err != nil {
			// The row is stored; the dispatcher's periodic sweep catches it.
			s.log.Error("follow-up enqueue failed", "error", err, "id", id.String())
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.FollowUpScheduled{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenantID,
			Canal:     string(canal),
			Contact:   contact,
			Intent:    intent,
			Nivel:     nivel,
		})
	}
	return nil
}

// delayFor clamps the tenant wait into the allowed window and spreads sends
// with up to ±10% jitter.
func delayFor(waitMinutes int) time.Duration {
	minutes := waitMinutes
	if minutes < minDelayMinutes {
		minutes = minDelayMinutes
	}
	if minutes > maxDelayMinutes {
		minutes = maxDelayMinutes
	}

	jitter := (randFloat()*2 - 1) * jitterFraction
	delay := time.Duration(float64(minutes) * (1 + jitter) * float64(time.Minute))
	if delay < floorDelay {
		delay = floorDelay
	}
	return delay
}

// templateFor picks the message by interest level, falling back through the
// configured tiers to a generic nudge.
func templateFor(cfg *tenant.FollowUpConfig, nivel int) string {
	var candidates []string
	switch {
	case nivel >= 4:
		candidates = []string{cfg.MsgAlto, cfg.MsgMedio, cfg.MsgBajo}
	case nivel == 3:
		candidates = []string{cfg.MsgMedio, cfg.MsgBajo}
	default:
		candidates = []string{cfg.MsgBajo}
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return "¡Hola! Quedamos pendientes de tu mensaje. ¿Te gustaría que retomemos la conversación?"
}
