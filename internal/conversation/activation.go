package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lrz80/chatbot-backend-sub001/internal/events"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
	"github.com/lrz80/chatbot-backend-sub001/platform/sanitize"
)

// overrideSnippetMax bounds the user-text snippet embedded in operator
// notifications.
const overrideSnippetMax = 160

// OverrideActivator is the shared activation primitive. Any guard that wants
// to hand the conversation to a human goes through it, so the operator
// notification fires exactly once per inactive-to-active transition.
type OverrideActivator struct {
	clients  ClientStore
	notifier OverrideNotifier
	bus      events.Bus
	log      *logger.Logger
}

// NewOverrideActivator creates the activation primitive. notifier may be nil
// when no operator channel is configured.
func NewOverrideActivator(clients ClientStore, notifier OverrideNotifier, bus events.Bus, log *logger.Logger) *OverrideActivator {
	return &OverrideActivator{clients: clients, notifier: notifier, bus: bus, log: log}
}

// Activate sets or extends the override window. It returns whether this call
// transitioned the override from inactive to active (vs merely renewing an
// already-active window). Only a true transition fans out the best-effort
// operator notification; failures there never fail the turn.
func (a *OverrideActivator) Activate(ctx context.Context, tenantID uuid.UUID, canal Canal, contact string, minutes int, reason, source, triggerText string) (bool, error) {
	until := nowFunc().Add(time.Duration(minutes) * time.Minute)

	prevActive, err := a.clients.SetOverride(ctx, tenantID, canal, contact, until)
	if err != nil {
		return false, err
	}
	if prevActive {
		return false, nil
	}

	snippet := sanitize.Snippet(triggerText, overrideSnippetMax)

	a.log.Info("human override activated",
		"canal", string(canal),
		"contact", contact,
		"minutes", minutes,
		"reason", reason,
		"source", source)

	if a.bus != nil {
		a.bus.Publish(ctx, events.HumanOverrideActivated{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenantID,
			Canal:     string(canal),
			Contact:   contact,
			Reason:    reason,
			Source:    source,
			Snippet:   snippet,
			Minutes:   minutes,
		})
	}

	if a.notifier != nil {
		a.notifier.NotifyOverride(ctx, tenantID, canal, contact, reason, snippet)
	}

	return true, nil
}
