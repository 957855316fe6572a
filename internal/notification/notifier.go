// Package notification fans out operator alerts when a conversation is
// handed off to a human.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// notifyTimeout bounds the whole fan-out; alerts are best-effort and must
// never hold a turn open.
const notifyTimeout = 10 * time.Second

// EmailSender delivers the operator email alert.
type EmailSender interface {
	SendOverrideAlert(ctx context.Context, toEmail, canal, contact, reason, snippet string) error
}

// SMSSender delivers the operator SMS alert.
type SMSSender interface {
	SendSMS(ctx context.Context, to, text string) error
}

// TenantContacts resolves where a tenant wants its alerts.
type TenantContacts interface {
	Settings(ctx context.Context, tenantID uuid.UUID) (*conversation.TenantSettings, error)
}

// Notifier implements the operator alert fan-out. Email and SMS go out
// concurrently; each failure is logged on its own and neither blocks the
// other.
type Notifier struct {
	tenants TenantContacts
	email   EmailSender
	sms     SMSSender
	log     *logger.Logger
}

// NewNotifier creates the notifier. email or sms may be nil when the channel
// is not configured.
func NewNotifier(tenants TenantContacts, email EmailSender, sms SMSSender, log *logger.Logger) *Notifier {
	return &Notifier{tenants: tenants, email: email, sms: sms, log: log}
}

// NotifyOverride alerts the tenant's operator that the bot paused itself for
// a contact. It swallows every failure; the activation already happened.
func (n *Notifier) NotifyOverride(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, reason, snippet string) {
	settings, err := n.tenants.Settings(ctx, tenantID)
	if err != nil {
		n.log.Error("override alert: tenant lookup failed", "error", err)
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(notifyCtx)

	if n.email != nil && settings.NotifyEmail != "" {
		g.Go(func() error {
			if err := n.email.SendOverrideAlert(gctx, settings.NotifyEmail, string(canal), contact, reason, snippet); err != nil {
				n.log.Error("override alert email failed", "error", err)
			}
			return nil
		})
	}

	if n.sms != nil && settings.NotifyPhone != "" {
		text := fmt.Sprintf("Cliente %s (%s) necesita atención: %s", contact, canal, reason)
		g.Go(func() error {
			if err := n.sms.SendSMS(gctx, settings.NotifyPhone, text); err != nil {
				n.log.Error("override alert sms failed", "error", err)
			}
			return nil
		})
	}

	_ = g.Wait()
}
