package conversation

import (
	"context"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// paymentOverrideMinutes is the override window opened when a customer claims
// a completed payment and an operator must verify it.
const paymentOverrideMinutes = 5

// Facts emitted by the payment guard for downstream text generation.
const (
	FactEvent               = "EVENT"
	EventPaymentConfirmed   = "PAYMENT_CONFIRMED_BY_USER"
	EventPaymentLink        = "PAYMENT_LINK"
	EventPaymentLinkMissing = "PAYMENT_LINK_MISSING"
	EventCustomerData       = "CUSTOMER_DATA_CAPTURED"
)

// PaymentGuard handles the payment-confirmation handoff: it silences
// conversations already under verification, escalates payment claims to a
// human, serves the payment link on request, and captures customer details
// sent mid-payment.
type PaymentGuard struct {
	clients   ClientStore
	activator *OverrideActivator
	log       *logger.Logger
}

// NewPaymentGuard creates the payment guard.
func NewPaymentGuard(clients ClientStore, activator *OverrideActivator, log *logger.Logger) *PaymentGuard {
	return &PaymentGuard{clients: clients, activator: activator, log: log}
}

func (g *PaymentGuard) Name() string { return "payment_guard" }

func (g *PaymentGuard) Check(ctx context.Context, turn *Turn) (GateResult, error) {
	client := turn.Client

	// Mid-verification the operator owns the thread; say nothing.
	if client.Estado == EstadoPagoEnConfirmacion {
		return Silence("payment_confirmation_pending"), nil
	}

	if matchesPaymentConfirmation(turn.Text) {
		return g.handlePaymentClaim(ctx, turn)
	}

	if client.Estado == EstadoEsperandoPago && asksPaymentLink(turn.Text) {
		return g.handleLinkRequest(turn), nil
	}

	if details := ParseCustomerDetails(turn.Text); !details.Empty() {
		return g.handleCustomerDetails(ctx, turn, details)
	}

	return Continue(), nil
}

func (g *PaymentGuard) handlePaymentClaim(ctx context.Context, turn *Turn) (GateResult, error) {
	if err := g.clients.SetEstado(ctx, turn.TenantID, turn.Canal, turn.Contact, EstadoPagoEnConfirmacion); err != nil {
		return GateResult{}, err
	}
	turn.Client.Estado = EstadoPagoEnConfirmacion

	if _, err := g.activator.Activate(ctx, turn.TenantID, turn.Canal, turn.Contact,
		paymentOverrideMinutes, "payment_confirmation", g.Name(), turn.Text); err != nil {
		// The estado is already set; the next turn is silenced either way.
		g.log.Error("payment guard: override activation failed", "error", err)
	}

	return ReplyFacts(map[string]string{
		FactEvent: EventPaymentConfirmed,
	}).WithIntent(IntentPagar), nil
}

func (g *PaymentGuard) handleLinkRequest(turn *Turn) GateResult {
	link := ExtractPaymentLink(turn.PromptBase)
	if link == "" {
		return ReplyFacts(map[string]string{
			FactEvent: EventPaymentLinkMissing,
		}).WithIntent(IntentPagar)
	}

	return ReplyFacts(map[string]string{
		FactEvent:        EventPaymentLink,
		EventPaymentLink: link,
	}).WithIntent(IntentPagar)
}

func (g *PaymentGuard) handleCustomerDetails(ctx context.Context, turn *Turn, details CustomerDetails) (GateResult, error) {
	if err := g.clients.UpsertCustomerDetails(ctx, turn.TenantID, turn.Canal, turn.Contact, details); err != nil {
		return GateResult{}, err
	}
	if err := g.clients.SetEstado(ctx, turn.TenantID, turn.Canal, turn.Contact, EstadoEsperandoPago); err != nil {
		return GateResult{}, err
	}
	turn.Client.Estado = EstadoEsperandoPago

	facts := map[string]string{FactEvent: EventCustomerData}
	if details.Nombre != "" {
		facts["CUSTOMER_NAME"] = details.Nombre
	}
	if details.Email != "" {
		facts["CUSTOMER_EMAIL"] = details.Email
	}
	if details.Telefono != "" {
		facts["CUSTOMER_PHONE"] = details.Telefono
	}
	if details.Pais != "" {
		facts["CUSTOMER_COUNTRY"] = details.Pais
	}

	return ReplyFacts(facts).WithIntent(IntentPagar), nil
}
