package conversation

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
	"github.com/lrz80/chatbot-backend-sub001/platform/phone"
)

// AwaitingFieldGate resolves a pending free-text expectation: the server is
// waiting for the next message to be a specific structured value.
type AwaitingFieldGate struct {
	clients ClientStore
	log     *logger.Logger
}

// NewAwaitingFieldGate creates the awaiting-field gate.
func NewAwaitingFieldGate(clients ClientStore, log *logger.Logger) *AwaitingFieldGate {
	return &AwaitingFieldGate{clients: clients, log: log}
}

func (g *AwaitingFieldGate) Name() string { return "awaiting_field" }

func (g *AwaitingFieldGate) Check(ctx context.Context, turn *Turn) (GateResult, error) {
	client := turn.Client
	if client.AwaitingField == "" {
		return Continue(), nil
	}

	// Expired expectations are treated as absent and cleared lazily.
	if !client.AwaitingActive(turn.Now) {
		if err := g.clients.ClearAwaiting(ctx, turn.TenantID, turn.Canal, turn.Contact); err != nil {
			g.log.DatabaseError("clientes.clear_awaiting", err)
		}
		client.AwaitingField = ""
		client.AwaitingUpdatedAt = nil
		return Continue(), nil
	}

	text := strings.TrimSpace(turn.Text)

	// Empty deliveries (read receipts and the like) must not re-prompt.
	if text == "" {
		return Silence("empty_message_while_awaiting"), nil
	}

	if isEscapePhrase(text) {
		if err := g.clients.ClearAwaiting(ctx, turn.TenantID, turn.Canal, turn.Contact); err != nil {
			return GateResult{}, err
		}
		client.AwaitingField = ""
		return Continue(), nil
	}

	value, ok := validateAwaitingInput(client.AwaitingPayload.Kind, text)
	if !ok {
		// The expectation stays pending; ask for a compliant answer again.
		return Reply(retryPrompt(client, turn.Lang)), nil
	}

	if err := g.clients.ClearAwaiting(ctx, turn.TenantID, turn.Canal, turn.Contact); err != nil {
		return GateResult{}, err
	}

	field := client.AwaitingField
	client.AwaitingField = ""

	return ContinueWith(&StateTransition{
		Flow:  client.AwaitingPayload.Flow,
		Step:  client.AwaitingPayload.Step,
		Patch: ContextPatch{Captured: map[string]string{field: value}},
	}), nil
}

var escapePhrases = []string{
	"cancelar", "cancela", "olvidalo", "dejalo", "mejor no", "salir",
	"cancel", "forget it", "never mind", "nevermind", "skip",
}

func isEscapePhrase(text string) bool {
	normalized := strings.Trim(normalizeText(text), "!. ")
	for _, phrase := range escapePhrases {
		if normalized == phrase {
			return true
		}
	}
	return false
}

// validateAwaitingInput checks the answer against the expected kind and
// returns the canonical value on success.
func validateAwaitingInput(kind, text string) (string, bool) {
	switch kind {
	case "email":
		if email := emailPattern.FindString(text); email != "" {
			return strings.ToLower(email), true
		}
		return "", false
	case "phone":
		normalized := phone.NormalizeE164(text)
		if phone.IsPlausible(normalized) {
			return normalized, true
		}
		return "", false
	case "number":
		cleaned := strings.NewReplacer(",", "", "$", "", " ", "").Replace(text)
		if _, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return cleaned, true
		}
		return "", false
	case "date":
		for _, layout := range []string{"2006-01-02", "02/01/2006", "02-01-2006", "2/1/2006"} {
			if parsed, err := time.Parse(layout, text); err == nil {
				return parsed.Format("2006-01-02"), true
			}
		}
		return "", false
	default:
		if utf8.RuneCountInString(strings.TrimSpace(text)) >= 2 {
			return strings.TrimSpace(text), true
		}
		return "", false
	}
}

func retryPrompt(client *ClientRecord, lang string) string {
	if prompt := strings.TrimSpace(client.AwaitingPayload.Prompt); prompt != "" {
		return prompt
	}

	if strings.HasPrefix(lang, "en") {
		switch client.AwaitingPayload.Kind {
		case "email":
			return "That doesn't look like a valid email. Could you send it again?"
		case "phone":
			return "That doesn't look like a valid phone number. Could you send it again?"
		case "number":
			return "I need a number there. Could you try again?"
		case "date":
			return "I need a date (for example 2026-09-15). Could you try again?"
		}
		return "I didn't catch that. Could you answer again?"
	}

	switch client.AwaitingPayload.Kind {
	case "email":
		return "Ese correo no parece válido. ¿Me lo puedes enviar de nuevo?"
	case "phone":
		return "Ese teléfono no parece válido. ¿Me lo puedes enviar de nuevo?"
	case "number":
		return "Necesito un número. ¿Lo intentas de nuevo?"
	case "date":
		return "Necesito una fecha (por ejemplo 2026-09-15). ¿Lo intentas de nuevo?"
	}
	return "No entendí tu respuesta. ¿Me la puedes repetir?"
}
