package conversation

import (
	"context"
	"strings"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// Matcher acceptance thresholds. A hit below minMatchScore is ignored; a hit
// for a different intent only overrides a direct classifier intent when it
// clears directOverrideScore.
const (
	minMatchScore       = 0.55
	directOverrideScore = 0.85
)

// FastPath answers common questions from tenant-configured material without
// invoking the reply generator.
type FastPath struct {
	matcher  IntentMatcher
	faqs     FAQStore
	cta      *CTAResolver
	composer Composer
	log      *logger.Logger
}

// NewFastPath creates the fast-path resolver. matcher and composer may be nil
// when the corresponding external services are not configured.
func NewFastPath(matcher IntentMatcher, faqs FAQStore, cta *CTAResolver, composer Composer, log *logger.Logger) *FastPath {
	return &FastPath{matcher: matcher, faqs: faqs, cta: cta, composer: composer, log: log}
}

// TryMatcher consults the external answer matcher. The bool reports whether
// the turn was handled. Matcher failures are logged and fall through.
func (f *FastPath) TryMatcher(ctx context.Context, turn *Turn, detected DetectedIntent) (GateResult, bool) {
	if f.matcher == nil {
		return GateResult{}, false
	}

	match, err := f.matcher.Match(ctx, turn.TenantID, turn.Text)
	if err != nil {
		f.log.Error("intent matcher failed", "error", err)
		return GateResult{}, false
	}
	if match == nil || match.Answer == "" || match.Score < minMatchScore {
		return GateResult{}, false
	}

	matchIntent := CanonicalIntent(match.Intent)

	// A direct intent ("pagar", "agendar") stays authoritative unless the
	// matcher is near-certain about something else.
	if directIntents[detected.Intent] && matchIntent != detected.Intent && match.Score < directOverrideScore {
		return GateResult{}, false
	}

	intent := detected.Intent
	if matchIntent != "" {
		intent = matchIntent
	}

	text := match.Answer
	if link := f.cta.Resolve(ctx, turn.TenantID, turn.Canal, []string{intent}); link != nil {
		text = AppendCTA(text, link)
	}

	return Reply(text).WithIntent(intent), true
}

// multiIntentKeywords vote for the intents a single message touches.
var multiIntentKeywords = map[string][]string{
	IntentInfo:      {"informacion", "mas detalles", "que incluye", "que servicios", "more info", "tell me more", "what do you offer"},
	IntentPrecio:    {"precio", "precios", "costo", "cuanto cuesta", "cuanto vale", "tarifa", "price", "cost", "how much"},
	IntentHorario:   {"horario", "horarios", "a que hora", "abren", "cierran", "hours", "open", "close"},
	IntentUbicacion: {"ubicacion", "direccion", "donde estan", "donde queda", "como llego", "location", "address", "where are you"},
	IntentAgendar:   {"cita", "reservar", "reserva", "agendar", "appointment", "book", "schedule"},
	IntentComprar:   {"comprar", "quiero comprar", "lo llevo", "buy", "purchase", "i'll take it"},
	IntentSoporte:   {"soporte", "ayuda", "tengo un problema", "no funciona", "reclamo", "support", "help", "complaint"},
	IntentFAQ:       {"pregunta frecuente", "preguntas frecuentes", "una pregunta", "una duda", "tengo una consulta", "faq"},
	IntentPoliticas: {"politica", "cancelacion", "reembolso", "devolucion", "policy", "refund", "cancellation"},
	IntentGiftCard:  {"gift card", "giftcard", "tarjeta de regalo", "certificado de regalo"},
}

// multiIntentOrder fixes the order answer parts are stitched in.
var multiIntentOrder = []string{
	IntentInfo, IntentPrecio, IntentHorario, IntentUbicacion, IntentAgendar,
	IntentComprar, IntentSoporte, IntentFAQ, IntentPoliticas, IntentGiftCard,
}

// detectMultiIntent returns the distinct intents the message's keywords vote
// for, in stitch order.
func detectMultiIntent(text string) []string {
	normalized := normalizeText(text)

	var hits []string
	for _, intent := range multiIntentOrder {
		for _, keyword := range multiIntentKeywords[intent] {
			if strings.Contains(normalized, keyword) {
				hits = append(hits, intent)
				break
			}
		}
	}
	return hits
}

// TryMultiIntent answers messages that ask several things at once from the
// tenant FAQ material. It only fires when at least two distinct intents are
// present and at least one has configured material; otherwise the turn falls
// through to the generator.
func (f *FastPath) TryMultiIntent(ctx context.Context, turn *Turn) (GateResult, bool) {
	intents := detectMultiIntent(turn.Text)
	if len(intents) < 2 {
		return GateResult{}, false
	}

	var (
		parts    []string
		answered []string
	)
	for _, intent := range intents {
		answer, err := f.faqs.AnswerFor(ctx, turn.TenantID, intent)
		if err != nil {
			f.log.DatabaseError("faqs.answer_for", err)
			continue
		}
		if answer == "" {
			continue
		}
		parts = append(parts, answer)
		answered = append(answered, intent)
	}
	if len(parts) == 0 {
		return GateResult{}, false
	}

	text := f.compose(ctx, turn.Lang, parts)
	if link := f.cta.Resolve(ctx, turn.TenantID, turn.Canal, answered); link != nil {
		text = AppendCTA(text, link)
	}

	return Reply(text).WithIntent(answered[0]), true
}

// compose stitches the parts with the LLM composer when available, falling
// back to plain concatenation.
func (f *FastPath) compose(ctx context.Context, lang string, parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	if f.composer != nil {
		composed, err := f.composer.Compose(ctx, lang, parts)
		if err == nil && strings.TrimSpace(composed) != "" {
			return composed
		}
		if err != nil {
			f.log.Error("reply composition failed", "error", err)
		}
	}
	return strings.Join(parts, "\n\n")
}
