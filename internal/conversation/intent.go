package conversation

import (
	"context"
	"strings"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// Canonical intents. Every classifier label and keyword alias collapses into
// one of these before anything downstream sees it.
const (
	IntentPagar     = "pagar"
	IntentAgendar   = "agendar"
	IntentPrecio    = "precio"
	IntentUbicacion = "ubicacion"
	IntentHorario   = "horario"
	IntentComprar   = "comprar"
	IntentInfo      = "informacion"
	IntentSoporte   = "soporte"
	IntentFAQ       = "faq"
	IntentPoliticas = "politicas"
	IntentGiftCard  = "gift_card"
	IntentSaludo    = "saludo"
	IntentGracias   = "gracias"
)

// intentAliases maps raw classifier labels and common variants onto the
// canonical intent set.
var intentAliases = map[string]string{
	"pago":              IntentPagar,
	"payment":           IntentPagar,
	"pay":               IntentPagar,
	"reservar":          IntentAgendar,
	"reserva":           IntentAgendar,
	"cita":              IntentAgendar,
	"agenda":            IntentAgendar,
	"booking":           IntentAgendar,
	"appointment":       IntentAgendar,
	"schedule":          IntentAgendar,
	"precios":           IntentPrecio,
	"costo":             IntentPrecio,
	"costos":            IntentPrecio,
	"price":             IntentPrecio,
	"pricing":           IntentPrecio,
	"direccion":         IntentUbicacion,
	"location":          IntentUbicacion,
	"address":           IntentUbicacion,
	"horarios":          IntentHorario,
	"hours":             IntentHorario,
	"compra":            IntentComprar,
	"buy":               IntentComprar,
	"purchase":          IntentComprar,
	"info":              IntentInfo,
	"information":       IntentInfo,
	"ayuda":             IntentSoporte,
	"support":           IntentSoporte,
	"help":              IntentSoporte,
	"pregunta":          IntentFAQ,
	"question":          IntentFAQ,
	"politica":          IntentPoliticas,
	"policies":          IntentPoliticas,
	"policy":            IntentPoliticas,
	"giftcard":          IntentGiftCard,
	"gift":              IntentGiftCard,
	"tarjeta_regalo":    IntentGiftCard,
	"tarjeta de regalo": IntentGiftCard,
	"hola":              IntentSaludo,
	"greeting":          IntentSaludo,
	"hello":             IntentSaludo,
	"thanks":            IntentGracias,
	"agradecimiento":    IntentGracias,
}

// CanonicalIntent collapses a raw label into the canonical set. Unknown
// labels pass through normalized so new classifier outputs degrade gracefully.
func CanonicalIntent(raw string) string {
	normalized := strings.ReplaceAll(normalizeText(raw), "-", "_")
	if canonical, ok := intentAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// directIntents are actionable enough that a high-scoring matcher hit for a
// different intent must not override them.
var directIntents = map[string]bool{
	IntentPagar:     true,
	IntentAgendar:   true,
	IntentComprar:   true,
	IntentPrecio:    true,
	IntentUbicacion: true,
}

// salesRelevantIntents mark a turn as commercially meaningful for the sales
// record and follow-up scheduling.
var salesRelevantIntents = map[string]bool{
	IntentPagar:    true,
	IntentAgendar:  true,
	IntentPrecio:   true,
	IntentComprar:  true,
	IntentGiftCard: true,
}

// SalesRelevant reports whether the intent counts toward sales intelligence.
func SalesRelevant(intent string) bool {
	return salesRelevantIntents[intent]
}

// IntentService wraps the external classifier with the short-circuits and
// canonicalization the pipeline depends on.
type IntentService struct {
	classifier Classifier
	log        *logger.Logger
}

// NewIntentService creates the intent service.
func NewIntentService(classifier Classifier, log *logger.Logger) *IntentService {
	return &IntentService{classifier: classifier, log: log}
}

// Classify resolves the canonical intent and interest level for the message.
// Pure greetings and thanks never reach the classifier. Classifier failures
// degrade to an empty intent at the default level.
func (s *IntentService) Classify(ctx context.Context, text string) DetectedIntent {
	if isGreetingOnly(text) {
		return DetectedIntent{Intent: IntentSaludo, Nivel: 1}
	}
	if isThanksOnly(text) {
		return DetectedIntent{Intent: IntentGracias, Nivel: 1}
	}

	if s.classifier == nil {
		return DetectedIntent{Nivel: defaultNivel}
	}

	detected, err := s.classifier.DetectIntent(ctx, text)
	if err != nil {
		s.log.Error("intent classification failed", "error", err)
		return DetectedIntent{Nivel: defaultNivel}
	}

	detected.Intent = CanonicalIntent(detected.Intent)
	if detected.Nivel <= 0 {
		detected.Nivel = defaultNivel
	}
	return detected
}

// defaultNivel is the interest level assumed when the classifier does not
// produce one.
const defaultNivel = 2
