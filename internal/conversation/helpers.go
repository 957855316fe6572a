package conversation

import (
	"regexp"
	"strings"

	"github.com/lrz80/chatbot-backend-sub001/platform/phone"
)

// normalizeText lowercases and strips accented vowels so phrase matching is
// insensitive to how the customer typed ("ya pagué" vs "ya pague").
func normalizeText(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	)
	return replacer.Replace(lowered)
}

var paymentConfirmationPhrases = []string{
	"ya pague",
	"ya realice el pago",
	"ya hice el pago",
	"pago realizado",
	"acabo de pagar",
	"ya transferi",
	"hice la transferencia",
	"te mande el comprobante",
	"aqui esta el comprobante",
	"i paid",
	"i already paid",
	"just paid",
	"payment done",
	"payment sent",
}

var paymentNegationPhrases = []string{
	"no he pagado",
	"no pague",
	"no pude pagar",
	"aun no",
	"todavia no",
	"not yet",
	"haven't paid",
	"havent paid",
	"didn't pay",
	"didnt pay",
	"no puedo pagar",
}

// matchesPaymentConfirmation reports whether the message claims a completed
// payment. Negated forms ("no he pagado") must not match.
func matchesPaymentConfirmation(text string) bool {
	normalized := normalizeText(text)
	for _, phrase := range paymentNegationPhrases {
		if strings.Contains(normalized, phrase) {
			return false
		}
	}
	for _, phrase := range paymentConfirmationPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

var paymentLinkRequestPhrases = []string{
	"link de pago",
	"enlace de pago",
	"mandame el link",
	"enviame el link",
	"pasame el link",
	"como pago",
	"donde pago",
	"como puedo pagar",
	"payment link",
	"send me the link",
	"how do i pay",
	"where do i pay",
}

// asksPaymentLink reports whether the message asks how/where to pay.
func asksPaymentLink(text string) bool {
	normalized := normalizeText(text)
	for _, phrase := range paymentLinkRequestPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

var urlPattern = regexp.MustCompile(`https?://[^\s)>\]]+`)

var paymentURLMarkers = []string{
	"pago", "pagar", "pay", "checkout", "stripe", "mercadopago", "paypal", "billing",
}

// ExtractPaymentLink pulls the tenant's payment URL out of its prompt text.
// It prefers a URL whose address or surrounding line mentions payment; when
// none qualifies it returns empty rather than guessing an arbitrary URL.
func ExtractPaymentLink(promptBase string) string {
	for _, line := range strings.Split(promptBase, "\n") {
		urls := urlPattern.FindAllString(line, -1)
		if len(urls) == 0 {
			continue
		}
		normalizedLine := normalizeText(line)
		for _, url := range urls {
			candidate := strings.ToLower(url)
			for _, marker := range paymentURLMarkers {
				if strings.Contains(candidate, marker) || strings.Contains(normalizedLine, marker) {
					return strings.TrimRight(url, ".,;")
				}
			}
		}
	}
	return ""
}

var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern  = regexp.MustCompile(`\+?[0-9][0-9\s\-()]{6,}[0-9]`)
	labeledFields = regexp.MustCompile(`(?i)(nombre|name|pais|país|country)\s*[:=]\s*([^\n,;]+)`)
)

// ParseCustomerDetails extracts structured customer fields from free text.
// A parse only counts when it finds an email or phone; bare names are too
// ambiguous to act on.
func ParseCustomerDetails(text string) CustomerDetails {
	var details CustomerDetails

	if email := emailPattern.FindString(text); email != "" {
		details.Email = strings.ToLower(email)
	}

	withoutEmail := emailPattern.ReplaceAllString(text, " ")
	if raw := phonePattern.FindString(withoutEmail); raw != "" {
		normalized := phone.NormalizeE164(raw)
		if phone.IsPlausible(normalized) {
			details.Telefono = normalized
		}
	}

	if details.Email == "" && details.Telefono == "" {
		return CustomerDetails{}
	}

	for _, match := range labeledFields.FindAllStringSubmatch(text, -1) {
		value := strings.TrimSpace(match[2])
		switch normalizeText(match[1]) {
		case "nombre", "name":
			details.Nombre = value
		case "pais", "country":
			details.Pais = value
		}
	}

	return details
}

// YesNoAnswer is the outcome of parsing a yes/no reply.
type YesNoAnswer int

const (
	AnswerUnknown YesNoAnswer = iota
	AnswerYes
	AnswerNo
)

var yesTokens = map[string]bool{
	"si": true, "sí": true, "s": true, "claro": true, "dale": true,
	"ok": true, "okay": true, "va": true, "de acuerdo": true, "por supuesto": true,
	"yes": true, "y": true, "yeah": true, "yep": true, "sure": true, "correcto": true,
}

var noTokens = map[string]bool{
	"no": true, "n": true, "nop": true, "nope": true, "negativo": true,
	"no gracias": true, "mejor no": true, "not now": true, "ahora no": true,
}

// ParseYesNo classifies a reply as yes, no, or unknown. Only short, direct
// answers are accepted; anything longer is unknown and gets re-asked.
func ParseYesNo(text string) YesNoAnswer {
	normalized := normalizeText(text)
	normalized = strings.Trim(normalized, "!.¡¿? ")
	if yesTokens[normalized] {
		return AnswerYes
	}
	if noTokens[normalized] {
		return AnswerNo
	}
	return AnswerUnknown
}

var resumeBotPhrases = []string{
	"activar bot",
	"reanudar bot",
	"volver al bot",
	"resume bot",
	"bot on",
}

// isResumeBotPhrase reports whether the customer explicitly asked to talk to
// the bot again while a human override is active.
func isResumeBotPhrase(text string) bool {
	normalized := normalizeText(text)
	if normalized == "bot" {
		return true
	}
	for _, phrase := range resumeBotPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

var greetingTokens = map[string]bool{
	"hola": true, "buenas": true, "buenos dias": true, "buenas tardes": true,
	"buenas noches": true, "hey": true, "hi": true, "hello": true, "ola": true,
	"que tal": true, "saludos": true,
}

var thanksTokens = map[string]bool{
	"gracias": true, "muchas gracias": true, "mil gracias": true, "thanks": true,
	"thank you": true, "ty": true, "genial gracias": true, "ok gracias": true,
	"perfecto gracias": true,
}

// isGreetingOnly reports whether the message is just a greeting.
func isGreetingOnly(text string) bool {
	normalized := strings.Trim(normalizeText(text), "!.¡¿? ")
	return greetingTokens[normalized]
}

// isThanksOnly reports whether the message is just a thank-you.
func isThanksOnly(text string) bool {
	normalized := strings.Trim(normalizeText(text), "!.¡¿? ")
	return thanksTokens[normalized]
}
