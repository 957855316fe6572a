package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newFastPath(matcher *fakeMatcher, faqs *fakeFAQStore, links *fakeLinkStore, composer Composer) *FastPath {
	var m IntentMatcher
	if matcher != nil {
		m = matcher
	}
	if faqs == nil {
		faqs = &fakeFAQStore{}
	}
	if links == nil {
		links = &fakeLinkStore{}
	}
	cta := NewCTAResolver(links, testLogger())
	return NewFastPath(m, faqs, cta, composer, testLogger())
}

func TestTryMatcherNilMatcherFallsThrough(t *testing.T) {
	fp := newFastPath(nil, nil, nil, nil)

	if _, ok := fp.TryMatcher(context.Background(), newGateTurn("precio?", nil), DetectedIntent{}); ok {
		t.Fatalf("nil matcher must fall through")
	}
}

func TestTryMatcherBelowThresholdFallsThrough(t *testing.T) {
	matcher := &fakeMatcher{result: &MatchResult{Intent: "precio", Answer: "Cuesta $50", Score: 0.40}}
	fp := newFastPath(matcher, nil, nil, nil)

	if _, ok := fp.TryMatcher(context.Background(), newGateTurn("cuanto cuesta?", nil), DetectedIntent{}); ok {
		t.Fatalf("low-score match must fall through")
	}
}

func TestTryMatcherErrorFallsThrough(t *testing.T) {
	matcher := &fakeMatcher{err: errors.New("matcher down")}
	fp := newFastPath(matcher, nil, nil, nil)

	if _, ok := fp.TryMatcher(context.Background(), newGateTurn("cuanto cuesta?", nil), DetectedIntent{}); ok {
		t.Fatalf("matcher failure must fall through")
	}
}

func TestTryMatcherProtectsDirectIntent(t *testing.T) {
	matcher := &fakeMatcher{result: &MatchResult{Intent: "precio", Answer: "Cuesta $50", Score: 0.70}}
	fp := newFastPath(matcher, nil, nil, nil)

	// The classifier saw an actionable payment intent; a merely-decent match
	// for a different intent must not hijack the turn.
	if _, ok := fp.TryMatcher(context.Background(), newGateTurn("quiero pagar lo del corte", nil), DetectedIntent{Intent: IntentPagar, Nivel: 3}); ok {
		t.Fatalf("mid-score match must not override a direct intent")
	}

	matcher.result.Score = 0.90
	result, ok := fp.TryMatcher(context.Background(), newGateTurn("quiero pagar lo del corte", nil), DetectedIntent{Intent: IntentPagar, Nivel: 3})
	if !ok {
		t.Fatalf("near-certain match should win")
	}
	if result.Intent != IntentPrecio {
		t.Fatalf("expected matcher intent to take over, got %q", result.Intent)
	}
}

func TestTryMatcherProtectsAllDirectIntents(t *testing.T) {
	for _, direct := range []string{IntentPagar, IntentAgendar, IntentComprar, IntentPrecio, IntentUbicacion} {
		matcher := &fakeMatcher{result: &MatchResult{Intent: "faq", Answer: "Consulta nuestra pagina.", Score: 0.70}}
		fp := newFastPath(matcher, nil, nil, nil)

		if _, ok := fp.TryMatcher(context.Background(), newGateTurn("una consulta", nil), DetectedIntent{Intent: direct, Nivel: 3}); ok {
			t.Fatalf("mid-score faq match must not override direct intent %s", direct)
		}
	}
}

func TestTryMatcherAppendsCTA(t *testing.T) {
	matcher := &fakeMatcher{result: &MatchResult{Intent: "precio", Answer: "El corte cuesta $50.", Score: 0.80}}
	links := &fakeLinkStore{links: map[string]*CTALink{
		IntentPrecio: {Label: "Reserva aquí", URL: "https://studioluna.example.com/book"},
	}}
	fp := newFastPath(matcher, nil, links, nil)

	result, ok := fp.TryMatcher(context.Background(), newGateTurn("cuanto cuesta el corte?", nil), DetectedIntent{Intent: IntentPrecio})
	if !ok {
		t.Fatalf("expected matcher hit")
	}
	if !strings.Contains(result.Text, "https://studioluna.example.com/book") {
		t.Fatalf("CTA not appended: %q", result.Text)
	}
	if !strings.HasPrefix(result.Text, "El corte cuesta $50.") {
		t.Fatalf("answer body lost: %q", result.Text)
	}
}

func TestDetectMultiIntentOrdering(t *testing.T) {
	intents := detectMultiIntent("¿Cuánto cuesta y a qué hora abren? ¿Dónde están?")
	want := []string{IntentPrecio, IntentHorario, IntentUbicacion}
	if len(intents) != len(want) {
		t.Fatalf("expected %v, got %v", want, intents)
	}
	for i := range want {
		if intents[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, intents)
		}
	}
}

func TestDetectMultiIntentCoversAllCandidates(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"necesito soporte y quiero comprar el paquete", []string{IntentComprar, IntentSoporte}},
		{"tengo una consulta sobre la politica de reembolso", []string{IntentFAQ, IntentPoliticas}},
		{"me das mas detalles y el precio?", []string{IntentInfo, IntentPrecio}},
		{"quiero una gift card y saber el horario", []string{IntentHorario, IntentGiftCard}},
	}

	for _, tc := range cases {
		got := detectMultiIntent(tc.text)
		if len(got) != len(tc.want) {
			t.Fatalf("detectMultiIntent(%q) = %v, want %v", tc.text, got, tc.want)
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("detectMultiIntent(%q) = %v, want %v", tc.text, got, tc.want)
			}
		}
	}
}

func TestTryMultiIntentAnswersSupportPlusPurchase(t *testing.T) {
	faqs := &fakeFAQStore{answers: map[string]string{
		IntentSoporte: "Escríbenos al chat de soporte.",
		IntentComprar: "Puedes comprar desde nuestro catálogo.",
	}}
	fp := newFastPath(nil, faqs, nil, nil)

	result, ok := fp.TryMultiIntent(context.Background(), newGateTurn("necesito soporte y quiero comprar el paquete", nil))
	if !ok {
		t.Fatalf("support plus purchase must be answered by the fast path")
	}
	if !strings.Contains(result.Text, "soporte") || !strings.Contains(result.Text, "catálogo") {
		t.Fatalf("answers not stitched: %q", result.Text)
	}
	if result.Intent != IntentComprar {
		t.Fatalf("expected first answered intent comprar, got %q", result.Intent)
	}
}

func TestTryMultiIntentRequiresTwoIntents(t *testing.T) {
	fp := newFastPath(nil, &fakeFAQStore{answers: map[string]string{IntentPrecio: "Desde $50."}}, nil, nil)

	if _, ok := fp.TryMultiIntent(context.Background(), newGateTurn("cuanto cuesta?", nil)); ok {
		t.Fatalf("single intent must fall through to the generator")
	}
}

func TestTryMultiIntentRequiresMaterial(t *testing.T) {
	fp := newFastPath(nil, &fakeFAQStore{}, nil, nil)

	if _, ok := fp.TryMultiIntent(context.Background(), newGateTurn("cuanto cuesta y donde estan?", nil)); ok {
		t.Fatalf("no configured material must fall through")
	}
}

func TestTryMultiIntentStitchesAnswers(t *testing.T) {
	faqs := &fakeFAQStore{answers: map[string]string{
		IntentPrecio:    "El corte cuesta $50.",
		IntentUbicacion: "Estamos en la Calle 10 #5-23.",
	}}
	fp := newFastPath(nil, faqs, nil, nil)

	result, ok := fp.TryMultiIntent(context.Background(), newGateTurn("cuanto cuesta y donde estan?", nil))
	if !ok {
		t.Fatalf("expected multi-intent answer")
	}
	if !strings.Contains(result.Text, "El corte cuesta $50.") || !strings.Contains(result.Text, "Calle 10 #5-23") {
		t.Fatalf("answers not stitched: %q", result.Text)
	}
	if result.Intent != IntentPrecio {
		t.Fatalf("expected first answered intent, got %q", result.Intent)
	}
}

func TestTryMultiIntentUsesComposer(t *testing.T) {
	faqs := &fakeFAQStore{answers: map[string]string{
		IntentPrecio:  "El corte cuesta $50.",
		IntentHorario: "Abrimos de 9 a 19.",
	}}
	composer := &fakeComposer{text: "El corte cuesta $50 y abrimos de 9 a 19."}
	fp := newFastPath(nil, faqs, nil, composer)

	result, ok := fp.TryMultiIntent(context.Background(), newGateTurn("precio y horario?", nil))
	if !ok {
		t.Fatalf("expected multi-intent answer")
	}
	if result.Text != "El corte cuesta $50 y abrimos de 9 a 19." {
		t.Fatalf("composer output not used: %q", result.Text)
	}
}

func TestCTAResolverPriority(t *testing.T) {
	links := &fakeLinkStore{links: map[string]*CTALink{
		IntentPagar:  {URL: "https://pay.example.com"},
		IntentPrecio: {URL: "https://prices.example.com"},
	}}
	resolver := NewCTAResolver(links, testLogger())

	link := resolver.Resolve(context.Background(), newGateTurn("", nil).TenantID, CanalWhatsApp, []string{IntentPagar, IntentPrecio})
	if link == nil || link.URL != "https://prices.example.com" {
		t.Fatalf("precio outranks pagar in CTA priority, got %+v", link)
	}
}

func TestAppendCTASkipsDuplicateURL(t *testing.T) {
	link := &CTALink{Label: "Paga aquí", URL: "https://pay.example.com"}
	text := "Usa este enlace: https://pay.example.com"

	if got := AppendCTA(text, link); got != text {
		t.Fatalf("duplicate URL must not be re-appended: %q", got)
	}
}
