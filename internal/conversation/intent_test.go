package conversation

import (
	"context"
	"errors"
	"testing"
)

func TestCanonicalIntent(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"pago", IntentPagar},
		{"Booking", IntentAgendar},
		{"PRICE", IntentPrecio},
		{"gift-card", IntentGiftCard},
		{"tarjeta de regalo", IntentGiftCard},
		{"agendar", IntentAgendar},
		{"algo_nuevo", "algo_nuevo"},
	}

	for _, tc := range cases {
		if got := CanonicalIntent(tc.raw); got != tc.want {
			t.Fatalf("CanonicalIntent(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestSalesRelevant(t *testing.T) {
	for _, intent := range []string{IntentPagar, IntentAgendar, IntentPrecio, IntentComprar, IntentGiftCard} {
		if !SalesRelevant(intent) {
			t.Fatalf("%s should be sales relevant", intent)
		}
	}
	for _, intent := range []string{IntentSaludo, IntentGracias, IntentHorario, ""} {
		if SalesRelevant(intent) {
			t.Fatalf("%s should not be sales relevant", intent)
		}
	}
}

func TestClassifyGreetingShortCircuits(t *testing.T) {
	classifier := &fakeClassifier{detected: DetectedIntent{Intent: "precio", Nivel: 3}}
	svc := NewIntentService(classifier, testLogger())

	detected := svc.Classify(context.Background(), "¡Hola!")
	if detected.Intent != IntentSaludo || detected.Nivel != 1 {
		t.Fatalf("greeting short-circuit failed: %+v", detected)
	}
	if classifier.called {
		t.Fatalf("greeting must never reach the classifier")
	}
}

func TestClassifyThanksShortCircuits(t *testing.T) {
	classifier := &fakeClassifier{}
	svc := NewIntentService(classifier, testLogger())

	detected := svc.Classify(context.Background(), "muchas gracias!")
	if detected.Intent != IntentGracias || detected.Nivel != 1 {
		t.Fatalf("thanks short-circuit failed: %+v", detected)
	}
	if classifier.called {
		t.Fatalf("thanks must never reach the classifier")
	}
}

func TestClassifyCanonicalizesAndDefaults(t *testing.T) {
	classifier := &fakeClassifier{detected: DetectedIntent{Intent: "Booking"}}
	svc := NewIntentService(classifier, testLogger())

	detected := svc.Classify(context.Background(), "quiero reservar una cita para el sabado")
	if detected.Intent != IntentAgendar {
		t.Fatalf("expected canonical agendar, got %q", detected.Intent)
	}
	if detected.Nivel != defaultNivel {
		t.Fatalf("missing nivel must default to %d, got %d", defaultNivel, detected.Nivel)
	}
}

func TestClassifyFailureDegrades(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("upstream timeout")}
	svc := NewIntentService(classifier, testLogger())

	detected := svc.Classify(context.Background(), "cuanto cuesta el paquete premium?")
	if detected.Intent != "" {
		t.Fatalf("failure must yield an empty intent, got %q", detected.Intent)
	}
	if detected.Nivel != defaultNivel {
		t.Fatalf("failure must yield the default nivel, got %d", detected.Nivel)
	}
}

func TestClassifyNilClassifier(t *testing.T) {
	svc := NewIntentService(nil, testLogger())

	detected := svc.Classify(context.Background(), "cuanto cuesta el paquete premium?")
	if detected.Intent != "" || detected.Nivel != defaultNivel {
		t.Fatalf("nil classifier must degrade cleanly, got %+v", detected)
	}
}
