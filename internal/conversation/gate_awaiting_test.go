package conversation

import (
	"context"
	"testing"
	"time"
)

func awaitingClient(kind, field string, age time.Duration) *ClientRecord {
	updated := time.Now().Add(-age)
	return &ClientRecord{
		AwaitingField:     field,
		AwaitingUpdatedAt: &updated,
		AwaitingPayload:   AwaitingPayload{Kind: kind, Flow: "intake", Step: "confirm"},
	}
}

func TestAwaitingGateNoExpectationContinues(t *testing.T) {
	gate := NewAwaitingFieldGate(&fakeClientStore{}, testLogger())

	result, err := gate.Check(context.Background(), newGateTurn("hola", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeContinue {
		t.Fatalf("expected continue, got %+v", result)
	}
}

func TestAwaitingGateExpiredExpectationClears(t *testing.T) {
	clients := &fakeClientStore{}
	gate := NewAwaitingFieldGate(clients, testLogger())

	turn := newGateTurn("quiero ver precios", awaitingClient("email", "email", AwaitingTTL+time.Minute))

	result, err := gate.Check(context.Background(), turn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeContinue {
		t.Fatalf("expired expectation must continue, got %+v", result)
	}
	if !clients.clearedAwaiting {
		t.Fatalf("expired expectation was not cleared")
	}
}

func TestAwaitingGateEmptyMessageStaysSilent(t *testing.T) {
	gate := NewAwaitingFieldGate(&fakeClientStore{}, testLogger())

	turn := newGateTurn("   ", awaitingClient("email", "email", time.Minute))

	result, err := gate.Check(context.Background(), turn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeSilence || result.Reason != "empty_message_while_awaiting" {
		t.Fatalf("empty delivery must not re-prompt, got %+v", result)
	}
}

func TestAwaitingGateEscapePhraseReleases(t *testing.T) {
	clients := &fakeClientStore{}
	gate := NewAwaitingFieldGate(clients, testLogger())

	turn := newGateTurn("cancelar", awaitingClient("email", "email", time.Minute))

	result, err := gate.Check(context.Background(), turn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeContinue {
		t.Fatalf("escape phrase must continue, got %+v", result)
	}
	if !clients.clearedAwaiting {
		t.Fatalf("escape phrase did not clear the expectation")
	}
	if result.Transition != nil {
		t.Fatalf("escape must not capture a value")
	}
}

func TestAwaitingGateInvalidInputReprompts(t *testing.T) {
	clients := &fakeClientStore{}
	gate := NewAwaitingFieldGate(clients, testLogger())

	client := awaitingClient("email", "email", time.Minute)
	client.AwaitingPayload.Prompt = "¿Me compartes tu correo?"
	turn := newGateTurn("mi correo es ana arroba ejemplo", client)

	result, err := gate.Check(context.Background(), turn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeReply || result.Text != "¿Me compartes tu correo?" {
		t.Fatalf("expected retry prompt, got %+v", result)
	}
	if clients.clearedAwaiting {
		t.Fatalf("invalid input must keep the expectation pending")
	}
}

func TestAwaitingGateCapturesValidEmail(t *testing.T) {
	clients := &fakeClientStore{}
	gate := NewAwaitingFieldGate(clients, testLogger())

	turn := newGateTurn("es Ana.Torres@Example.com", awaitingClient("email", "email", time.Minute))

	result, err := gate.Check(context.Background(), turn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeContinue {
		t.Fatalf("captured value must continue, got %+v", result)
	}
	if result.Transition == nil {
		t.Fatalf("expected a transition carrying the captured value")
	}
	if result.Transition.Flow != "intake" || result.Transition.Step != "confirm" {
		t.Fatalf("transition target wrong: %+v", result.Transition)
	}
	if got := result.Transition.Patch.Captured["email"]; got != "ana.torres@example.com" {
		t.Fatalf("expected lowercased email, got %q", got)
	}
	if !clients.clearedAwaiting {
		t.Fatalf("captured value must clear the expectation")
	}
}

func TestValidateAwaitingInput(t *testing.T) {
	cases := []struct {
		kind  string
		text  string
		want  string
		valid bool
	}{
		{"number", "$1,200", "1200", true},
		{"number", "doce", "", false},
		{"date", "15/09/2026", "2026-09-15", true},
		{"date", "2026-09-15", "2026-09-15", true},
		{"date", "mañana", "", false},
		{"text", "Ana", "Ana", true},
		{"text", "a", "", false},
	}

	for _, tc := range cases {
		got, ok := validateAwaitingInput(tc.kind, tc.text)
		if ok != tc.valid {
			t.Fatalf("validateAwaitingInput(%q, %q) valid = %v, want %v", tc.kind, tc.text, ok, tc.valid)
		}
		if ok && got != tc.want {
			t.Fatalf("validateAwaitingInput(%q, %q) = %q, want %q", tc.kind, tc.text, got, tc.want)
		}
	}
}
