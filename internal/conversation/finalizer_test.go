package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newFinalizerTurn() (*Turn, *State) {
	state := &State{TenantID: uuid.New(), Canal: CanalWhatsApp, Contact: "+15550001111"}
	turn := &Turn{
		InboundMessage: InboundMessage{
			TenantID:  state.TenantID,
			Canal:     CanalWhatsApp,
			Contact:   "+15550001111",
			MessageID: "wamid.42",
			Text:      "cuanto cuesta el corte?",
		},
		Now:    time.Now(),
		State:  state,
		Client: &ClientRecord{},
	}
	return turn, state
}

func TestFinalizeSendFailureLeavesStateUntouched(t *testing.T) {
	transport := &fakeTransport{err: errors.New("channel rejected")}
	states := &fakeStateStore{}
	messages := &fakeMessageStore{}
	memory := &fakeMemoryStore{}
	finalizer := NewFinalizer(transport, states, messages, memory, testLogger())

	turn, _ := newFinalizerTurn()
	turn.Pending = []*StateTransition{{Flow: "intake"}}

	err := finalizer.Finalize(context.Background(), turn, Reply("hola"), "hola", SourceGenerator)
	if err == nil {
		t.Fatalf("expected send error")
	}
	if states.saved != nil {
		t.Fatalf("state must not be saved after a failed send")
	}
	if len(messages.inserted) != 0 {
		t.Fatalf("assistant message must not be recorded after a failed send")
	}
	if len(memory.userTexts) != 0 {
		t.Fatalf("memory must not be appended after a failed send")
	}
	if turn.State.ActiveFlow != "" {
		t.Fatalf("pending transition applied despite failed send")
	}
}

func TestFinalizeAppliesTransitionsAndPersists(t *testing.T) {
	transport := &fakeTransport{}
	states := &fakeStateStore{}
	messages := &fakeMessageStore{}
	memory := &fakeMemoryStore{}
	finalizer := NewFinalizer(transport, states, messages, memory, testLogger())

	turn, state := newFinalizerTurn()
	turn.Pending = []*StateTransition{{Patch: ContextPatch{ThreadLang: StrPtr("es")}}}

	result := Reply("El corte cuesta $50.").
		WithIntent(IntentPrecio).
		WithTransition(&StateTransition{Flow: "intake", Step: "offer"})

	if err := finalizer.Finalize(context.Background(), turn, result, "El corte cuesta $50.", SourceMatcher); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(transport.sent) != 1 {
		t.Fatalf("expected one send, got %d", len(transport.sent))
	}
	if transport.sent[0].MessageID != "wamid.42:bot" {
		t.Fatalf("assistant message id must derive from the inbound id, got %q", transport.sent[0].MessageID)
	}

	if state.ActiveFlow != "intake" || state.ActiveStep != "offer" {
		t.Fatalf("result transition not applied: %+v", state)
	}
	if state.Context.ThreadLang != "es" {
		t.Fatalf("pending transition not applied: %+v", state.Context)
	}
	if state.Context.LastIntent != IntentPrecio {
		t.Fatalf("last intent not recorded: %q", state.Context.LastIntent)
	}
	if state.Context.LastReplySource != SourceMatcher {
		t.Fatalf("reply source not recorded: %q", state.Context.LastReplySource)
	}
	if state.Context.LastBotText != "El corte cuesta $50." {
		t.Fatalf("bot snippet not recorded: %q", state.Context.LastBotText)
	}

	if states.saved == nil {
		t.Fatalf("state not saved")
	}
	if len(messages.inserted) != 1 || messages.inserted[0].rol != "assistant" {
		t.Fatalf("assistant message not recorded: %+v", messages.inserted)
	}
	if messages.inserted[0].messageID != "wamid.42:bot" {
		t.Fatalf("assistant row id mismatch: %q", messages.inserted[0].messageID)
	}
	if len(memory.userTexts) != 1 || memory.botTexts[0] != "El corte cuesta $50." {
		t.Fatalf("memory not appended: %+v", memory.botTexts)
	}
}

func TestFinalizePersistenceFailureIsSwallowed(t *testing.T) {
	transport := &fakeTransport{}
	states := &fakeStateStore{saveErr: errors.New("db down")}
	messages := &fakeMessageStore{}
	memory := &fakeMemoryStore{err: errors.New("db down")}
	finalizer := NewFinalizer(transport, states, messages, memory, testLogger())

	turn, _ := newFinalizerTurn()

	// The customer already has the reply; the turn must not be retried.
	if err := finalizer.Finalize(context.Background(), turn, Reply("hola"), "hola", SourceGate); err != nil {
		t.Fatalf("persistence failure must not fail the turn: %v", err)
	}
}

func TestFinalizeServiceAnchor(t *testing.T) {
	turnFor := func(state *State) *Turn {
		turn, _ := newFinalizerTurn()
		turn.State = state
		return turn
	}

	result := ReplyFacts(map[string]string{"SERVICE": "corte premium"})

	state := &State{}
	finalizer := NewFinalizer(&fakeTransport{}, &fakeStateStore{}, &fakeMessageStore{}, &fakeMemoryStore{}, testLogger())
	if err := finalizer.Finalize(context.Background(), turnFor(state), result, "claro", SourceGenerator); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Context.LastService != "corte premium" {
		t.Fatalf("anchor not captured: %q", state.Context.LastService)
	}

	// Pending disambiguation blocks the anchor.
	state = &State{Context: StateContext{PendingOptions: []string{"corte", "tinte"}}}
	if err := finalizer.Finalize(context.Background(), turnFor(state), result, "claro", SourceGenerator); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Context.LastService != "" {
		t.Fatalf("anchor must not move while options are pending")
	}

	// A booking loop owns the subject.
	state = &State{ActiveFlow: "booking"}
	if err := finalizer.Finalize(context.Background(), turnFor(state), result, "claro", SourceGenerator); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Context.LastService != "" {
		t.Fatalf("anchor must not move inside a booking loop")
	}
}
