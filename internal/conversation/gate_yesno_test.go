package conversation

import (
	"context"
	"testing"
)

func yesNoTurn(text string, onYes, onNo *StateTransition) *Turn {
	turn := newGateTurn(text, nil)
	turn.Lang = "es"
	turn.State.Context.AwaitingYesNo = true
	turn.State.Context.OnYes = onYes
	turn.State.Context.OnNo = onNo
	return turn
}

func TestYesNoGateNotAwaitingContinues(t *testing.T) {
	gate := NewYesNoGate(testLogger())

	result, err := gate.Check(context.Background(), newGateTurn("si", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeContinue {
		t.Fatalf("expected continue, got %+v", result)
	}
}

func TestYesNoGateEmptyMessageStaysSilent(t *testing.T) {
	gate := NewYesNoGate(testLogger())

	result, err := gate.Check(context.Background(), yesNoTurn("  ", nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeSilence || result.Reason != "empty_message_while_yes_no" {
		t.Fatalf("empty delivery must not re-prompt, got %+v", result)
	}
}

func TestYesNoGateAmbiguousAnswerReasks(t *testing.T) {
	gate := NewYesNoGate(testLogger())

	result, err := gate.Check(context.Background(), yesNoTurn("si pero cuanto cuesta", nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeReply {
		t.Fatalf("ambiguous answer must re-ask, got %+v", result)
	}
	if result.Transition != nil {
		t.Fatalf("re-ask must not clear the expectation")
	}
}

func TestYesNoGateYesAppliesStoredTransition(t *testing.T) {
	gate := NewYesNoGate(testLogger())

	onYes := &StateTransition{Flow: "booking", Step: "pick_slot"}
	result, err := gate.Check(context.Background(), yesNoTurn("sí!", onYes, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeReply {
		t.Fatalf("expected acknowledgement reply, got %+v", result)
	}
	if result.Transition == nil {
		t.Fatalf("expected a transition")
	}
	if result.Transition.Flow != "booking" || result.Transition.Step != "pick_slot" {
		t.Fatalf("stored on_yes transition not applied: %+v", result.Transition)
	}
	if !result.Transition.Patch.ClearYesNo {
		t.Fatalf("answer must clear the yes/no expectation")
	}
	if result.Transition.Patch.Captured["yes_no"] != "yes" {
		t.Fatalf("answer not captured: %+v", result.Transition.Patch.Captured)
	}
	if result.Intent != "confirmacion" {
		t.Fatalf("expected intent confirmacion, got %q", result.Intent)
	}
}

func TestYesNoGateNoWithoutStoredTransitionStillClears(t *testing.T) {
	gate := NewYesNoGate(testLogger())

	result, err := gate.Check(context.Background(), yesNoTurn("no gracias", nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Transition == nil || !result.Transition.Patch.ClearYesNo {
		t.Fatalf("a plain no must still clear the expectation: %+v", result.Transition)
	}
	if result.Transition.Patch.Captured["yes_no"] != "no" {
		t.Fatalf("answer not captured: %+v", result.Transition.Patch.Captured)
	}
}
