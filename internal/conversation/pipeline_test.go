package conversation

import (
	"context"
	"errors"
	"testing"
)

type stubGate struct {
	name   string
	result GateResult
	err    error
	called bool
}

func (g *stubGate) Name() string { return g.name }

func (g *stubGate) Check(context.Context, *Turn) (GateResult, error) {
	g.called = true
	return g.result, g.err
}

func TestPipelineStopsAtFirstShortCircuit(t *testing.T) {
	first := &stubGate{name: "first", result: Continue()}
	second := &stubGate{name: "second", result: Silence("blocked")}
	third := &stubGate{name: "third", result: Continue()}
	pipeline := NewPipeline(testLogger(), first, second, third)

	result, gateName := pipeline.Run(context.Background(), newGateTurn("hola", nil))
	if result.Outcome != OutcomeSilence || result.Reason != "blocked" {
		t.Fatalf("expected the second gate's silence, got %+v", result)
	}
	if gateName != "second" {
		t.Fatalf("expected winning gate name second, got %q", gateName)
	}
	if third.called {
		t.Fatalf("gates after a short-circuit must not run")
	}
}

func TestPipelineAllPass(t *testing.T) {
	pipeline := NewPipeline(testLogger(),
		&stubGate{name: "a", result: Continue()},
		&stubGate{name: "b", result: Continue()},
	)

	result, gateName := pipeline.Run(context.Background(), newGateTurn("hola", nil))
	if result.Outcome != OutcomeContinue {
		t.Fatalf("expected continue, got %+v", result)
	}
	if gateName != "" {
		t.Fatalf("expected no winning gate, got %q", gateName)
	}
}

func TestPipelineCollectsContinueTransitions(t *testing.T) {
	transition := &StateTransition{Patch: ContextPatch{ThreadLang: StrPtr("en")}}
	pipeline := NewPipeline(testLogger(),
		&stubGate{name: "a", result: ContinueWith(transition)},
		&stubGate{name: "b", result: Continue()},
	)

	turn := newGateTurn("hola", nil)
	pipeline.Run(context.Background(), turn)

	if len(turn.Pending) != 1 || turn.Pending[0] != transition {
		t.Fatalf("continue-with transition not collected: %+v", turn.Pending)
	}
}

func TestPipelineGateErrorDegradesToSilence(t *testing.T) {
	pipeline := NewPipeline(testLogger(),
		&stubGate{name: "broken", err: errors.New("db down")},
	)

	result, gateName := pipeline.Run(context.Background(), newGateTurn("hola", nil))
	if result.Outcome != OutcomeSilence {
		t.Fatalf("gate error must silence the turn, got %+v", result)
	}
	if result.Reason != "gate_error:broken" {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
	if gateName != "broken" {
		t.Fatalf("expected failing gate name, got %q", gateName)
	}
}
