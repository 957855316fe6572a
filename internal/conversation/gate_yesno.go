package conversation

import (
	"context"
	"strings"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// YesNoGate resolves a pending yes/no question recorded in the conversation
// context, applying the declarative on_yes/on_no transition stored with it.
type YesNoGate struct {
	log *logger.Logger
}

// NewYesNoGate creates the yes/no gate.
func NewYesNoGate(log *logger.Logger) *YesNoGate {
	return &YesNoGate{log: log}
}

func (g *YesNoGate) Name() string { return "yes_no" }

func (g *YesNoGate) Check(_ context.Context, turn *Turn) (GateResult, error) {
	state := turn.State
	if !state.Context.AwaitingYesNo {
		return Continue(), nil
	}

	if strings.TrimSpace(turn.Text) == "" {
		// Empty webhook deliveries must not trigger a duplicate prompt.
		return Silence("empty_message_while_yes_no"), nil
	}

	switch ParseYesNo(turn.Text) {
	case AnswerYes:
		return g.resolve(turn, state.Context.OnYes, "yes"), nil
	case AnswerNo:
		return g.resolve(turn, state.Context.OnNo, "no"), nil
	default:
		return Reply(strictYesNoPrompt(turn.Lang)), nil
	}
}

func (g *YesNoGate) resolve(turn *Turn, stored *StateTransition, answer string) GateResult {
	transition := &StateTransition{Patch: ContextPatch{ClearYesNo: true}}
	if stored != nil {
		transition.Flow = stored.Flow
		transition.Step = stored.Step
		transition.Patch = stored.Patch
		transition.Patch.ClearYesNo = true
	}
	if transition.Patch.Captured == nil {
		transition.Patch.Captured = map[string]string{}
	}
	transition.Patch.Captured["yes_no"] = answer

	return Reply(acknowledgeAnswer(turn.Lang, answer)).
		WithTransition(transition).
		WithIntent("confirmacion")
}

func strictYesNoPrompt(lang string) string {
	if strings.HasPrefix(lang, "en") {
		return "Just to be sure: is that a yes or a no?"
	}
	return "Solo para confirmar: ¿sí o no?"
}

func acknowledgeAnswer(lang, answer string) string {
	if strings.HasPrefix(lang, "en") {
		if answer == "yes" {
			return "Great, noted."
		}
		return "Understood, no problem."
	}
	if answer == "yes" {
		return "¡Perfecto, anotado!"
	}
	return "Entendido, sin problema."
}
