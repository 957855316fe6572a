package conversation

import (
	"context"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
	"github.com/lrz80/chatbot-backend-sub001/platform/sanitize"
)

// lastTextMax bounds the user/bot snippets stored in the conversation
// context.
const lastTextMax = 500

// Finalizer owns the single exit point for replying turns: send first, then
// persist. Nothing is written before the channel accepts the message, so a
// failed send leaves the state exactly as the turn found it and the retry
// replays cleanly.
type Finalizer struct {
	transport Transport
	states    StateStore
	messages  MessageStore
	memory    MemoryStore
	log       *logger.Logger
}

// NewFinalizer creates the reply finalizer.
func NewFinalizer(transport Transport, states StateStore, messages MessageStore, memory MemoryStore, log *logger.Logger) *Finalizer {
	return &Finalizer{transport: transport, states: states, messages: messages, memory: memory, log: log}
}

// Finalize sends the reply and, only on success, applies the turn's state
// transitions and records the assistant message. Persistence failures after a
// successful send are logged, never returned; the customer already has the
// reply and the turn must not be retried.
func (f *Finalizer) Finalize(ctx context.Context, turn *Turn, result GateResult, text, source string) error {
	botMessageID := turn.MessageID + ":bot"

	if err := f.transport.Send(ctx, SendParams{
		TenantID:  turn.TenantID,
		Canal:     turn.Canal,
		MessageID: botMessageID,
		Contact:   turn.Contact,
		Text:      text,
	}); err != nil {
		return err
	}

	state := turn.State
	for _, transition := range turn.Pending {
		applyTransition(state, transition)
	}
	applyTransition(state, result.Transition)

	patch := ContextPatch{
		LastReplySource: StrPtr(source),
		LastUserText:    StrPtr(sanitize.Snippet(turn.Text, lastTextMax)),
		LastBotText:     StrPtr(sanitize.Snippet(text, lastTextMax)),
		LastTurnAt:      &turn.Now,
	}
	if result.Intent != "" {
		patch.LastIntent = StrPtr(result.Intent)
	}
	state.Context.Apply(patch)

	// The service anchor only moves when no disambiguation is pending and no
	// booking loop owns the subject.
	if anchor := result.Facts["SERVICE"]; anchor != "" &&
		len(state.Context.PendingOptions) == 0 && state.ActiveFlow != "booking" {
		state.Context.LastService = anchor
	}

	if err := f.states.Save(ctx, state); err != nil {
		f.log.DatabaseError("conversation_state.save", err)
	}

	if _, err := f.messages.Insert(ctx, turn.TenantID, turn.Canal, turn.Contact, botMessageID, "assistant", text); err != nil {
		f.log.DatabaseError("mensajes.insert_assistant", err)
	}

	if err := f.memory.Append(ctx, turn.TenantID, turn.Canal, turn.Contact, turn.Text, text); err != nil {
		f.log.DatabaseError("memoria_conversacional.append", err)
	}

	return nil
}

func applyTransition(state *State, t *StateTransition) {
	if t == nil {
		return
	}
	if t.Flow != "" {
		state.ActiveFlow = t.Flow
		state.ActiveStep = ""
	}
	if t.Step != "" {
		state.ActiveStep = t.Step
	}
	state.Context.Apply(t.Patch)
}
