// Package conversation implements the per-turn orchestrator: language
// resolution, the ordered gate pipeline, intent classification with fast
// paths, and the reply finalizer with its post-reply side effects.
package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Canal identifies the messaging channel a conversation runs on.
type Canal string

const (
	CanalWhatsApp  Canal = "whatsapp"
	CanalFacebook  Canal = "facebook"
	CanalInstagram Canal = "instagram"
)

// Supported reports whether outbound messaging is available on the channel.
func (c Canal) Supported() bool {
	switch c {
	case CanalWhatsApp, CanalFacebook, CanalInstagram:
		return true
	}
	return false
}

// InboundMessage is one normalized customer message delivered by a channel
// webhook. MessageID is the idempotency anchor for the whole turn.
type InboundMessage struct {
	TenantID  uuid.UUID
	Canal     Canal
	Contact   string
	MessageID string
	Text      string
}

// Turn carries everything the pipeline needs for one inbound message. It is
// owned exclusively by the orchestrator for the duration of the turn and is
// never persisted as a whole.
type Turn struct {
	InboundMessage
	Lang       string
	PromptBase string
	Now        time.Time

	State  *State
	Client *ClientRecord

	// Pending collects transitions from gates that passed control onward
	// (e.g. a captured awaiting value). The finalizer applies them in order
	// before the winning result's own transition.
	Pending []*StateTransition
}

// State is the persisted conversation state for a (tenant, canal, contact).
// Mutated only by the reply finalizer after a successful send.
type State struct {
	TenantID   uuid.UUID
	Canal      Canal
	Contact    string
	ActiveFlow string
	ActiveStep string
	Context    StateContext
}

// InLoop reports whether any conversational loop (flow/step) is active.
func (s *State) InLoop() bool {
	return s.ActiveFlow != "" || s.ActiveStep != ""
}

// ClientRecord is the per-contact override/awaiting record (clientes table).
type ClientRecord struct {
	TenantID           uuid.UUID
	Canal              Canal
	Contact            string
	Estado             string
	HumanOverride      bool
	HumanOverrideUntil *time.Time
	AwaitingField      string
	AwaitingPayload    AwaitingPayload
	AwaitingUpdatedAt  *time.Time
	Lang               string
	Nombre             string
	Email              string
	Telefono           string
	Pais               string
}

// AwaitingPayload describes the pending free-text expectation.
type AwaitingPayload struct {
	// Kind constrains the expected value: "email", "phone", "number",
	// "date" or "text".
	Kind string `json:"kind,omitempty"`
	// Prompt is replayed when the answer does not validate.
	Prompt string `json:"prompt,omitempty"`
	// Flow/Step to transition to once the value is captured.
	Flow string `json:"flow,omitempty"`
	Step string `json:"step,omitempty"`
}

// OverrideActive reports whether the human override window is currently in
// force. Expired windows are observed here and cleared lazily by the gate.
func (c *ClientRecord) OverrideActive(now time.Time) bool {
	if !c.HumanOverride {
		return false
	}
	if c.HumanOverrideUntil == nil {
		return false
	}
	return now.Before(*c.HumanOverrideUntil)
}

// AwaitingTTL is how long a pending free-text expectation stays valid.
const AwaitingTTL = 45 * time.Minute

// AwaitingActive reports whether a pending free-text expectation exists and
// has not expired.
func (c *ClientRecord) AwaitingActive(now time.Time) bool {
	if c.AwaitingField == "" {
		return false
	}
	if c.AwaitingUpdatedAt == nil {
		return false
	}
	return now.Sub(*c.AwaitingUpdatedAt) < AwaitingTTL
}

// Well-known estado values for the payment guard.
const (
	EstadoEsperandoPago      = "esperando_pago"
	EstadoPagoEnConfirmacion = "pago_en_confirmacion"
)

// StateTransition is a declarative effect a gate can attach to its result:
// the flow/step to move to plus a context merge patch.
type StateTransition struct {
	Flow  string       `json:"flow,omitempty"`
	Step  string       `json:"step,omitempty"`
	Patch ContextPatch `json:"patch,omitempty"`
}

// GateOutcome is the closed set of pipeline decisions.
type GateOutcome int

const (
	// OutcomeContinue passes control to the next gate.
	OutcomeContinue GateOutcome = iota
	// OutcomeSilence ends the turn without a reply.
	OutcomeSilence
	// OutcomeReply ends the turn with a reply (text or facts).
	OutcomeReply
)

// GateResult is the tagged union produced by each gate. Exactly one gate
// result wins a turn; results are never merged.
type GateResult struct {
	Outcome    GateOutcome
	Reason     string
	Text       string
	Facts      map[string]string
	Intent     string
	Transition *StateTransition
}

// Continue passes control onward.
func Continue() GateResult {
	return GateResult{Outcome: OutcomeContinue}
}

// ContinueWith passes control onward while carrying a transition for the
// finalizer (e.g. a captured awaiting value).
func ContinueWith(t *StateTransition) GateResult {
	return GateResult{Outcome: OutcomeContinue, Transition: t}
}

// Silence ends the turn without replying.
func Silence(reason string) GateResult {
	return GateResult{Outcome: OutcomeSilence, Reason: reason}
}

// Reply ends the turn with literal reply text.
func Reply(text string) GateResult {
	return GateResult{Outcome: OutcomeReply, Text: text}
}

// ReplyFacts ends the turn with structured facts for downstream text
// generation; no literal copy is produced by the gate itself.
func ReplyFacts(facts map[string]string) GateResult {
	return GateResult{Outcome: OutcomeReply, Facts: facts}
}

// WithTransition attaches a state transition to the result.
func (r GateResult) WithTransition(t *StateTransition) GateResult {
	r.Transition = t
	return r
}

// WithIntent tags the result with the intent it resolved.
func (r GateResult) WithIntent(intent string) GateResult {
	r.Intent = intent
	return r
}
