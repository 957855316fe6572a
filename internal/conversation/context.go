package conversation

import "time"

// StateContext is the typed conversational context bag. It is always merged
// field-by-field across turns, never overwritten wholesale, so concurrent
// writers at worst interleave fields instead of dropping them.
type StateContext struct {
	// ThreadLang is the sticky language for the current conversational loop.
	ThreadLang string `json:"thread_lang,omitempty"`
	// BookingLang is the language locked by an in-progress booking sub-flow.
	// It outranks ThreadLang and the persisted customer language.
	BookingLang string `json:"booking_lang,omitempty"`

	LastIntent      string     `json:"last_intent,omitempty"`
	LastReplySource string     `json:"last_reply_source,omitempty"`
	LastUserText    string     `json:"last_user_text,omitempty"`
	LastBotText     string     `json:"last_bot_text,omitempty"`
	LastTurnAt      *time.Time `json:"last_turn_at,omitempty"`

	// LastService anchors the most recently referenced service so follow-up
	// questions ("how much is it?") keep their subject.
	LastService string `json:"last_service,omitempty"`
	// PendingOptions is set while the bot waits for the customer to pick one
	// of several offered options; it blocks anchor capture.
	PendingOptions []string `json:"pending_options,omitempty"`

	// AwaitingYesNo marks that the next message should be a yes/no answer.
	AwaitingYesNo bool             `json:"awaiting_yes_no,omitempty"`
	OnYes         *StateTransition `json:"on_yes,omitempty"`
	OnNo          *StateTransition `json:"on_no,omitempty"`

	// Captured holds values collected by the awaiting-field gate.
	Captured map[string]string `json:"captured,omitempty"`
}

// ContextPatch is a merge patch for StateContext. Nil pointer fields leave the
// existing value untouched; set fields overwrite it.
type ContextPatch struct {
	ThreadLang      *string          `json:"thread_lang,omitempty"`
	BookingLang     *string          `json:"booking_lang,omitempty"`
	LastIntent      *string          `json:"last_intent,omitempty"`
	LastReplySource *string          `json:"last_reply_source,omitempty"`
	LastUserText    *string          `json:"last_user_text,omitempty"`
	LastBotText     *string          `json:"last_bot_text,omitempty"`
	LastTurnAt      *time.Time       `json:"last_turn_at,omitempty"`
	LastService     *string          `json:"last_service,omitempty"`
	PendingOptions  []string         `json:"pending_options,omitempty"`
	AwaitingYesNo   *bool            `json:"awaiting_yes_no,omitempty"`
	OnYes           *StateTransition `json:"on_yes,omitempty"`
	OnNo            *StateTransition `json:"on_no,omitempty"`
	// ClearYesNo drops the yes/no expectation and both stored transitions.
	ClearYesNo bool `json:"clear_yes_no,omitempty"`
	// ClearPendingOptions drops the multi-option disambiguation marker.
	ClearPendingOptions bool `json:"clear_pending_options,omitempty"`
	// Captured entries are merged key-by-key into the existing map.
	Captured map[string]string `json:"captured,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p ContextPatch) IsZero() bool {
	return p.ThreadLang == nil && p.BookingLang == nil && p.LastIntent == nil &&
		p.LastReplySource == nil && p.LastUserText == nil && p.LastBotText == nil &&
		p.LastTurnAt == nil && p.LastService == nil && p.PendingOptions == nil &&
		p.AwaitingYesNo == nil && p.OnYes == nil && p.OnNo == nil &&
		!p.ClearYesNo && !p.ClearPendingOptions && len(p.Captured) == 0
}

// Apply merges the patch into the context.
func (c *StateContext) Apply(p ContextPatch) {
	if p.ThreadLang != nil {
		c.ThreadLang = *p.ThreadLang
	}
	if p.BookingLang != nil {
		c.BookingLang = *p.BookingLang
	}
	if p.LastIntent != nil {
		c.LastIntent = *p.LastIntent
	}
	if p.LastReplySource != nil {
		c.LastReplySource = *p.LastReplySource
	}
	if p.LastUserText != nil {
		c.LastUserText = *p.LastUserText
	}
	if p.LastBotText != nil {
		c.LastBotText = *p.LastBotText
	}
	if p.LastTurnAt != nil {
		c.LastTurnAt = p.LastTurnAt
	}
	if p.LastService != nil {
		c.LastService = *p.LastService
	}
	if p.PendingOptions != nil {
		c.PendingOptions = p.PendingOptions
	}
	if p.ClearPendingOptions {
		c.PendingOptions = nil
	}
	if p.AwaitingYesNo != nil {
		c.AwaitingYesNo = *p.AwaitingYesNo
	}
	if p.OnYes != nil {
		c.OnYes = p.OnYes
	}
	if p.OnNo != nil {
		c.OnNo = p.OnNo
	}
	if p.ClearYesNo {
		c.AwaitingYesNo = false
		c.OnYes = nil
		c.OnNo = nil
	}
	if len(p.Captured) > 0 {
		if c.Captured == nil {
			c.Captured = make(map[string]string, len(p.Captured))
		}
		for k, v := range p.Captured {
			c.Captured[k] = v
		}
	}
}

// StrPtr is a small helper for building patches.
func StrPtr(s string) *string { return &s }

// BoolPtr is a small helper for building patches.
func BoolPtr(b bool) *bool { return &b }
