package webhook

// InboundMessageRequest is one normalized message delivered by a channel
// webhook. Channels are free to deliver empty text (receipts, media we do
// not process); the pipeline decides what to do with it.
type InboundMessageRequest struct {
	Canal     string `json:"canal" validate:"required,oneof=whatsapp facebook instagram"`
	Contacto  string `json:"contacto" validate:"required,max=128"`
	MessageID string `json:"message_id" validate:"required,max=256"`
	Texto     string `json:"texto" validate:"max=8000"`
}

// TurnResponse reports what the orchestrator decided for the message.
type TurnResponse struct {
	Handled bool   `json:"handled"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
	Intent  string `json:"intent,omitempty"`
	Reply   string `json:"reply,omitempty"`
	Source  string `json:"source,omitempty"`
}

// OverrideRequest activates or extends a human override from the ops panel.
type OverrideRequest struct {
	Canal    string `json:"canal" validate:"required,oneof=whatsapp facebook instagram"`
	Contacto string `json:"contacto" validate:"required,max=128"`
	Minutes  int    `json:"minutes" validate:"required,min=1,max=1440"`
	Reason   string `json:"reason" validate:"max=200"`
}

// ContactQuery identifies a conversation in ops lookups.
type ContactQuery struct {
	Canal    string `form:"canal" validate:"required,oneof=whatsapp facebook instagram"`
	Contacto string `form:"contacto" validate:"required,max=128"`
}
