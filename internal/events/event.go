package events

import "github.com/google/uuid"

// QualifiedContactRecorded fires the first time a contact produces a
// sales-relevant turn for a tenant. Emitted at most once per contact lifetime.
type QualifiedContactRecorded struct {
	BaseEvent
	TenantID uuid.UUID
	Canal    string
	Contact  string
	Intent   string
}

func (QualifiedContactRecorded) EventName() string { return "analytics.qualified_contact" }

// StrongLeadRecorded fires when a contact shows high purchase interest.
// Emitted at most once per 7-day UTC bucket per contact.
type StrongLeadRecorded struct {
	BaseEvent
	TenantID uuid.UUID
	Canal    string
	Contact  string
	Intent   string
	Nivel    int
	Bucket   int64
}

func (StrongLeadRecorded) EventName() string { return "analytics.strong_lead" }

// HumanOverrideActivated fires when an override transitions from inactive to
// active. Renewals of an already-active window do not re-emit.
type HumanOverrideActivated struct {
	BaseEvent
	TenantID uuid.UUID
	Canal    string
	Contact  string
	Reason   string
	Source   string
	Snippet  string
	Minutes  int
}

func (HumanOverrideActivated) EventName() string { return "conversation.override_activated" }

// FollowUpScheduled fires when a pending follow-up row is created or updated.
type FollowUpScheduled struct {
	BaseEvent
	TenantID uuid.UUID
	Canal    string
	Contact  string
	Intent   string
	Nivel    int
}

func (FollowUpScheduled) EventName() string { return "followup.scheduled" }
