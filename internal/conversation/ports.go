package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StateStore persists conversation state. Get returns a zero-valued state for
// unknown contacts.
type StateStore interface {
	Get(ctx context.Context, tenantID uuid.UUID, canal Canal, contact string) (*State, error)
	Save(ctx context.Context, state *State) error
}

// ClientStore persists the per-contact override/awaiting record. Get returns
// a zero-valued record for unknown contacts.
type ClientStore interface {
	Get(ctx context.Context, tenantID uuid.UUID, canal Canal, contact string) (*ClientRecord, error)
	SetEstado(ctx context.Context, tenantID uuid.UUID, canal Canal, contact, estado string) error
	SetLang(ctx context.Context, tenantID uuid.UUID, canal Canal, contact, lang string) error
	// SetOverride activates or renews the override window; the stored until
	// timestamp is always in the future at write time. It reports whether an
	// override window was already active at write time, so callers can tell a
	// fresh activation from a renewal.
	SetOverride(ctx context.Context, tenantID uuid.UUID, canal Canal, contact string, until time.Time) (prevActive bool, err error)
	ClearOverride(ctx context.Context, tenantID uuid.UUID, canal Canal, contact string) error
	SetAwaiting(ctx context.Context, tenantID uuid.UUID, canal Canal, contact, field string, payload AwaitingPayload) error
	ClearAwaiting(ctx context.Context, tenantID uuid.UUID, canal Canal, contact string) error
	UpsertCustomerDetails(ctx context.Context, tenantID uuid.UUID, canal Canal, contact string, details CustomerDetails) error
}

// MessageStore persists inbound and assistant messages idempotently on
// (tenant, message_id). The bool result reports whether a row was inserted.
type MessageStore interface {
	Insert(ctx context.Context, tenantID uuid.UUID, canal Canal, contact, messageID, rol, contenido string) (bool, error)
}

// MemoryStore maintains the rolling conversational memory per contact.
type MemoryStore interface {
	Append(ctx context.Context, tenantID uuid.UUID, canal Canal, contact, userText, botText string) error
}

// FAQStore looks up the configured answer for a canonical intent.
type FAQStore interface {
	AnswerFor(ctx context.Context, tenantID uuid.UUID, intent string) (string, error)
}

// LinkStore resolves the canonical call-to-action for an intent and channel.
type LinkStore interface {
	LinkFor(ctx context.Context, tenantID uuid.UUID, canal Canal, intent string) (*CTALink, error)
}

// CTALink is one canonical call-to-action.
type CTALink struct {
	Label string
	URL   string
}

// CustomerDetails are parsed customer fields captured mid-conversation.
type CustomerDetails struct {
	Nombre   string
	Email    string
	Telefono string
	Pais     string
}

// Empty reports whether no field was parsed.
func (d CustomerDetails) Empty() bool {
	return d.Nombre == "" && d.Email == "" && d.Telefono == "" && d.Pais == ""
}

// DetectedIntent is the raw classifier output before canonicalization.
type DetectedIntent struct {
	Intent string
	Nivel  int
}

// Classifier is the external NLP intent classifier.
type Classifier interface {
	DetectIntent(ctx context.Context, text string) (DetectedIntent, error)
}

// LanguageDetector detects the language of a message ("es", "en", ...).
type LanguageDetector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// MatchResult is a fuzzy/semantic matcher hit.
type MatchResult struct {
	Intent string
	Answer string
	Score  float64
}

// IntentMatcher is the external fuzzy/semantic answer matcher.
type IntentMatcher interface {
	Match(ctx context.Context, tenantID uuid.UUID, text string) (*MatchResult, error)
}

// Composer assembles one coherent reply out of per-intent factual snippets.
type Composer interface {
	Compose(ctx context.Context, lang string, parts []string) (string, error)
}

// Generator drafts the natural-language reply for a turn. It consumes the
// tenant prompt and optional structured facts; it never decides whether to
// reply.
type Generator interface {
	Generate(ctx context.Context, promptBase, lang, userText string, facts map[string]string) (string, error)
}

// SendParams identify one outbound message.
type SendParams struct {
	TenantID  uuid.UUID
	Canal     Canal
	MessageID string
	Contact   string
	Text      string
}

// Transport is the outbound send primitive. A nil error means the channel
// accepted the message.
type Transport interface {
	Send(ctx context.Context, params SendParams) error
}

// OverrideNotifier fans out the best-effort operator notification when an
// override transitions from inactive to active.
type OverrideNotifier interface {
	NotifyOverride(ctx context.Context, tenantID uuid.UUID, canal Canal, contact, reason, snippet string)
}

// SalesIntentRecorder records a sales-relevant turn at most once per inbound
// message id.
type SalesIntentRecorder interface {
	RecordSalesIntent(ctx context.Context, tenantID uuid.UUID, canal Canal, contact, messageID, intent string, nivel int, snippet string) error
}

// AnalyticsEmitter emits the deduplicated analytics events.
type AnalyticsEmitter interface {
	EmitQualifiedContact(ctx context.Context, tenantID uuid.UUID, canal Canal, contact, intent string) error
	EmitStrongLead(ctx context.Context, tenantID uuid.UUID, canal Canal, contact, intent string, nivel int) error
}

// FollowUpScheduler schedules the single pending follow-up for a contact.
type FollowUpScheduler interface {
	ScheduleIfEligible(ctx context.Context, tenantID uuid.UUID, canal Canal, contact, intent string, nivel int, text string) error
}

// TenantReader exposes the tenant fields the orchestrator reads.
type TenantReader interface {
	Settings(ctx context.Context, tenantID uuid.UUID) (*TenantSettings, error)
}

// TenantSettings are the per-tenant knobs the turn pipeline consumes.
type TenantSettings struct {
	DefaultLang       string
	LangSwitchEnabled bool
	PromptBase        string
	MembresiaActiva   bool
	NotifyEmail       string
	NotifyPhone       string
}
