package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

func testLogger() *logger.Logger {
	return logger.New("test")
}

type fakeClientStore struct {
	record *ClientRecord

	estado             string
	lang               string
	clearedOverride    bool
	clearedAwaiting    bool
	awaitingField      string
	awaitingPayload    AwaitingPayload
	details            CustomerDetails
	overrideUntil      time.Time
	overridePrevActive bool
	err                error
}

func (f *fakeClientStore) Get(context.Context, uuid.UUID, Canal, string) (*ClientRecord, error) {
	if f.record == nil {
		return &ClientRecord{}, f.err
	}
	return f.record, f.err
}

func (f *fakeClientStore) SetEstado(_ context.Context, _ uuid.UUID, _ Canal, _, estado string) error {
	f.estado = estado
	return f.err
}

func (f *fakeClientStore) SetLang(_ context.Context, _ uuid.UUID, _ Canal, _, lang string) error {
	f.lang = lang
	return f.err
}

func (f *fakeClientStore) SetOverride(_ context.Context, _ uuid.UUID, _ Canal, _ string, until time.Time) (bool, error) {
	f.overrideUntil = until
	return f.overridePrevActive, f.err
}

func (f *fakeClientStore) ClearOverride(context.Context, uuid.UUID, Canal, string) error {
	f.clearedOverride = true
	return f.err
}

func (f *fakeClientStore) SetAwaiting(_ context.Context, _ uuid.UUID, _ Canal, _, field string, payload AwaitingPayload) error {
	f.awaitingField = field
	f.awaitingPayload = payload
	return f.err
}

func (f *fakeClientStore) ClearAwaiting(context.Context, uuid.UUID, Canal, string) error {
	f.clearedAwaiting = true
	return f.err
}

func (f *fakeClientStore) UpsertCustomerDetails(_ context.Context, _ uuid.UUID, _ Canal, _ string, details CustomerDetails) error {
	f.details = details
	return f.err
}

type fakeStateStore struct {
	state   *State
	saved   *State
	saveErr error
}

func (f *fakeStateStore) Get(context.Context, uuid.UUID, Canal, string) (*State, error) {
	if f.state == nil {
		return &State{}, nil
	}
	return f.state, nil
}

func (f *fakeStateStore) Save(_ context.Context, state *State) error {
	f.saved = state
	return f.saveErr
}

type insertedMessage struct {
	messageID string
	rol       string
	contenido string
}

type fakeMessageStore struct {
	inserted  []insertedMessage
	duplicate bool
	err       error
}

func (f *fakeMessageStore) Insert(_ context.Context, _ uuid.UUID, _ Canal, _, messageID, rol, contenido string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.duplicate {
		return false, nil
	}
	f.inserted = append(f.inserted, insertedMessage{messageID: messageID, rol: rol, contenido: contenido})
	return true, nil
}

type fakeMemoryStore struct {
	userTexts []string
	botTexts  []string
	err       error
}

func (f *fakeMemoryStore) Append(_ context.Context, _ uuid.UUID, _ Canal, _, userText, botText string) error {
	if f.err != nil {
		return f.err
	}
	f.userTexts = append(f.userTexts, userText)
	f.botTexts = append(f.botTexts, botText)
	return nil
}

type fakeTransport struct {
	sent []SendParams
	err  error
}

func (f *fakeTransport) Send(_ context.Context, params SendParams) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, params)
	return nil
}

type fakeFAQStore struct {
	answers map[string]string
	err     error
}

func (f *fakeFAQStore) AnswerFor(_ context.Context, _ uuid.UUID, intent string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.answers[intent], nil
}

type fakeLinkStore struct {
	links map[string]*CTALink
	err   error
}

func (f *fakeLinkStore) LinkFor(_ context.Context, _ uuid.UUID, _ Canal, intent string) (*CTALink, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.links[intent], nil
}

type fakeMatcher struct {
	result *MatchResult
	err    error
	called bool
}

func (f *fakeMatcher) Match(context.Context, uuid.UUID, string) (*MatchResult, error) {
	f.called = true
	return f.result, f.err
}

type fakeClassifier struct {
	detected DetectedIntent
	err      error
	called   bool
}

func (f *fakeClassifier) DetectIntent(context.Context, string) (DetectedIntent, error) {
	f.called = true
	return f.detected, f.err
}

type fakeDetector struct {
	lang   string
	err    error
	called bool
}

func (f *fakeDetector) DetectLanguage(context.Context, string) (string, error) {
	f.called = true
	return f.lang, f.err
}

type fakeGenerator struct {
	text  string
	err   error
	facts map[string]string
}

func (f *fakeGenerator) Generate(_ context.Context, _, _, _ string, facts map[string]string) (string, error) {
	f.facts = facts
	return f.text, f.err
}

type fakeComposer struct {
	text string
	err  error
}

func (f *fakeComposer) Compose(context.Context, string, []string) (string, error) {
	return f.text, f.err
}

type fakeNotifier struct {
	notified int
	reason   string
	snippet  string
}

func (f *fakeNotifier) NotifyOverride(_ context.Context, _ uuid.UUID, _ Canal, _, reason, snippet string) {
	f.notified++
	f.reason = reason
	f.snippet = snippet
}

type fakeSalesRecorder struct {
	recorded int
	intent   string
	nivel    int
}

func (f *fakeSalesRecorder) RecordSalesIntent(_ context.Context, _ uuid.UUID, _ Canal, _, _, intent string, nivel int, _ string) error {
	f.recorded++
	f.intent = intent
	f.nivel = nivel
	return nil
}

type fakeEmitter struct {
	qualified   int
	strongLeads int
}

func (f *fakeEmitter) EmitQualifiedContact(context.Context, uuid.UUID, Canal, string, string) error {
	f.qualified++
	return nil
}

func (f *fakeEmitter) EmitStrongLead(context.Context, uuid.UUID, Canal, string, string, int) error {
	f.strongLeads++
	return nil
}

type fakeFollowUps struct {
	scheduled int
	intent    string
}

func (f *fakeFollowUps) ScheduleIfEligible(_ context.Context, _ uuid.UUID, _ Canal, _, intent string, _ int, _ string) error {
	f.scheduled++
	f.intent = intent
	return nil
}
