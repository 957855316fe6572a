package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// nowFunc is the turn clock; swapped in tests.
var nowFunc = time.Now

// Reply sources recorded in the conversation context.
const (
	SourceGate      = "gate"
	SourceMatcher   = "matcher"
	SourceMulti     = "multi_intent"
	SourceGenerator = "llm"
)

// TurnResult is what the webhook handler learns about a processed turn.
type TurnResult struct {
	Handled   bool
	Outcome   GateOutcome
	Reason    string
	Intent    string
	ReplyText string
	Source    string
}

// Service is the per-turn orchestrator. One HandleTurn call owns the whole
// lifecycle of an inbound message: dedup, language, gates, classification,
// fast paths, generation, finalization and post-reply side effects.
type Service struct {
	tenants   TenantReader
	states    StateStore
	clients   ClientStore
	messages  MessageStore
	language  *LanguageResolver
	pipeline  *Pipeline
	intents   *IntentService
	fastpath  *FastPath
	generator Generator
	finalizer *Finalizer
	postReply *PostReply
	log       *logger.Logger

	// mu guards activeTurns. Turns for the same contact are serialized by
	// dropping the newcomer; channel retry redelivers it.
	mu          sync.Mutex
	activeTurns map[string]struct{}
}

// NewService wires the orchestrator.
func NewService(
	tenants TenantReader,
	states StateStore,
	clients ClientStore,
	messages MessageStore,
	language *LanguageResolver,
	pipeline *Pipeline,
	intents *IntentService,
	fastpath *FastPath,
	generator Generator,
	finalizer *Finalizer,
	postReply *PostReply,
	log *logger.Logger,
) *Service {
	return &Service{
		tenants:     tenants,
		states:      states,
		clients:     clients,
		messages:    messages,
		language:    language,
		pipeline:    pipeline,
		intents:     intents,
		fastpath:    fastpath,
		generator:   generator,
		finalizer:   finalizer,
		postReply:   postReply,
		log:         log,
		activeTurns: make(map[string]struct{}),
	}
}

// HandleTurn processes one inbound message end to end.
func (s *Service) HandleTurn(ctx context.Context, msg InboundMessage) (TurnResult, error) {
	key := msg.TenantID.String() + "|" + string(msg.Canal) + "|" + msg.Contact

	s.mu.Lock()
	if _, running := s.activeTurns[key]; running {
		s.mu.Unlock()
		return TurnResult{Outcome: OutcomeSilence, Reason: "turn_in_progress"}, nil
	}
	s.activeTurns[key] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.activeTurns, key)
		s.mu.Unlock()
	}()

	return s.handleTurn(ctx, msg)
}

func (s *Service) handleTurn(ctx context.Context, msg InboundMessage) (TurnResult, error) {
	settings, err := s.tenants.Settings(ctx, msg.TenantID)
	if err != nil {
		return TurnResult{}, err
	}

	state, err := s.states.Get(ctx, msg.TenantID, msg.Canal, msg.Contact)
	if err != nil {
		return TurnResult{}, err
	}
	client, err := s.clients.Get(ctx, msg.TenantID, msg.Canal, msg.Contact)
	if err != nil {
		return TurnResult{}, err
	}

	// The inbound insert is the turn's idempotency anchor. A duplicate
	// delivery loses here and the turn ends before any side effect.
	inserted, err := s.messages.Insert(ctx, msg.TenantID, msg.Canal, msg.Contact, msg.MessageID, "user", msg.Text)
	if err != nil {
		return TurnResult{}, err
	}
	if !inserted {
		s.log.Debug("duplicate inbound message dropped",
			"canal", string(msg.Canal), "message_id", msg.MessageID)
		return TurnResult{Outcome: OutcomeSilence, Reason: "duplicate_message"}, nil
	}

	turn := &Turn{
		InboundMessage: msg,
		PromptBase:     settings.PromptBase,
		Now:            nowFunc(),
		State:          state,
		Client:         client,
	}

	lang, langPatch := s.language.Resolve(ctx, turn, settings)
	turn.Lang = lang
	if !langPatch.IsZero() {
		turn.Pending = append(turn.Pending, &StateTransition{Patch: langPatch})
	}

	result, gateName := s.pipeline.Run(ctx, turn)
	source := SourceGate

	var detected DetectedIntent
	if result.Outcome == OutcomeContinue {
		detected = s.intents.Classify(ctx, turn.Text)
		result, source = s.resolveReply(ctx, turn, detected)
	}

	if result.Outcome == OutcomeSilence {
		s.log.TurnDecision(string(msg.Canal), msg.Contact, "silence", result.Reason)
		return TurnResult{Outcome: OutcomeSilence, Reason: result.Reason, Source: gateName}, nil
	}

	text := result.Text
	if text == "" {
		text = s.materialize(ctx, turn, result)
	}

	if err := s.finalizer.Finalize(ctx, turn, result, text, source); err != nil {
		return TurnResult{Outcome: OutcomeReply, Reason: "send_failed", Intent: result.Intent}, err
	}

	intent := result.Intent
	if intent == "" {
		intent = detected.Intent
	}
	s.postReply.Run(ctx, turn, intent, detected.Nivel)

	s.log.TurnDecision(string(msg.Canal), msg.Contact, "reply", source)
	return TurnResult{
		Handled:   true,
		Outcome:   OutcomeReply,
		Intent:    intent,
		ReplyText: text,
		Source:    source,
	}, nil
}

// resolveReply turns a passed-through pipeline into a reply: matcher first,
// then multi-intent stitching, then the generator.
func (s *Service) resolveReply(ctx context.Context, turn *Turn, detected DetectedIntent) (GateResult, string) {
	if result, ok := s.fastpath.TryMatcher(ctx, turn, detected); ok {
		return result, SourceMatcher
	}
	if result, ok := s.fastpath.TryMultiIntent(ctx, turn); ok {
		return result, SourceMulti
	}

	text := genericReply(turn.Lang)
	if s.generator != nil {
		generated, err := s.generator.Generate(ctx, turn.PromptBase, turn.Lang, turn.Text, nil)
		if err != nil {
			s.log.Error("reply generation failed", "error", err)
		} else if strings.TrimSpace(generated) != "" {
			text = generated
		}
	}
	return Reply(text).WithIntent(detected.Intent), SourceGenerator
}

// materialize renders a facts-only gate result into reply text.
func (s *Service) materialize(ctx context.Context, turn *Turn, result GateResult) string {
	if s.generator == nil {
		return genericReply(turn.Lang)
	}
	text, err := s.generator.Generate(ctx, turn.PromptBase, turn.Lang, turn.Text, result.Facts)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.log.Error("facts reply generation failed", "error", err)
		}
		return genericReply(turn.Lang)
	}
	return text
}

func genericReply(lang string) string {
	if strings.HasPrefix(lang, "en") {
		return "Thanks for your message. One of our team members will get back to you shortly."
	}
	return "Gracias por tu mensaje. En breve un miembro de nuestro equipo te responderá."
}
