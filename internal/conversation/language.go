package conversation

import (
	"context"
	"strings"
	"unicode"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// minDetectableRunes is the shortest message worth sending to language
// detection; anything below this (or purely numeric) is unreliable.
const minDetectableRunes = 10

// LanguageResolver computes the effective reply language for a turn.
//
// Priority: explicit-switch request (when enabled) > booking sub-flow lock >
// thread language inside an active loop > persisted customer language >
// per-message detection. Detection runs at most once per turn and its result
// is persisted once and locked as the thread language.
type LanguageResolver struct {
	detector LanguageDetector
	clients  ClientStore
	log      *logger.Logger
}

// NewLanguageResolver creates a language resolver.
func NewLanguageResolver(detector LanguageDetector, clients ClientStore, log *logger.Logger) *LanguageResolver {
	return &LanguageResolver{detector: detector, clients: clients, log: log}
}

// Resolve returns the effective language plus a context patch locking it.
func (r *LanguageResolver) Resolve(ctx context.Context, turn *Turn, settings *TenantSettings) (string, ContextPatch) {
	state := turn.State
	client := turn.Client

	if settings.LangSwitchEnabled && hasExplicitLanguageRequest(turn.Text) {
		if lang := r.detect(ctx, turn.Text); lang != "" {
			r.persistLang(ctx, turn, lang)
			return lang, ContextPatch{ThreadLang: StrPtr(lang)}
		}
	}

	// A booking sub-flow with a locked language wins even over the persisted
	// customer language.
	if state.ActiveFlow == "booking" && state.Context.BookingLang != "" {
		return state.Context.BookingLang, ContextPatch{}
	}

	// Never re-detect mid-loop: a multi-turn form must not flip languages
	// because one answer happened to look like another language.
	if state.InLoop() && state.Context.ThreadLang != "" {
		return state.Context.ThreadLang, ContextPatch{}
	}

	if client.Lang != "" {
		if state.Context.ThreadLang == client.Lang {
			return client.Lang, ContextPatch{}
		}
		return client.Lang, ContextPatch{ThreadLang: StrPtr(client.Lang)}
	}

	if isDetectable(turn.Text) {
		if lang := r.detect(ctx, turn.Text); lang != "" {
			r.persistLang(ctx, turn, lang)
			return lang, ContextPatch{ThreadLang: StrPtr(lang)}
		}
	}

	return settings.DefaultLang, ContextPatch{}
}

func (r *LanguageResolver) detect(ctx context.Context, text string) string {
	if r.detector == nil {
		return ""
	}
	lang, err := r.detector.DetectLanguage(ctx, text)
	if err != nil {
		r.log.Warn("language detection failed", "error", err)
		return ""
	}
	return strings.ToLower(strings.TrimSpace(lang))
}

func (r *LanguageResolver) persistLang(ctx context.Context, turn *Turn, lang string) {
	if turn.Client.Lang == lang {
		return
	}
	if err := r.clients.SetLang(ctx, turn.TenantID, turn.Canal, turn.Contact, lang); err != nil {
		r.log.DatabaseError("clientes.set_lang", err)
		return
	}
	turn.Client.Lang = lang
}

// isDetectable reports whether the message is long enough, and not purely
// numeric, for reliable language detection.
func isDetectable(text string) bool {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) < minDetectableRunes {
		return false
	}

	hasLetter := false
	for _, r := range runes {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	return hasLetter
}

var explicitLanguagePhrases = []string{
	"in english",
	"english please",
	"speak english",
	"en ingles",
	"en inglés",
	"en español",
	"en espanol",
	"in spanish",
	"habla español",
	"habla espanol",
	"fala português",
	"em português",
}

// hasExplicitLanguageRequest reports whether the customer is explicitly
// asking to switch languages.
func hasExplicitLanguageRequest(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range explicitLanguagePhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
