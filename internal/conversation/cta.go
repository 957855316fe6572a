package conversation

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// ctaPriority orders intents when one reply answered several; the broadest
// call-to-action wins.
var ctaPriority = []string{IntentInfo, IntentPrecio, IntentComprar, IntentAgendar, IntentPagar, IntentGiftCard}

// CTAResolver picks the single canonical call-to-action for a reply.
type CTAResolver struct {
	links LinkStore
	log   *logger.Logger
}

// NewCTAResolver creates the CTA resolver.
func NewCTAResolver(links LinkStore, log *logger.Logger) *CTAResolver {
	return &CTAResolver{links: links, log: log}
}

// Resolve returns the configured link for the highest-priority intent among
// those the reply covered, or nil when none is configured. Lookup failures
// degrade to no CTA.
func (r *CTAResolver) Resolve(ctx context.Context, tenantID uuid.UUID, canal Canal, intents []string) *CTALink {
	seen := map[string]bool{}
	for _, intent := range intents {
		seen[intent] = true
	}

	ordered := make([]string, 0, len(intents))
	for _, intent := range ctaPriority {
		if seen[intent] {
			ordered = append(ordered, intent)
			seen[intent] = false
		}
	}
	for _, intent := range intents {
		if seen[intent] {
			ordered = append(ordered, intent)
			seen[intent] = false
		}
	}

	for _, intent := range ordered {
		link, err := r.links.LinkFor(ctx, tenantID, canal, intent)
		if err != nil {
			r.log.DatabaseError("tenant_links.link_for", err)
			return nil
		}
		if link != nil && link.URL != "" {
			return link
		}
	}
	return nil
}

// AppendCTA adds the call-to-action below the reply unless the text already
// carries that URL.
func AppendCTA(text string, link *CTALink) string {
	if link == nil || link.URL == "" {
		return text
	}
	if strings.Contains(text, link.URL) {
		return text
	}
	if link.Label != "" {
		return text + "\n\n" + link.Label + ": " + link.URL
	}
	return text + "\n\n" + link.URL
}
