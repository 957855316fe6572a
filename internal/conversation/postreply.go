package conversation

import (
	"context"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
	"github.com/lrz80/chatbot-backend-sub001/platform/sanitize"
)

// salesSnippetMax bounds the user text stored with a sales intent record.
const salesSnippetMax = 300

// PostReply runs the side effects of a successfully replied turn: the sales
// record, the deduplicated analytics events, and follow-up scheduling. Every
// step is best-effort; the reply already went out and nothing here may undo
// the turn.
type PostReply struct {
	sales     SalesIntentRecorder
	analytics AnalyticsEmitter
	followups FollowUpScheduler
	log       *logger.Logger
}

// NewPostReply creates the post-reply runner. Any collaborator may be nil.
func NewPostReply(sales SalesIntentRecorder, analytics AnalyticsEmitter, followups FollowUpScheduler, log *logger.Logger) *PostReply {
	return &PostReply{sales: sales, analytics: analytics, followups: followups, log: log}
}

// Run executes the post-reply actions for the turn.
func (p *PostReply) Run(ctx context.Context, turn *Turn, intent string, nivel int) {
	if nivel <= 0 {
		nivel = defaultNivel
	}

	if p.sales != nil && SalesRelevant(intent) && nivel >= 2 {
		snippet := sanitize.Snippet(turn.Text, salesSnippetMax)
		if err := p.sales.RecordSalesIntent(ctx, turn.TenantID, turn.Canal, turn.Contact, turn.MessageID, intent, nivel, snippet); err != nil {
			p.log.Error("sales intent record failed", "error", err)
		}
	}

	if p.analytics != nil && intent != "" && intent != IntentSaludo && intent != IntentGracias {
		if err := p.analytics.EmitQualifiedContact(ctx, turn.TenantID, turn.Canal, turn.Contact, intent); err != nil {
			p.log.Error("qualified contact emit failed", "error", err)
		}
		if nivel >= 3 {
			if err := p.analytics.EmitStrongLead(ctx, turn.TenantID, turn.Canal, turn.Contact, intent, nivel); err != nil {
				p.log.Error("strong lead emit failed", "error", err)
			}
		}
	}

	// Booking handles its own reminders; a follow-up on top would double up.
	if p.followups != nil && turn.State.ActiveFlow != "booking" && intent != IntentAgendar {
		if err := p.followups.ScheduleIfEligible(ctx, turn.TenantID, turn.Canal, turn.Contact, intent, nivel, turn.Text); err != nil {
			p.log.Error("follow-up scheduling failed", "error", err)
		}
	}
}
