package conversation

import (
	"context"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// HumanOverrideGate silences the bot while a human operator owns the
// conversation. It always runs first in the pipeline.
type HumanOverrideGate struct {
	clients ClientStore
	log     *logger.Logger
}

// NewHumanOverrideGate creates the human override gate.
func NewHumanOverrideGate(clients ClientStore, log *logger.Logger) *HumanOverrideGate {
	return &HumanOverrideGate{clients: clients, log: log}
}

func (g *HumanOverrideGate) Name() string { return "human_override" }

// Check applies the override window. Expiry is observed here at read time and
// cleared lazily; there is no background sweep.
func (g *HumanOverrideGate) Check(ctx context.Context, turn *Turn) (GateResult, error) {
	client := turn.Client
	if !client.HumanOverride {
		return Continue(), nil
	}

	if !client.OverrideActive(turn.Now) {
		if err := g.clients.ClearOverride(ctx, turn.TenantID, turn.Canal, turn.Contact); err != nil {
			g.log.DatabaseError("clientes.clear_override", err)
		}
		client.HumanOverride = false
		client.HumanOverrideUntil = nil
		return Continue(), nil
	}

	if isResumeBotPhrase(turn.Text) {
		if err := g.clients.ClearOverride(ctx, turn.TenantID, turn.Canal, turn.Contact); err != nil {
			return GateResult{}, err
		}
		client.HumanOverride = false
		client.HumanOverrideUntil = nil
		return Continue(), nil
	}

	return Silence("human_override_active"), nil
}
