package conversation

import (
	"context"

	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// Gate is one stage of the turn pipeline. A gate inspects the turn and either
// short-circuits it (silence/reply) or passes control onward. Gates never see
// each other's results.
type Gate interface {
	Name() string
	Check(ctx context.Context, turn *Turn) (GateResult, error)
}

// Pipeline runs gates strictly in order and stops at the first non-continue
// result. Order matters: the human-override gate runs first so every later
// gate implicitly defers to a silenced conversation.
type Pipeline struct {
	gates []Gate
	log   *logger.Logger
}

// NewPipeline creates a pipeline over the given gates, evaluated in order.
func NewPipeline(log *logger.Logger, gates ...Gate) *Pipeline {
	return &Pipeline{gates: gates, log: log}
}

// Run evaluates the gates for one turn and reports the winning result plus
// the name of the gate that produced it (empty when every gate passed). A
// gate error degrades the turn to silence instead of failing the request
// handler; internal error text never reaches the customer.
func (p *Pipeline) Run(ctx context.Context, turn *Turn) (GateResult, string) {
	for _, gate := range p.gates {
		result, err := gate.Check(ctx, turn)
		if err != nil {
			p.log.Error("gate failed, silencing turn",
				"gate", gate.Name(),
				"canal", string(turn.Canal),
				"error", err)
			return Silence("gate_error:" + gate.Name()), gate.Name()
		}

		if result.Outcome == OutcomeContinue {
			if result.Transition != nil {
				turn.Pending = append(turn.Pending, result.Transition)
			}
			continue
		}

		p.log.Debug("gate short-circuit",
			"gate", gate.Name(),
			"outcome", int(result.Outcome),
			"reason", result.Reason)
		return result, gate.Name()
	}

	return Continue(), ""
}
