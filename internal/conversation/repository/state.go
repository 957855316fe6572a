// Package repository implements the conversation stores on PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
)

// StateRepository persists conversation state in the conversation_state table.
type StateRepository struct {
	pool *pgxpool.Pool
}

// NewStateRepository creates the state repository.
func NewStateRepository(pool *pgxpool.Pool) *StateRepository {
	return &StateRepository{pool: pool}
}

// Get loads the state for a contact, returning a zero-valued state when none
// exists yet.
func (r *StateRepository) Get(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact string) (*conversation.State, error) {
	state := &conversation.State{TenantID: tenantID, Canal: canal, Contact: contact}

	var rawContext []byte
	err := r.pool.QueryRow(ctx, `
		SELECT active_flow, active_step, context
		FROM conversation_state
		WHERE tenant_id = $1 AND canal = $2 AND contacto = $3`,
		tenantID, string(canal), contact,
	).Scan(&state.ActiveFlow, &state.ActiveStep, &rawContext)
	if errors.Is(err, pgx.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation state: %w", err)
	}

	if len(rawContext) > 0 {
		if err := json.Unmarshal(rawContext, &state.Context); err != nil {
			return nil, fmt.Errorf("decode conversation context: %w", err)
		}
	}
	return state, nil
}

// Save upserts the state. The context column is replaced with the merged
// in-memory context; merging happened field-by-field before this call.
func (r *StateRepository) Save(ctx context.Context, state *conversation.State) error {
	rawContext, err := json.Marshal(state.Context)
	if err != nil {
		return fmt.Errorf("encode conversation context: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO conversation_state (tenant_id, canal, contacto, active_flow, active_step, context)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, canal, contacto) DO UPDATE
		SET active_flow = EXCLUDED.active_flow,
		    active_step = EXCLUDED.active_step,
		    context = EXCLUDED.context,
		    updated_at = now()`,
		state.TenantID, string(state.Canal), state.Contact,
		state.ActiveFlow, state.ActiveStep, rawContext,
	)
	if err != nil {
		return fmt.Errorf("save conversation state: %w", err)
	}
	return nil
}
