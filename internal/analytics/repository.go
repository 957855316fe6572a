// Package analytics records sales signals and deduplicated funnel events.
package analytics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
)

// Repository persists the dedup ledger and the sales intelligence rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ReserveEvent claims an event id in the append-only ledger and reports
// whether this call claimed it. Losing the insert means the event was already
// emitted; the ledger is never updated or deleted.
func (r *Repository) ReserveEvent(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, eventID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO eventos_procesados (tenant_id, canal, event_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, canal, event_id) DO NOTHING`,
		tenantID, string(canal), eventID,
	)
	if err != nil {
		return false, fmt.Errorf("reserve event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertSalesIntent stores the sales record, at most once per inbound
// message.
func (r *Repository) InsertSalesIntent(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, messageID, intent string, nivel int, snippet string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sales_intelligence (tenant_id, canal, contacto, message_id, intencion, nivel_interes, mensaje)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, canal, message_id) DO NOTHING`,
		tenantID, string(canal), contact, messageID, intent, nivel, snippet,
	)
	if err != nil {
		return fmt.Errorf("insert sales intent: %w", err)
	}
	return nil
}
