package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
)

// MessageRepository persists messages in the mensajes table. The unique key
// on (tenant_id, message_id) makes Insert the turn's idempotency anchor.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates the message repository.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Insert stores the message once per (tenant, message_id) and reports whether
// this call inserted the row. Losing the insert means another delivery of the
// same message already claimed the turn.
func (r *MessageRepository) Insert(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, messageID, rol, contenido string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO mensajes (tenant_id, canal, contacto, message_id, rol, contenido)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, message_id) DO NOTHING`,
		tenantID, string(canal), contact, messageID, rol, contenido,
	)
	if err != nil {
		return false, fmt.Errorf("insert message: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
