package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
)

// memoryWindow is how many exchanges the rolling memory keeps per contact.
const memoryWindow = 20

// MemoryRepository maintains the rolling conversational memory, one JSONB
// array per contact in memoria_conversacional.
type MemoryRepository struct {
	pool *pgxpool.Pool
}

// NewMemoryRepository creates the memory repository.
func NewMemoryRepository(pool *pgxpool.Pool) *MemoryRepository {
	return &MemoryRepository{pool: pool}
}

// Append adds one exchange and trims the array to the newest entries, all in
// one statement so concurrent appends cannot lose each other's exchange.
func (r *MemoryRepository) Append(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, userText, botText string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO memoria_conversacional (tenant_id, canal, contacto, resumen)
		VALUES ($1, $2, $3, jsonb_build_array(
			jsonb_build_object('user', $4::text, 'bot', $5::text, 'at', now())
		))
		ON CONFLICT (tenant_id, canal, contacto) DO UPDATE
		SET resumen = (
			SELECT COALESCE(jsonb_agg(entry ORDER BY ord), '[]'::jsonb)
			FROM (
				SELECT entry, ord
				FROM jsonb_array_elements(memoria_conversacional.resumen || EXCLUDED.resumen)
					WITH ORDINALITY AS t (entry, ord)
				ORDER BY ord DESC
				LIMIT $6
			) tail
		),
		updated_at = now()`,
		tenantID, string(canal), contact, userText, botText, memoryWindow,
	)
	if err != nil {
		return fmt.Errorf("append memory: %w", err)
	}
	return nil
}
