package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FAQRepository looks up the tenant's configured answers by canonical intent.
type FAQRepository struct {
	pool *pgxpool.Pool
}

// NewFAQRepository creates the FAQ repository.
func NewFAQRepository(pool *pgxpool.Pool) *FAQRepository {
	return &FAQRepository{pool: pool}
}

// AnswerFor returns the configured answer for the intent, or empty when none
// exists.
func (r *FAQRepository) AnswerFor(ctx context.Context, tenantID uuid.UUID, intent string) (string, error) {
	var answer string
	err := r.pool.QueryRow(ctx, `
		SELECT respuesta
		FROM faqs
		WHERE tenant_id = $1 AND intencion = $2
		ORDER BY created_at
		LIMIT 1`,
		tenantID, intent,
	).Scan(&answer)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load faq answer: %w", err)
	}
	return answer, nil
}
