package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
)

// LinkRepository resolves the canonical call-to-action links configured per
// tenant, channel and intent.
type LinkRepository struct {
	pool *pgxpool.Pool
}

// NewLinkRepository creates the link repository.
func NewLinkRepository(pool *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{pool: pool}
}

// LinkFor returns the configured link for (canal, intent), falling back to a
// channel-agnostic link (canal = ''). Nil means no link is configured.
func (r *LinkRepository) LinkFor(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, intent string) (*conversation.CTALink, error) {
	link := &conversation.CTALink{}

	err := r.pool.QueryRow(ctx, `
		SELECT etiqueta, url
		FROM tenant_links
		WHERE tenant_id = $1 AND intencion = $2 AND canal IN ($3, '')
		ORDER BY canal DESC
		LIMIT 1`,
		tenantID, intent, string(canal),
	).Scan(&link.Label, &link.URL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tenant link: %w", err)
	}
	return link, nil
}
