// Package tenant loads per-tenant configuration and authenticates webhook
// callers by API key.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/platform/apperr"
)

// Repository reads tenants and their messaging configuration.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the tenant repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Settings loads the per-tenant knobs the turn pipeline consumes.
func (r *Repository) Settings(ctx context.Context, tenantID uuid.UUID) (*conversation.TenantSettings, error) {
	settings := &conversation.TenantSettings{}

	err := r.pool.QueryRow(ctx, `
		SELECT default_lang, lang_switch_enabled, prompt_base, membresia_activa,
		       COALESCE(notify_email, ''), COALESCE(notify_phone, '')
		FROM tenants
		WHERE id = $1`,
		tenantID,
	).Scan(
		&settings.DefaultLang, &settings.LangSwitchEnabled, &settings.PromptBase,
		&settings.MembresiaActiva, &settings.NotifyEmail, &settings.NotifyPhone,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("tenant not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load tenant settings: %w", err)
	}
	return settings, nil
}

// FollowUpConfig are the tenant follow-up knobs.
type FollowUpConfig struct {
	WaitMinutes int
	MsgBajo     string
	MsgMedio    string
	MsgAlto     string
}

// FollowUp loads the tenant's follow-up configuration.
func (r *Repository) FollowUp(ctx context.Context, tenantID uuid.UUID) (*FollowUpConfig, error) {
	cfg := &FollowUpConfig{}

	err := r.pool.QueryRow(ctx, `
		SELECT followup_wait_minutes,
		       COALESCE(followup_msg_bajo, ''),
		       COALESCE(followup_msg_medio, ''),
		       COALESCE(followup_msg_alto, '')
		FROM tenants
		WHERE id = $1`,
		tenantID,
	).Scan(&cfg.WaitMinutes, &cfg.MsgBajo, &cfg.MsgMedio, &cfg.MsgAlto)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("tenant not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load follow-up config: %w", err)
	}
	return cfg, nil
}

// ByAPIKey resolves the tenant owning the given raw API key. The key is
// stored hashed; an unknown key maps to an unauthorized error so handlers
// never distinguish missing from wrong.
func (r *Repository) ByAPIKey(ctx context.Context, rawKey string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM tenants WHERE api_key_hash = $1`,
		HashAPIKey(rawKey),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, apperr.Unauthorized("invalid api key")
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup api key: %w", err)
	}
	return id, nil
}
