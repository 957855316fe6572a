package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
)

// ClientRepository persists the per-contact record in the clientes table.
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository creates the client repository.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// Get loads the record for a contact, returning a zero-valued record when the
// contact has never been seen.
func (r *ClientRepository) Get(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact string) (*conversation.ClientRecord, error) {
	record := &conversation.ClientRecord{TenantID: tenantID, Canal: canal, Contact: contact}

	var rawPayload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT estado, human_override, human_override_until,
		       COALESCE(awaiting_field, ''), awaiting_payload, awaiting_updated_at,
		       lang, COALESCE(nombre, ''), COALESCE(email, ''),
		       COALESCE(telefono, ''), COALESCE(pais, '')
		FROM clientes
		WHERE tenant_id = $1 AND canal = $2 AND contacto = $3`,
		tenantID, string(canal), contact,
	).Scan(
		&record.Estado, &record.HumanOverride, &record.HumanOverrideUntil,
		&record.AwaitingField, &rawPayload, &record.AwaitingUpdatedAt,
		&record.Lang, &record.Nombre, &record.Email,
		&record.Telefono, &record.Pais,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return record, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load client record: %w", err)
	}

	if len(rawPayload) > 0 {
		if err := json.Unmarshal(rawPayload, &record.AwaitingPayload); err != nil {
			return nil, fmt.Errorf("decode awaiting payload: %w", err)
		}
	}
	return record, nil
}

// SetEstado upserts the contact's estado.
func (r *ClientRepository) SetEstado(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, estado string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clientes (tenant_id, canal, contacto, estado)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, canal, contacto) DO UPDATE
		SET estado = EXCLUDED.estado, updated_at = now()`,
		tenantID, string(canal), contact, estado,
	)
	if err != nil {
		return fmt.Errorf("set estado: %w", err)
	}
	return nil
}

// SetLang upserts the contact's persisted language.
func (r *ClientRepository) SetLang(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, lang string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clientes (tenant_id, canal, contacto, lang)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, canal, contacto) DO UPDATE
		SET lang = EXCLUDED.lang, updated_at = now()`,
		tenantID, string(canal), contact, lang,
	)
	if err != nil {
		return fmt.Errorf("set lang: %w", err)
	}
	return nil
}

// SetOverride activates or renews the override window and reports whether a
// window was already active at write time. The previous-state check and the
// write happen in one statement so concurrent activations cannot both observe
// an inactive override.
func (r *ClientRepository) SetOverride(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact string, until time.Time) (bool, error) {
	var prevActive bool
	err := r.pool.QueryRow(ctx, `
		WITH prev AS (
			SELECT human_override AND human_override_until > now() AS active
			FROM clientes
			WHERE tenant_id = $1 AND canal = $2 AND contacto = $3
			FOR UPDATE
		), upsert AS (
			INSERT INTO clientes (tenant_id, canal, contacto, human_override, human_override_until)
			VALUES ($1, $2, $3, true, $4)
			ON CONFLICT (tenant_id, canal, contacto) DO UPDATE
			SET human_override = true, human_override_until = $4, updated_at = now()
		)
		SELECT COALESCE((SELECT active FROM prev), false)`,
		tenantID, string(canal), contact, until,
	).Scan(&prevActive)
	if err != nil {
		return false, fmt.Errorf("set override: %w", err)
	}
	return prevActive, nil
}

// ClearOverride ends the override window.
func (r *ClientRepository) ClearOverride(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE clientes
		SET human_override = false, human_override_until = NULL, updated_at = now()
		WHERE tenant_id = $1 AND canal = $2 AND contacto = $3`,
		tenantID, string(canal), contact,
	)
	if err != nil {
		return fmt.Errorf("clear override: %w", err)
	}
	return nil
}

// SetAwaiting records a pending free-text expectation for the contact.
func (r *ClientRepository) SetAwaiting(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, field string, payload conversation.AwaitingPayload) error {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode awaiting payload: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO clientes (tenant_id, canal, contacto, awaiting_field, awaiting_payload, awaiting_updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (tenant_id, canal, contacto) DO UPDATE
		SET awaiting_field = EXCLUDED.awaiting_field,
		    awaiting_payload = EXCLUDED.awaiting_payload,
		    awaiting_updated_at = now(),
		    updated_at = now()`,
		tenantID, string(canal), contact, field, rawPayload,
	)
	if err != nil {
		return fmt.Errorf("set awaiting: %w", err)
	}
	return nil
}

// ClearAwaiting drops the pending expectation.
func (r *ClientRepository) ClearAwaiting(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE clientes
		SET awaiting_field = NULL, awaiting_payload = '{}'::jsonb,
		    awaiting_updated_at = NULL, updated_at = now()
		WHERE tenant_id = $1 AND canal = $2 AND contacto = $3`,
		tenantID, string(canal), contact,
	)
	if err != nil {
		return fmt.Errorf("clear awaiting: %w", err)
	}
	return nil
}

// UpsertCustomerDetails merges parsed customer fields into the record without
// clobbering known values with blanks.
func (r *ClientRepository) UpsertCustomerDetails(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact string, details conversation.CustomerDetails) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clientes (tenant_id, canal, contacto, nombre, email, telefono, pais)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))
		ON CONFLICT (tenant_id, canal, contacto) DO UPDATE
		SET nombre = COALESCE(NULLIF(EXCLUDED.nombre, ''), clientes.nombre),
		    email = COALESCE(NULLIF(EXCLUDED.email, ''), clientes.email),
		    telefono = COALESCE(NULLIF(EXCLUDED.telefono, ''), clientes.telefono),
		    pais = COALESCE(NULLIF(EXCLUDED.pais, ''), clientes.pais),
		    updated_at = now()`,
		tenantID, string(canal), contact,
		details.Nombre, details.Email, details.Telefono, details.Pais,
	)
	if err != nil {
		return fmt.Errorf("upsert customer details: %w", err)
	}
	return nil
}
