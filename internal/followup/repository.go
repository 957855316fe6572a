// Package followup schedules and dispatches the single pending re-engagement
// message per contact.
package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
)

// Scheduled is one row of mensajes_programados.
type Scheduled struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Canal      conversation.Canal
	Contact    string
	Contenido  string
	Intencion  string
	Nivel      int
	FechaEnvio time.Time
	Enviado    bool
}

// Repository persists scheduled follow-ups. The partial unique index on
// (tenant, canal, contacto) WHERE enviado = false guarantees at most one
// pending row per contact.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the follow-up repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertPending creates the pending follow-up or replaces the existing one.
// A newer commercial turn always supersedes whatever was scheduled before.
func (r *Repository) UpsertPending(ctx context.Context, row *Scheduled) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO mensajes_programados (tenant_id, canal, contacto, contenido, intencion, nivel_interes, fecha_envio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, canal, contacto) WHERE enviado = false DO UPDATE
		SET contenido = EXCLUDED.contenido,
		    intencion = EXCLUDED.intencion,
		    nivel_interes = EXCLUDED.nivel_interes,
		    fecha_envio = EXCLUDED.fecha_envio,
		    updated_at = now()
		RETURNING id`,
		row.TenantID, string(row.Canal), row.Contact,
		row.Contenido, row.Intencion, row.Nivel, row.FechaEnvio,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert pending follow-up: %w", err)
	}
	return id, nil
}

// Get loads one scheduled follow-up. Nil means the row no longer exists.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Scheduled, error) {
	row := &Scheduled{ID: id}

	var canal string
	err := r.pool.QueryRow(ctx, `
		SELECT tenant_id, canal, contacto, contenido, intencion, nivel_interes, fecha_envio, enviado
		FROM mensajes_programados
		WHERE id = $1`,
		id,
	).Scan(&row.TenantID, &canal, &row.Contact, &row.Contenido, &row.Intencion, &row.Nivel, &row.FechaEnvio, &row.Enviado)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load follow-up: %w", err)
	}

	row.Canal = conversation.Canal(canal)
	return row, nil
}

// MarkSent flips the row to enviado and reports whether this call did the
// flip. Losing the update means another dispatcher already sent it.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE mensajes_programados
		SET enviado = true, updated_at = now()
		WHERE id = $1 AND enviado = false`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("mark follow-up sent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Due lists pending follow-ups whose send time has passed. The sweep uses it
// to catch rows whose queue task was lost.
func (r *Repository) Due(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM mensajes_programados
		WHERE enviado = false AND fecha_envio <= $1
		ORDER BY fecha_envio
		LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due follow-ups: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due follow-up: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CancelPending drops the pending follow-up for a contact, if any. Used when
// the contact re-engages on their own.
func (r *Repository) CancelPending(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM mensajes_programados
		WHERE tenant_id = $1 AND canal = $2 AND contacto = $3 AND enviado = false`,
		tenantID, string(canal), contact,
	)
	if err != nil {
		return fmt.Errorf("cancel pending follow-up: %w", err)
	}
	return nil
}
