package invite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("invite: not found")
	ErrBadStatus = errors.New("invite: only pending invites can be revoked")
	ErrDuplicate = errors.New("invite: duplicate token")
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const inviteColumns = `id::text, company, email, token, status, created_by, created_at, expires_at`

func (r *Repository) List(ctx context.Context, status Status) ([]Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites`
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("invite: list: %w", err)
	}
	defer rows.Close()

	out := make([]Invite, 0, 8)
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("invite: scan: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invite: iterate: %w", err)
	}
	return out, nil
}

// Create stores inv and enqueues the invite email in one transaction.
func (r *Repository) Create(ctx context.Context, inv Invite) (Invite, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Invite{}, fmt.Errorf("invite: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO invites (id, company, email, token, status, created_by, expires_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6)
		RETURNING ` + inviteColumns

	rec, err := scanInvite(tx.QueryRow(ctx, query, inv.ID, inv.Company, inv.Email, inv.Token, inv.CreatedBy, inv.ExpiresAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Invite{}, ErrDuplicate
		}
		return Invite{}, fmt.Errorf("invite: create: %w", err)
	}

	payload := map[string]any{
		"invite_id":  rec.ID,
		"company":    rec.Company,
		"email":      rec.Email,
		"token":      rec.Token,
		"expires_at": rec.ExpiresAt.UTC(),
		"template":   "invite",
	}
	if err := enqueueOutbox(ctx, tx, OutboxTopicCreated, payload); err != nil {
		return Invite{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Invite{}, fmt.Errorf("invite: commit: %w", err)
	}
	return rec, nil
}

func (r *Repository) Revoke(ctx context.Context, id string) (Invite, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Invite{}, fmt.Errorf("invite: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE invites SET status = 'revoked'
		WHERE id::text = $1 AND status = 'pending'
		RETURNING ` + inviteColumns

	rec, err := scanInvite(tx.QueryRow(ctx, query, id))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return Invite{}, fmt.Errorf("invite: revoke: %w", err)
		}
		var status Status
		if err := tx.QueryRow(ctx, `SELECT status FROM invites WHERE id::text = $1`, id).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Invite{}, ErrNotFound
			}
			return Invite{}, fmt.Errorf("invite: revoke fetch: %w", err)
		}
		return Invite{}, ErrBadStatus
	}

	if err := enqueueOutbox(ctx, tx, OutboxTopicRevoked, map[string]any{"invite_id": rec.ID, "email": rec.Email}); err != nil {
		return Invite{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Invite{}, fmt.Errorf("invite: commit revoke: %w", err)
	}
	return rec, nil
}

func scanInvite(row pgx.Row) (Invite, error) {
	var inv Invite
	err := row.Scan(&inv.ID, &inv.Company, &inv.Email, &inv.Token, &inv.Status, &inv.CreatedBy, &inv.CreatedAt, &inv.ExpiresAt)
	return inv, err
}

func enqueueOutbox(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("invite: marshal outbox payload: %w", err)
	}
	const q = `INSERT INTO outbox (topic, payload) VALUES ($1, $2::jsonb)`
	if _, err := tx.Exec(ctx, q, topic, body); err != nil {
		return fmt.Errorf("invite: enqueue outbox: %w", err)
	}
	return nil
}
