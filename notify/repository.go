package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTemplateNotFound signals no stored template for a key.
var ErrTemplateNotFound = errors.New("notify: template not found")

// Repository persists templates and settings.
type Repository interface {
	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, key TemplateKey) (Template, error)
	UpsertTemplate(ctx context.Context, t Template) (Template, error)
	GetSettings(ctx context.Context) (Settings, bool, error)
	UpsertSettings(ctx context.Context, s Settings) (Settings, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, subject, body, updated_at FROM email_templates ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("notify: list templates: %w", err)
	}
	defer rows.Close()

	out := []Template{}
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.Key, &t.Subject, &t.Body, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("notify: scan template: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notify: iterate templates: %w", err)
	}
	return out, nil
}

func (r *PGRepository) GetTemplate(ctx context.Context, key TemplateKey) (Template, error) {
	var t Template
	err := r.pool.QueryRow(ctx, `SELECT key, subject, body, updated_at FROM email_templates WHERE key = $1`, key).
		Scan(&t.Key, &t.Subject, &t.Body, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, ErrTemplateNotFound
		}
		return Template{}, fmt.Errorf("notify: get template: %w", err)
	}
	return t, nil
}

func (r *PGRepository) UpsertTemplate(ctx context.Context, t Template) (Template, error) {
	const q = `
		INSERT INTO email_templates (key, subject, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET subject = EXCLUDED.subject, body = EXCLUDED.body, updated_at = now()
		RETURNING key, subject, body, updated_at
	`
	var out Template
	if err := r.pool.QueryRow(ctx, q, t.Key, t.Subject, t.Body).Scan(&out.Key, &out.Subject, &out.Body, &out.UpdatedAt); err != nil {
		return Template{}, fmt.Errorf("notify: upsert template: %w", err)
	}
	return out, nil
}

// GetSettings reports false when no settings were saved yet.
func (r *PGRepository) GetSettings(ctx context.Context) (Settings, bool, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `
		SELECT enabled, recipients, notify_on_submit, notify_on_decision, updated_at
		FROM notification_settings WHERE id = 1
	`).Scan(&s.Enabled, &s.Recipients, &s.NotifyOnSubmit, &s.NotifyOnDecision, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, false, nil
		}
		return Settings{}, false, fmt.Errorf("notify: get settings: %w", err)
	}
	return s, true, nil
}

func (r *PGRepository) UpsertSettings(ctx context.Context, s Settings) (Settings, error) {
	const q = `
		INSERT INTO notification_settings (id, enabled, recipients, notify_on_submit, notify_on_decision)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET enabled = EXCLUDED.enabled,
		    recipients = EXCLUDED.recipients,
		    notify_on_submit = EXCLUDED.notify_on_submit,
		    notify_on_decision = EXCLUDED.notify_on_decision,
		    updated_at = now()
		RETURNING enabled, recipients, notify_on_submit, notify_on_decision, updated_at
	`
	var out Settings
	if err := r.pool.QueryRow(ctx, q, s.Enabled, s.Recipients, s.NotifyOnSubmit, s.NotifyOnDecision).
		Scan(&out.Enabled, &out.Recipients, &out.NotifyOnSubmit, &out.NotifyOnDecision, &out.UpdatedAt); err != nil {
		return Settings{}, fmt.Errorf("notify: upsert settings: %w", err)
	}
	return out, nil
}
