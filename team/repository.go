package team

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested member does not exist.
var ErrNotFound = errors.New("team: member not found")

// Repository provides access to team members.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `id::text, full_name, email, role, active, created_at`

// GetByID fetches a member by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Member, error) {
	query := `SELECT ` + memberColumns + ` FROM users WHERE id::text = $1`

	member, err := scanMember(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, fmt.Errorf("team: query by id: %w", err)
	}

	return member, nil
}

// List fetches members ordered by name, skipping inactive ones unless asked.
func (r *Repository) List(ctx context.Context, includeInactive bool) ([]Member, error) {
	query := `SELECT ` + memberColumns + ` FROM users`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY full_name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("team: list: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("team: scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("team: iterate members: %w", err)
	}

	return members, nil
}

// Update applies params to the member and returns the stored result.
func (r *Repository) Update(ctx context.Context, id string, params UpdateParams) (Member, error) {
	sets := []string{"updated_at = now()"}
	args := []any{}
	if params.Active != nil {
		args = append(args, *params.Active)
		sets = append(sets, fmt.Sprintf("active = $%d", len(args)))
	}
	if params.Role != nil {
		args = append(args, string(*params.Role))
		sets = append(sets, fmt.Sprintf("role = $%d", len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id::text = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), memberColumns)

	member, err := scanMember(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, fmt.Errorf("team: update: %w", err)
	}
	return member, nil
}

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.Active, &m.CreatedAt); err != nil {
		return Member{}, err
	}
	return m, nil
}
