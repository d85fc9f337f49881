package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hsepanel/history"
	"hsepanel/status"
)

var (
	// ErrNotFound is returned when no form exists for the provided identifier.
	ErrNotFound = errors.New("form: not found")
	// ErrEmptyPatch signals an update that would not change anything.
	ErrEmptyPatch = errors.New("form: empty patch")
)

// Repository is the form record store.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Record, error)
	Get(ctx context.Context, id int64) (Record, error)
	Update(ctx context.Context, id int64, patch Patch) error
	List(ctx context.Context, filters Filters) ([]Record, int, error)
	CountByStatus(ctx context.Context) (map[status.Status]int, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed form repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectColumns = `id, company, tax_id, status, answers, history, reviewer_name, reviewer_email, comments, created_at, updated_at`

// Create inserts a new submission. It is used by intake seeding; suppliers
// normally submit through the external intake form.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Record, error) {
	if params.Company == "" || params.TaxID == "" {
		return Record{}, fmt.Errorf("form: company and tax id are required")
	}
	st := params.Status
	if st == "" {
		st = status.Submitted
	}
	if !status.Valid(st) {
		return Record{}, fmt.Errorf("form: invalid status %q", st)
	}

	answers, err := json.Marshal(nonNilAnswers(params.Answers))
	if err != nil {
		return Record{}, fmt.Errorf("form: marshal answers: %w", err)
	}
	hist, err := params.History.Encode()
	if err != nil {
		return Record{}, err
	}

	insertSQL := `
		INSERT INTO forms (company, tax_id, status, answers, history)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb)
		RETURNING ` + selectColumns

	rec, err := scanRecord(r.pool.QueryRow(ctx, insertSQL, params.Company, params.TaxID, string(st), answers, hist))
	if err != nil {
		return Record{}, fmt.Errorf("form: insert: %w", err)
	}
	return rec, nil
}

// Get retrieves a form by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (Record, error) {
	selectSQL := `SELECT ` + selectColumns + ` FROM forms WHERE id = $1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("form: get: %w", err)
	}
	return rec, nil
}

// Update overwrites the patched columns and enqueues the patch event, if any,
// in the same transaction. There is no version check: the last write wins.
func (r *PGRepository) Update(ctx context.Context, id int64, patch Patch) error {
	if patch.Empty() {
		return ErrEmptyPatch
	}

	sets := []string{"updated_at = now()"}
	args := []any{}
	add := func(column string, value any, cast string) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", column, len(args), cast))
	}

	if patch.Status != nil {
		if !status.Valid(*patch.Status) {
			return fmt.Errorf("form: invalid status %q", *patch.Status)
		}
		add("status", string(*patch.Status), "")
	}
	if patch.Reviewer != nil {
		add("reviewer_name", patch.Reviewer.Name, "")
		add("reviewer_email", patch.Reviewer.Email, "")
	}
	if patch.Comments != nil {
		add("comments", *patch.Comments, "")
	}
	if patch.History != nil {
		hist, err := patch.History.Encode()
		if err != nil {
			return err
		}
		add("history", hist, "::jsonb")
	}

	args = append(args, id)
	updateSQL := fmt.Sprintf(`UPDATE forms SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("form: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, updateSQL, args...)
	if err != nil {
		return fmt.Errorf("form: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if patch.Event != nil {
		if err := enqueueOutbox(ctx, tx, patch.Event.Topic, patch.Event.Payload); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("form: commit update: %w", err)
	}
	return nil
}

// List returns a page of forms and the total count matching the filters.
func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Record, int, error) {
	filters = filters.Normalize()

	where := []string{"1=1"}
	args := []any{}
	if filters.Status != "" {
		args = append(args, string(filters.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.Company != "" {
		args = append(args, "%"+filters.Company+"%")
		where = append(where, fmt.Sprintf("company ILIKE $%d", len(args)))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM forms WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("form: count: %w", err)
	}

	listArgs := append(append([]any{}, args...), filters.PageSize, (filters.Page-1)*filters.PageSize)
	listSQL := fmt.Sprintf(`SELECT %s FROM forms WHERE %s ORDER BY updated_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		selectColumns, whereSQL, len(args)+1, len(args)+2)

	rows, err := r.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("form: list: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("form: scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("form: iterate: %w", err)
	}

	return records, total, nil
}

// CountByStatus returns the number of forms per vocabulary status. Every
// status is present in the result.
func (r *PGRepository) CountByStatus(ctx context.Context) (map[status.Status]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM forms GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("form: count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[status.Status]int, len(status.All()))
	for _, s := range status.All() {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			s string
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("form: scan count: %w", err)
		}
		counts[status.Status(s)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("form: iterate counts: %w", err)
	}
	return counts, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec           Record
		st            string
		answersRaw    []byte
		historyRaw    []byte
		reviewerName  *string
		reviewerEmail *string
		comments      *string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Company,
		&rec.TaxID,
		&st,
		&answersRaw,
		&historyRaw,
		&reviewerName,
		&reviewerEmail,
		&comments,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}

	rec.Status = status.Status(st)
	if rec.Answers, err = DecodeAnswers(answersRaw); err != nil {
		return Record{}, err
	}
	if rec.History, err = history.Decode(historyRaw); err != nil {
		return Record{}, err
	}
	if reviewerName != nil && *reviewerName != "" {
		rec.Reviewer = &Actor{Name: *reviewerName}
		if reviewerEmail != nil {
			rec.Reviewer.Email = *reviewerEmail
		}
	}
	if comments != nil {
		rec.Comments = *comments
	}
	return rec, nil
}

func enqueueOutbox(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("form: marshal outbox payload: %w", err)
	}
	const q = `INSERT INTO outbox (topic, payload) VALUES ($1, $2::jsonb)`
	if _, err := tx.Exec(ctx, q, topic, body); err != nil {
		return fmt.Errorf("form: enqueue outbox: %w", err)
	}
	return nil
}

func nonNilAnswers(a Answers) Answers {
	if a == nil {
		return Answers{}
	}
	return a
}
