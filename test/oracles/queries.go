package oracles

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"hsepanel/form"
	"hsepanel/status"
)

type Oracle struct {
	Name string
	SQL  string
}

func literal(s status.Status) string {
	return "'" + strings.ReplaceAll(string(s), "'", "''") + "'"
}

func decisions() string {
	return strings.Join([]string{literal(status.Approved), literal(status.Rejected), literal(status.PendingInfo)}, ", ")
}

// All lists the invariants that must hold on the forms table whatever the
// interleaving of concurrent reviewers.
func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_in_review_has_reviewer",
			SQL: fmt.Sprintf(`SELECT id FROM forms
                  WHERE status = %s
                    AND (COALESCE(reviewer_name, '') = '' OR COALESCE(reviewer_email, '') = '')`,
				literal(status.InReview)),
		},
		{
			Name: "O2_decision_has_comments",
			SQL: fmt.Sprintf(`SELECT id, status FROM forms
                  WHERE status IN (%s) AND COALESCE(btrim(comments), '') = ''`, decisions()),
		},
		{
			Name: "O3_history_has_current_status",
			SQL:  `SELECT id, status FROM forms WHERE NOT (history ? status)`,
		},
		{
			Name: "O4_decision_after_review",
			SQL: fmt.Sprintf(`SELECT id, status FROM forms
                  WHERE status IN (%[1]s)
                    AND (NOT (history ? %[2]s)
                         OR (history->status->>'timestamp')::timestamptz
                            < (history->%[2]s->>'timestamp')::timestamptz)`,
				decisions(), literal(status.InReview)),
		},
		{
			Name: "O5_status_change_published",
			SQL: fmt.Sprintf(`SELECT f.id, f.status FROM forms f
                  WHERE f.status <> %s
                    AND NOT EXISTS (
                        SELECT 1 FROM outbox o
                        WHERE o.topic = '%s'
                          AND o.payload->>'form_id' = f.id::text
                          AND o.payload->>'next_status' = f.status)`,
				literal(status.Submitted), form.OutboxTopicStatusChanged),
		},
		{
			Name: "O6_outbox_stale",
			SQL: `SELECT id FROM outbox
                  WHERE status = 'pending' AND now() - created_at > interval '5 minutes'`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		if rows.Next() {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
	}
	return "", "", nil
}
