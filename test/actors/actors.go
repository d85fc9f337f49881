package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hsepanel/document"
	"hsepanel/evaluation"
	"hsepanel/form"
	"hsepanel/history"
	"hsepanel/status"
	"hsepanel/timeline"
)

func stopped(ctx context.Context, stop <-chan struct{}) (bool, error) {
	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-stop:
		return true, nil
	default:
		return false, nil
	}
}

func pause(base, jitter int) {
	time.Sleep(time.Duration(base+rand.Intn(jitter)) * time.Millisecond)
}

// pickForm returns a random form in st, or 0 when none exists.
func pickForm(ctx context.Context, pool *pgxpool.Pool, st status.Status) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `SELECT id FROM forms WHERE status = $1 ORDER BY random() LIMIT 1`, string(st)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// expected reports whether err is a legitimate outcome of racing reviewers
// or of a backend killed by chaos.
func expected(err error) bool {
	return errors.Is(err, evaluation.ErrInvalidTransition) ||
		errors.Is(err, evaluation.ErrStoreUnavailable) ||
		errors.Is(err, form.ErrNotFound)
}

// Intake keeps submitting new supplier forms.
func Intake(ctx context.Context, repo form.Repository, stop <-chan struct{}) error {
	for n := 0; ; n++ {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		company := fmt.Sprintf("Fornecedor %d-%d", n, rand.Int63())
		_, err := repo.Create(ctx, form.CreateParams{
			Company: company,
			TaxID:   fmt.Sprintf("%014d", rand.Int63n(1e14)),
			Answers: form.Answers{"dadosGerais": map[string]any{"razaoSocial": company}},
			History: history.RecordTransition(nil, status.Submitted, history.Actor{Name: company, Email: "contato@fornecedor.com"}, time.Now()),
		})
		if err != nil && ctx.Err() == nil {
			// a terminated backend only loses this submission
			pause(20, 30)
			continue
		}
		pause(30, 40)
	}
}

// Reviewer races other reviewers to start evaluations of submitted forms.
func Reviewer(ctx context.Context, pool *pgxpool.Pool, svc *evaluation.Service, who form.Actor, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		id, err := pickForm(ctx, pool, status.Submitted)
		if err != nil || id == 0 {
			pause(10, 20)
			continue
		}
		if _, err := svc.Start(ctx, id, who); err != nil && !expected(err) && ctx.Err() == nil {
			return fmt.Errorf("reviewer %s start %d: %w", who.Email, id, err)
		}
		pause(10, 20)
	}
}

// Decider concludes evaluations with a random decision.
func Decider(ctx context.Context, pool *pgxpool.Pool, svc *evaluation.Service, stop <-chan struct{}) error {
	results := []status.Status{status.Approved, status.Rejected, status.PendingInfo}
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		id, err := pickForm(ctx, pool, status.InReview)
		if err != nil || id == 0 {
			pause(10, 20)
			continue
		}
		result := results[rand.Intn(len(results))]
		comments := fmt.Sprintf("Parecer automático %d", rand.Intn(1000))
		if _, err := svc.Submit(ctx, id, result, comments); err != nil && !expected(err) && ctx.Err() == nil {
			return fmt.Errorf("decider submit %d: %w", id, err)
		}
		pause(10, 30)
	}
}

// Reader renders timelines and documents of random forms, failing on any
// reconstruction that disagrees with the stored history.
func Reader(ctx context.Context, pool *pgxpool.Pool, repo form.Repository, stop <-chan struct{}) error {
	all := status.All()
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		id, err := pickForm(ctx, pool, all[rand.Intn(len(all))])
		if err != nil || id == 0 {
			pause(10, 20)
			continue
		}
		rec, err := repo.Get(ctx, id)
		if err != nil {
			pause(10, 20)
			continue
		}

		tl := timeline.Reconstruct(rec.History, rec.Status, time.Now())
		if len(tl.Steps) != len(rec.History) {
			return fmt.Errorf("reader: form %d has %d history entries but %d steps", id, len(rec.History), len(tl.Steps))
		}
		if cur, ok := tl.Current(); !ok || cur.Status != rec.Status {
			return fmt.Errorf("reader: form %d current step does not match status %q", id, rec.Status)
		}
		if _, err := document.Render(rec, time.Now()); err != nil {
			return fmt.Errorf("reader: %w", err)
		}
		pause(20, 30)
	}
}

// OutboxWorker plays the automation that sends notification emails: it claims
// pending messages with SKIP LOCKED and marks them processed, failing some.
func OutboxWorker(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			pause(50, 50)
			continue
		}
		rows, err := tx.Query(ctx, `SELECT id::text FROM outbox WHERE status = 'pending' ORDER BY created_at FOR UPDATE SKIP LOCKED LIMIT 10`)
		if err != nil {
			_ = tx.Rollback(ctx)
			pause(50, 50)
			continue
		}
		ids := make([]string, 0, 10)
		for rows.Next() {
			var id string
			if rows.Scan(&id) == nil {
				ids = append(ids, id)
			}
		}
		rows.Close()
		for _, id := range ids {
			if rand.Intn(10) == 0 {
				_, _ = tx.Exec(ctx, `UPDATE outbox SET attempts = attempts + 1, last_attempt_at = now() WHERE id::text = $1`, id)
				continue
			}
			_, _ = tx.Exec(ctx, `UPDATE outbox SET status = 'processed', attempts = attempts + 1, last_attempt_at = now() WHERE id::text = $1`, id)
		}
		_ = tx.Commit(ctx)
		pause(100, 1)
	}
}
