package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"hsepanel/evaluation"
	"hsepanel/form"
	"hsepanel/test/actors"
	"hsepanel/test/chaos"
	"hsepanel/test/infra"
	"hsepanel/test/oracles"
)

var (
	flDuration  = flag.Duration("duration", 30*time.Second, "how long to run stress")
	flReviewers = flag.Int("reviewers", 6, "number of concurrent reviewers")
	flChaos     = flag.Bool("chaos", false, "terminate random backends while running")
	flDSN       = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

// TestReviewConcurrency lets reviewers race over the same submitted forms and
// checks the forms table against the oracles while they run.
func TestReviewConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test skipped in -short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+90*time.Second)
	defer cancel()

	var (
		pgC        = &infra.PGContainer{}
		dsn        string
		err        error
		usedShared bool
	)
	switch {
	case *flDSN != "":
		dsn, usedShared = *flDSN, true
	case os.Getenv("HSE_TEST_PG_DSN") != "":
		dsn, usedShared = os.Getenv("HSE_TEST_PG_DSN"), true
	case dockerAvailable(ctx):
		pgC, dsn, err = infra.StartPostgres16(ctx, "")
		if err != nil {
			t.Fatalf("start postgres: %v", err)
		}
	default:
		dsn, err = infra.InitLocalDatabase(ctx)
		if err != nil {
			t.Skipf("no docker and no local postgres: %v", err)
		}
	}
	defer pgC.Terminate(context.Background())

	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared, int32(*flReviewers*2+8))
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	repo := form.NewRepository(pool)
	svc := evaluation.NewService(repo)

	g, gctx := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	g.Go(func() error { return actors.Intake(gctx, repo, stop) })
	for i := 0; i < *flReviewers; i++ {
		who := form.Actor{Name: fmt.Sprintf("Revisor %d", i), Email: fmt.Sprintf("revisor%d@hse.example.com", i)}
		g.Go(func() error { return actors.Reviewer(gctx, pool, svc, who, stop) })
	}
	for i := 0; i < *flReviewers/2+1; i++ {
		g.Go(func() error { return actors.Decider(gctx, pool, svc, stop) })
	}
	g.Go(func() error { return actors.Reader(gctx, pool, repo, stop) })
	g.Go(func() error { return actors.OutboxWorker(gctx, pool, stop) })
	if *flChaos {
		go chaos.TerminateRandomBackend(gctx, pool, infra.ApplicationName, stop)
	}

	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

loop:
	for time.Now().Before(deadline) {
		select {
		case <-gctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(gctx, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				if *flChaos {
					t.Logf("oracle run interrupted: %v", err)
					continue
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				dumpRecent(t, ctx, pool)
				t.Fatalf("oracle %s failed. first row: %s", name, row)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("actors errored: %v", err)
	}

	if name, row, err := oracles.Run(ctx, pool); err != nil || name != "" {
		t.Fatalf("final oracle check: name=%s row=%s err=%v", name, row, err)
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	dumps := []struct {
		name string
		sql  string
	}{
		{"forms", `SELECT id, status, reviewer_email, comments, history::text FROM forms ORDER BY updated_at DESC LIMIT 20`},
		{"outbox", `SELECT id, topic, status, attempts, payload->>'form_id', payload->>'next_status' FROM outbox ORDER BY created_at DESC LIMIT 20`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", cols[i].Name, vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
