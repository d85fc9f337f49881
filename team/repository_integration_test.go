package team

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hsepanel/auth"
)

// TestRepository_Integration runs against a migrated PostgreSQL named by DATABASE_URL.
func TestRepository_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	var exists bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass('public.users') IS NOT NULL`).Scan(&exists); err != nil || !exists {
		t.Skip("database schema missing; apply migrations/001_init.sql first")
	}

	user, err := auth.NewRepository(pool).CreateUser(ctx, auth.CreateUserParams{
		Email:        fmt.Sprintf("membro-%d@example.com", time.Now().UnixNano()),
		FullName:     "Membro Integração",
		PasswordHash: "not-a-real-hash",
		Role:         auth.RoleReviewer,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM users WHERE id::text = $1`, user.ID)
	})

	repo := NewRepository(pool)

	inactive := false
	got, err := repo.Update(ctx, user.ID, UpdateParams{Active: &inactive})
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if got.Active || got.Role != auth.RoleReviewer {
		t.Fatalf("expected inactive reviewer, got %+v", got)
	}

	active, err := repo.List(ctx, false)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if containsMember(active, user.ID) {
		t.Fatal("expected deactivated member hidden from the active list")
	}
	all, err := repo.List(ctx, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if !containsMember(all, user.ID) {
		t.Fatal("expected deactivated member listed when inactive ones are included")
	}

	reactivate := true
	viewer := auth.RoleViewer
	got, err = repo.Update(ctx, user.ID, UpdateParams{Active: &reactivate, Role: &viewer})
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if !got.Active || got.Role != auth.RoleViewer {
		t.Fatalf("expected active viewer, got %+v", got)
	}

	stored, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if stored.Active != got.Active || stored.Role != got.Role || stored.Email != got.Email {
		t.Fatalf("expected stored member %+v, got %+v", got, stored)
	}

	if _, err := repo.Update(ctx, uuid.NewString(), UpdateParams{Active: &reactivate}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating unknown member, got %v", err)
	}
	if _, err := repo.GetByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func containsMember(list []Member, id string) bool {
	for _, m := range list {
		if m.ID == id {
			return true
		}
	}
	return false
}
