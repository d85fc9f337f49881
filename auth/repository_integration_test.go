package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
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

	repo := NewRepository(pool)
	mixed := fmt.Sprintf("Paula.Santos-%d@Example.COM", time.Now().UnixNano())

	user, err := repo.CreateUser(ctx, CreateUserParams{
		Email:        mixed,
		FullName:     "Paula Santos",
		PasswordHash: "not-a-real-hash",
		Role:         RoleViewer,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM users WHERE id::text = $1`, user.ID)
	})

	if user.Email != strings.ToLower(mixed) {
		t.Fatalf("expected email stored lower-cased, got %q", user.Email)
	}
	if !user.Active || user.Role != RoleViewer {
		t.Fatalf("unexpected new user: %+v", user)
	}

	byEmail, err := repo.GetUserByEmail(ctx, strings.ToUpper(mixed))
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("expected case-insensitive lookup to find %s, got %s", user.ID, byEmail.ID)
	}

	byID, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Email != user.Email || byID.PasswordHash != "not-a-real-hash" {
		t.Fatalf("unexpected user by id: %+v", byID)
	}

	_, err = repo.CreateUser(ctx, CreateUserParams{
		Email:        strings.ToUpper(mixed),
		FullName:     "Outra Paula",
		PasswordHash: "not-a-real-hash",
		Role:         RoleReviewer,
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail for a differently cased email, got %v", err)
	}

	if _, err := repo.GetUserByID(ctx, uuid.NewString()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, "ninguem-"+mixed); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
