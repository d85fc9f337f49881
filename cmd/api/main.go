package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hsepanel/auth"
	"hsepanel/config"
	"hsepanel/db"
	"hsepanel/evaluation"
	"hsepanel/form"
	"hsepanel/gelf"
	"hsepanel/invite"
	"hsepanel/notify"
	"hsepanel/team"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if cfg.GelfAddr != "" {
		w, err := gelf.New(cfg.GelfAddr, "hsepanel")
		if err != nil {
			log.Printf("warning: gelf init failed: %v", err)
		} else {
			defer w.Close()
			log.SetOutput(io.MultiWriter(os.Stderr, w))
			log.Printf("gelf logging enabled (%s)", cfg.GelfAddr)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	authService := auth.NewService(auth.NewRepository(pool), cfg.JWTSecret)
	if cfg.SeedAdmin() {
		if err := authService.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminName, cfg.AdminPassword); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
	}

	forms := form.NewRepository(pool)
	notifications := notify.NewService(notify.NewRepository(pool))
	server := &Server{
		authService:   authService,
		formStore:     forms,
		evaluations:   evaluation.NewService(forms).WithSettings(notifications),
		teamService:   team.NewService(team.NewRepository(pool)),
		inviteService: invite.NewService(invite.NewRepository(pool)),
		notifyService: notifications,
		now:           time.Now,
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("hse panel api listening on %s", cfg.HTTPAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("serve: %v", err)
	}
}
