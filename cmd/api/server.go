package main

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"hsepanel/auth"
	"hsepanel/evaluation"
	"hsepanel/form"
	"hsepanel/invite"
	"hsepanel/notify"
	"hsepanel/status"
	"hsepanel/team"
)

type authService interface {
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

type formStore interface {
	Get(ctx context.Context, id int64) (form.Record, error)
	List(ctx context.Context, filters form.Filters) ([]form.Record, int, error)
	CountByStatus(ctx context.Context) (map[status.Status]int, error)
}

type evaluationService interface {
	Start(ctx context.Context, id int64, reviewer form.Actor) (form.Record, error)
	Submit(ctx context.Context, id int64, result status.Status, comments string) (form.Record, error)
	Finalized(ctx context.Context, id int64) (evaluation.FinalizedView, error)
}

type teamService interface {
	List(ctx context.Context, includeInactive bool) ([]team.Member, error)
	Update(ctx context.Context, actorID, id string, params team.UpdateParams) (team.Member, error)
}

type inviteService interface {
	List(ctx context.Context, status invite.Status) ([]invite.Invite, error)
	Create(ctx context.Context, params invite.CreateParams) (invite.Invite, error)
	Revoke(ctx context.Context, id string) (invite.Invite, error)
}

type notifyService interface {
	ListTemplates(ctx context.Context) ([]notify.Template, error)
	GetTemplate(ctx context.Context, key notify.TemplateKey) (notify.Template, error)
	SaveTemplate(ctx context.Context, t notify.Template) (notify.Template, error)
	GetSettings(ctx context.Context) (notify.Settings, error)
	SaveSettings(ctx context.Context, s notify.Settings) (notify.Settings, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	authService   authService
	formStore     formStore
	evaluations   evaluationService
	teamService   teamService
	inviteService inviteService
	notifyService notifyService
	now           func() time.Time
}

func (s *Server) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(recoverer)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/me", s.handleMe)

			r.Get("/forms", s.handleListForms)
			r.Get("/forms/summary", s.handleFormSummary)
			r.Route("/forms/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetForm)
				r.Get("/timeline", s.handleTimeline)
				r.Get("/evaluation", s.handleFinalized)
				r.Get("/document", s.handleDocument)
				r.With(requireReviewer).Post("/evaluation/start", s.handleStartEvaluation)
				r.With(requireReviewer).Post("/evaluation/submit", s.handleSubmitEvaluation)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Get("/team", s.handleListTeam)
				r.Post("/team", s.handleRegisterMember)
				r.Patch("/team/{id}", s.handleUpdateMember)

				r.Get("/invites", s.handleListInvites)
				r.Post("/invites", s.handleCreateInvite)
				r.Delete("/invites/{id}", s.handleRevokeInvite)

				r.Get("/email-templates", s.handleListTemplates)
				r.Get("/email-templates/{key}", s.handleGetTemplate)
				r.Put("/email-templates/{key}", s.handleSaveTemplate)
				r.Post("/email-templates/{key}/preview", s.handlePreviewTemplate)

				r.Get("/settings/notifications", s.handleGetSettings)
				r.Put("/settings/notifications", s.handleSaveSettings)
			})
		})
	})
	return r
}
