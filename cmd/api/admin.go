package main

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hsepanel/auth"
	"hsepanel/invite"
	"hsepanel/notify"
	"hsepanel/team"
)

type memberResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt string    `json:"createdAt"`
}

type inviteResponse struct {
	ID        string        `json:"id"`
	Company   string        `json:"company"`
	Email     string        `json:"email"`
	Token     string        `json:"token"`
	Status    invite.Status `json:"status"`
	Expired   bool          `json:"expired"`
	CreatedBy string        `json:"createdBy"`
	CreatedAt string        `json:"createdAt"`
	ExpiresAt string        `json:"expiresAt"`
}

func newMemberResponse(m team.Member) memberResponse {
	return memberResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      m.Role,
		Active:    m.Active,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) newInviteResponse(inv invite.Invite) inviteResponse {
	return inviteResponse{
		ID:        inv.ID,
		Company:   inv.Company,
		Email:     inv.Email,
		Token:     inv.Token,
		Status:    inv.Status,
		Expired:   inv.Expired(s.clock()),
		CreatedBy: inv.CreatedBy,
		CreatedAt: inv.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt: inv.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListTeam(w http.ResponseWriter, r *http.Request) {
	members, err := s.teamService.List(r.Context(), r.URL.Query().Get("includeInactive") == "true")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	items := make([]memberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, newMemberResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string    `json:"name"`
		Email    string    `json:"email"`
		Password string    `json:"password"`
		Role     auth.Role `json:"role"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.authService.Register(r.Context(), auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.Name,
		Role:     req.Role,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMemberResponse(team.Member{
		ID:        user.ID,
		Name:      user.FullName,
		Email:     user.Email,
		Role:      user.Role,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}))
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active *bool      `json:"active"`
		Role   *auth.Role `json:"role"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	caller, _ := identityFrom(r.Context())
	member, err := s.teamService.Update(r.Context(), caller.UserID, chi.URLParam(r, "id"), team.UpdateParams{
		Active: req.Active,
		Role:   req.Role,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberResponse(member))
}

func (s *Server) handleListInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := s.inviteService.List(r.Context(), invite.Status(r.URL.Query().Get("status")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	items := make([]inviteResponse, 0, len(invites))
	for _, inv := range invites {
		items = append(items, s.newInviteResponse(inv))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Company string `json:"company"`
		Email   string `json:"email"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	caller, _ := identityFrom(r.Context())
	inv, err := s.inviteService.Create(r.Context(), invite.CreateParams{
		Company:   req.Company,
		Email:     req.Email,
		CreatedBy: caller.Email,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.newInviteResponse(inv))
}

func (s *Server) handleRevokeInvite(w http.ResponseWriter, r *http.Request) {
	inv, err := s.inviteService.Revoke(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.newInviteResponse(inv))
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.notifyService.ListTemplates(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": templates})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.notifyService.GetTemplate(r.Context(), notify.TemplateKey(chi.URLParam(r, "key")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := s.notifyService.SaveTemplate(r.Context(), notify.Template{
		Key:     notify.TemplateKey(chi.URLParam(r, "key")),
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handlePreviewTemplate renders the stored template, or the unsaved subject
// and body sent in the request, with sample or supplied data.
func (s *Server) handlePreviewTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string              `json:"subject"`
		Body    string              `json:"body"`
		Data    *notify.PreviewData `json:"data"`
	}
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := s.notifyService.GetTemplate(r.Context(), notify.TemplateKey(chi.URLParam(r, "key")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Subject != "" {
		t.Subject = req.Subject
	}
	if req.Body != "" {
		t.Body = req.Body
	}
	data := notify.SamplePreviewData()
	if req.Data != nil {
		data = *req.Data
	}

	subject, body, err := notify.Preview(t, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"subject": subject, "body": body})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.notifyService.GetSettings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req notify.Settings
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	settings, err := s.notifyService.SaveSettings(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
