package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hsepanel/auth"
	"hsepanel/document"
	"hsepanel/form"
	"hsepanel/history"
	"hsepanel/status"
	"hsepanel/timeline"
)

type userResponse struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type formResponse struct {
	ID        int64          `json:"id"`
	Company   string         `json:"company"`
	TaxID     string         `json:"taxId"`
	Status    status.Status  `json:"status"`
	Display   status.Display `json:"display"`
	Answers   form.Answers   `json:"answers,omitempty"`
	History   history.Log    `json:"history"`
	Reviewer  *form.Actor    `json:"reviewer,omitempty"`
	Comments  string         `json:"comments,omitempty"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

type stepResponse struct {
	timeline.Step
	Display status.Display `json:"display"`
}

type timelineResponse struct {
	Steps        []stepResponse `json:"steps"`
	TotalElapsed string         `json:"totalElapsed"`
}

type summaryItem struct {
	Status  status.Status  `json:"status"`
	Display status.Display `json:"display"`
	Count   int            `json:"count"`
}

func newFormResponse(rec form.Record, withAnswers bool) formResponse {
	resp := formResponse{
		ID:        rec.ID,
		Company:   rec.Company,
		TaxID:     rec.TaxID,
		Status:    rec.Status,
		Display:   status.Lookup(rec.Status),
		History:   rec.History,
		Reviewer:  rec.Reviewer,
		Comments:  rec.Comments,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if resp.History == nil {
		resp.History = history.Log{}
	}
	if withAnswers {
		resp.Answers = rec.Answers
	}
	return resp
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.authService.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token: res.Token,
		User:  userResponse{ID: res.User.ID, Name: res.User.FullName, Email: res.User.Email, Role: res.User.Role},
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	writeJSON(w, http.StatusOK, userResponse{ID: id.UserID, Name: id.Name, Email: id.Email, Role: id.Role})
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := form.Filters{Company: strings.TrimSpace(q.Get("company"))}
	if raw := q.Get("status"); raw != "" {
		st, err := status.Parse(raw)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		filters.Status = st
	}
	for key, dst := range map[string]*int{"page": &filters.Page, "pageSize": &filters.PageSize} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid "+key)
			return
		}
		*dst = n
	}

	filters = filters.Normalize()
	records, total, err := s.formStore.List(r.Context(), filters)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	items := make([]formResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, newFormResponse(rec, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":    items,
		"total":    total,
		"page":     filters.Page,
		"pageSize": filters.PageSize,
	})
}

func (s *Server) handleFormSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := s.formStore.CountByStatus(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	items := make([]summaryItem, 0, len(counts))
	total := 0
	for _, st := range status.All() {
		items = append(items, summaryItem{Status: st, Display: status.Lookup(st), Count: counts[st]})
		total += counts[st]
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (s *Server) loadForm(w http.ResponseWriter, r *http.Request) (form.Record, bool) {
	id, ok := formID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid form id")
		return form.Record{}, false
	}
	rec, err := s.formStore.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return form.Record{}, false
	}
	return rec, true
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadForm(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newFormResponse(rec, true))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadForm(w, r)
	if !ok {
		return
	}
	tl := timeline.Reconstruct(rec.History, rec.Status, s.clock())
	resp := timelineResponse{Steps: make([]stepResponse, 0, len(tl.Steps)), TotalElapsed: tl.TotalElapsed}
	for _, step := range tl.Steps {
		resp.Steps = append(resp.Steps, stepResponse{Step: step, Display: status.Lookup(step.Status)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadForm(w, r)
	if !ok {
		return
	}
	html, err := document.Render(rec, s.clock())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, html); err != nil {
		log.Printf("http: write document for form %d: %v", rec.ID, err)
	}
}

func (s *Server) handleFinalized(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid form id")
		return
	}
	view, err := s.evaluations.Finalized(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStartEvaluation(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid form id")
		return
	}
	var req struct {
		ReviewerName  string `json:"reviewerName"`
		ReviewerEmail string `json:"reviewerEmail"`
	}
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reviewer := form.Actor{Name: req.ReviewerName, Email: req.ReviewerEmail}
	if reviewer.Name == "" && reviewer.Email == "" {
		caller, _ := identityFrom(r.Context())
		reviewer = form.Actor{Name: caller.Name, Email: caller.Email}
	}

	rec, err := s.evaluations.Start(r.Context(), id, reviewer)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFormResponse(rec, false))
}

func (s *Server) handleSubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid form id")
		return
	}
	var req struct {
		Result   status.Status `json:"result"`
		Comments string        `json:"comments"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.evaluations.Submit(r.Context(), id, req.Result, req.Comments)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFormResponse(rec, false))
}
