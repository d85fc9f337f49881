package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hsepanel/auth"
	"hsepanel/evaluation"
	"hsepanel/form"
	"hsepanel/invite"
	"hsepanel/notify"
	"hsepanel/status"
	"hsepanel/team"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func formID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError maps domain sentinels to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, form.ErrNotFound),
		errors.Is(err, team.ErrNotFound),
		errors.Is(err, invite.ErrNotFound),
		errors.Is(err, notify.ErrUnknownTemplate),
		errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, evaluation.ErrInvalidTransition),
		errors.Is(err, auth.ErrDuplicateEmail),
		errors.Is(err, invite.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, evaluation.ErrStoreUnavailable):
		log.Printf("http: store unavailable: %v", err)
		writeError(w, http.StatusServiceUnavailable, "form store unavailable")
	case errors.Is(err, invite.ErrBadStatus),
		errors.Is(err, invite.ErrInvalid),
		errors.Is(err, status.ErrUnknown),
		errors.Is(err, notify.ErrInvalidTemplate),
		errors.Is(err, notify.ErrInvalidRecipient),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidRegistration),
		errors.Is(err, team.ErrInvalidUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, team.ErrSelfModification):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInactiveUser):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		log.Printf("http: unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
