package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"hsepanel/form"
	"hsepanel/notify"
	"hsepanel/status"
)

// Store is the subset of the form store the workflow needs.
type Store interface {
	Get(ctx context.Context, id int64) (form.Record, error)
	Update(ctx context.Context, id int64, patch form.Patch) error
}

// SettingsSource supplies the notification settings applied to status events.
type SettingsSource interface {
	GetSettings(ctx context.Context) (notify.Settings, error)
}

// Service loads a form, applies a transition and writes it back in a single
// update. Concurrent reviewers are not detected: the last write wins.
type Service struct {
	store    Store
	settings SettingsSource
	now      func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithSettings makes status events honour saved notification settings.
// Without a source DefaultSettings apply.
func (s *Service) WithSettings(src SettingsSource) *Service {
	s.settings = src
	return s
}

// Start assigns reviewer to form id and moves it into review.
func (s *Service) Start(ctx context.Context, id int64, reviewer form.Actor) (form.Record, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return form.Record{}, err
	}
	previous := rec.Status

	if err := Start(&rec, reviewer, s.now()); err != nil {
		return form.Record{}, err
	}

	patch := form.Patch{
		Status:   &rec.Status,
		Reviewer: rec.Reviewer,
		History:  rec.History,
		Event:    statusChanged(rec, previous, *rec.Reviewer, s.notifySettings(ctx)),
	}
	if err := s.save(ctx, id, patch); err != nil {
		return form.Record{}, err
	}
	return rec, nil
}

// Submit concludes the evaluation of form id.
func (s *Service) Submit(ctx context.Context, id int64, result status.Status, comments string) (form.Record, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return form.Record{}, err
	}
	previous := rec.Status

	if err := Submit(&rec, result, comments, s.now()); err != nil {
		return form.Record{}, err
	}

	var actor form.Actor
	if rec.Reviewer != nil {
		actor = *rec.Reviewer
	}
	patch := form.Patch{
		Status:   &rec.Status,
		Comments: &rec.Comments,
		History:  rec.History,
		Event:    statusChanged(rec, previous, actor, s.notifySettings(ctx)),
	}
	if err := s.save(ctx, id, patch); err != nil {
		return form.Record{}, err
	}
	return rec, nil
}

// Finalized returns the finalized view of form id.
func (s *Service) Finalized(ctx context.Context, id int64) (FinalizedView, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return FinalizedView{}, err
	}
	return Finalized(rec), nil
}

func (s *Service) load(ctx context.Context, id int64) (form.Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, form.ErrNotFound) {
			return form.Record{}, err
		}
		return form.Record{}, fmt.Errorf("%w: load form %d: %w", ErrStoreUnavailable, id, err)
	}
	return rec, nil
}

func (s *Service) save(ctx context.Context, id int64, patch form.Patch) error {
	if err := s.store.Update(ctx, id, patch); err != nil {
		if errors.Is(err, form.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: update form %d: %w", ErrStoreUnavailable, id, err)
	}
	return nil
}

// notifySettings falls back to defaults when settings cannot be read so a
// settings outage never blocks an evaluation.
func (s *Service) notifySettings(ctx context.Context) notify.Settings {
	if s.settings == nil {
		return notify.DefaultSettings()
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		log.Printf("evaluation: load notification settings: %v; using defaults", err)
		return notify.DefaultSettings()
	}
	return settings
}

func statusChanged(rec form.Record, previous status.Status, actor form.Actor, settings notify.Settings) *form.Event {
	payload := map[string]any{
		"form_id":         rec.ID,
		"company":         rec.Company,
		"previous_status": previous,
		"next_status":     rec.Status,
		"actor_name":      actor.Name,
		"actor_email":     actor.Email,
		"notify":          false,
	}
	if key, ok := notify.TemplateForStatus(rec.Status); ok && settings.Notifies(rec.Status) {
		payload["notify"] = true
		payload["template"] = string(key)
		payload["recipients"] = settings.Recipients
	}
	return &form.Event{Topic: form.OutboxTopicStatusChanged, Payload: payload}
}
