package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"hsepanel/form"
	"hsepanel/notify"
	"hsepanel/status"
)

func TestService_StartAndSubmit(t *testing.T) {
	store := newFakeStore(submittedRecord())
	now := t0.Add(2 * time.Hour)
	svc := NewService(store).WithClock(func() time.Time { return now })
	ctx := context.Background()

	rec, err := svc.Start(ctx, 7, reviewer)
	if err != nil {
		t.Fatalf("start: unexpected error: %v", err)
	}
	if rec.Status != status.InReview {
		t.Fatalf("expected %q got %q", status.InReview, rec.Status)
	}
	if len(store.updates) != 1 {
		t.Fatalf("expected a single store write, got %d", len(store.updates))
	}
	patch := store.updates[0]
	if patch.Status == nil || *patch.Status != status.InReview || patch.Reviewer == nil || patch.Comments != nil {
		t.Fatalf("unexpected start patch: %+v", patch)
	}
	if patch.Event == nil || patch.Event.Topic != form.OutboxTopicStatusChanged {
		t.Fatalf("expected status change event, got %+v", patch.Event)
	}
	if patch.Event.Payload["previous_status"] != status.Submitted {
		t.Fatalf("unexpected event payload: %+v", patch.Event.Payload)
	}

	now = now.Add(24 * time.Hour)
	rec, err = svc.Submit(ctx, 7, status.Rejected, "missing NR-12 cert")
	if err != nil {
		t.Fatalf("submit: unexpected error: %v", err)
	}
	if rec.Status != status.Rejected || rec.Comments != "missing NR-12 cert" {
		t.Fatalf("unexpected record after submit: %+v", rec)
	}
	stored := store.records[7]
	if stored.Status != status.Rejected {
		t.Fatalf("expected stored status %q got %q", status.Rejected, stored.Status)
	}
	if _, ok := stored.History.Lookup(status.Rejected); !ok {
		t.Fatal("expected stored history entry for rejection")
	}
	if got := store.updates[1].Event.Payload["template"]; got != "form_rejected" {
		t.Fatalf("expected rejection template key, got %v", got)
	}

	view, err := svc.Finalized(ctx, 7)
	if err != nil {
		t.Fatalf("finalized: %v", err)
	}
	if view.ReviewerEmail != reviewer.Email || view.Comments != "missing NR-12 cert" {
		t.Fatalf("unexpected finalized view: %+v", view)
	}
}

type fixedSettings struct {
	settings notify.Settings
	err      error
}

func (f fixedSettings) GetSettings(context.Context) (notify.Settings, error) {
	return f.settings, f.err
}

func TestService_EventsFollowNotificationSettings(t *testing.T) {
	ctx := context.Background()
	settings := notify.Settings{Enabled: true, NotifyOnSubmit: true, NotifyOnDecision: false, Recipients: []string{"hse@example.com"}}

	store := newFakeStore(submittedRecord())
	svc := NewService(store).WithSettings(fixedSettings{settings: settings})
	if _, err := svc.Start(ctx, 7, reviewer); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Submit(ctx, 7, status.Approved, "documentação ok"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	payload := store.updates[1].Event.Payload
	if payload["notify"] != false {
		t.Fatalf("expected decision emails disabled, got %+v", payload)
	}
	if _, ok := payload["template"]; ok {
		t.Fatalf("expected no template when not notifying, got %+v", payload)
	}

	settings.NotifyOnDecision = true
	store = newFakeStore(submittedRecord())
	svc = NewService(store).WithSettings(fixedSettings{settings: settings})
	if _, err := svc.Start(ctx, 7, reviewer); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Submit(ctx, 7, status.PendingInfo, "send ASO"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	payload = store.updates[1].Event.Payload
	if payload["notify"] != true || payload["template"] != "form_pending_info" {
		t.Fatalf("expected pending info email, got %+v", payload)
	}
	if got, ok := payload["recipients"].([]string); !ok || len(got) != 1 || got[0] != "hse@example.com" {
		t.Fatalf("expected recipients in payload, got %v", payload["recipients"])
	}
	if store.updates[0].Event.Payload["notify"] != false {
		t.Fatalf("entering review has no email, got %+v", store.updates[0].Event.Payload)
	}

	store = newFakeStore(submittedRecord())
	svc = NewService(store).WithSettings(fixedSettings{err: errors.New("settings table locked")})
	if _, err := svc.Start(ctx, 7, reviewer); err != nil {
		t.Fatalf("expected settings failure not to block start, got %v", err)
	}
	if _, err := svc.Submit(ctx, 7, status.Approved, "documentação ok"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if store.updates[1].Event.Payload["template"] != "form_approved" {
		t.Fatalf("expected defaults after settings failure, got %+v", store.updates[1].Event.Payload)
	}
}

func TestService_InvalidTransitionSkipsWrite(t *testing.T) {
	rec := submittedRecord()
	rec.Status = status.Approved
	store := newFakeStore(rec)
	svc := NewService(store)

	if _, err := svc.Start(context.Background(), 7, reviewer); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if len(store.updates) != 0 {
		t.Fatalf("expected no store writes, got %d", len(store.updates))
	}
	if store.records[7].Status != status.Approved {
		t.Fatal("expected stored record unchanged")
	}
}

func TestService_StoreFailures(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	svc := NewService(store)
	if _, err := svc.Start(ctx, 99, reviewer); !errors.Is(err, form.ErrNotFound) {
		t.Fatalf("expected form.ErrNotFound, got %v", err)
	}

	store = newFakeStore(submittedRecord())
	store.getErr = errors.New("connection refused")
	svc = NewService(store)
	if _, err := svc.Start(ctx, 7, reviewer); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on read, got %v", err)
	}

	store = newFakeStore(submittedRecord())
	store.updateErr = errors.New("timeout")
	svc = NewService(store)
	if _, err := svc.Start(ctx, 7, reviewer); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on write, got %v", err)
	}
	if store.records[7].Status != status.Submitted {
		t.Fatal("expected stored record unchanged after failed write")
	}
}

type fakeStore struct {
	records   map[int64]form.Record
	updates   []form.Patch
	getErr    error
	updateErr error
}

func newFakeStore(recs ...form.Record) *fakeStore {
	f := &fakeStore{records: make(map[int64]form.Record)}
	for _, r := range recs {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeStore) Get(_ context.Context, id int64) (form.Record, error) {
	if f.getErr != nil {
		return form.Record{}, f.getErr
	}
	rec, ok := f.records[id]
	if !ok {
		return form.Record{}, form.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, patch form.Patch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	rec, ok := f.records[id]
	if !ok {
		return form.ErrNotFound
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.Reviewer != nil {
		r := *patch.Reviewer
		rec.Reviewer = &r
	}
	if patch.Comments != nil {
		rec.Comments = *patch.Comments
	}
	if patch.History != nil {
		rec.History = patch.History
	}
	f.records[id] = rec
	f.updates = append(f.updates, patch)
	return nil
}
