package evaluation

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"hsepanel/form"
	"hsepanel/history"
	"hsepanel/status"
)

var (
	reviewer = form.Actor{Name: "Ana Revisora", Email: "ana@example.com"}
	supplier = form.Actor{Name: "Metalúrgica Sul", Email: "contato@metalsul.com.br"}
	t0       = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
)

func submittedRecord() form.Record {
	return form.Record{
		ID:      7,
		Company: "Metalúrgica Sul",
		TaxID:   "12.345.678/0001-90",
		Status:  status.Submitted,
		History: history.RecordTransition(nil, status.Submitted, supplier, t0),
	}
}

func TestStart_Success(t *testing.T) {
	rec := submittedRecord()
	now := t0.Add(3 * time.Hour)

	if err := Start(&rec, reviewer, now); err != nil {
		t.Fatalf("start: unexpected error: %v", err)
	}

	if rec.Status != status.InReview {
		t.Fatalf("expected status %q got %q", status.InReview, rec.Status)
	}
	if rec.Reviewer == nil || *rec.Reviewer != reviewer {
		t.Fatalf("expected reviewer %+v got %+v", reviewer, rec.Reviewer)
	}
	entry, ok := rec.History.Lookup(status.InReview)
	if !ok {
		t.Fatal("expected history entry for review start")
	}
	if got, _ := entry.Time(); !got.Equal(now) || entry.ActorEmail != reviewer.Email {
		t.Fatalf("unexpected history entry: %+v", entry)
	}
}

func TestStart_RejectsWrongStatusWithoutMutation(t *testing.T) {
	for _, st := range []status.Status{status.InProgress, status.InReview, status.Approved, status.Rejected, status.PendingInfo} {
		rec := submittedRecord()
		rec.Status = st
		before := rec
		beforeHistory := len(rec.History)

		err := Start(&rec, reviewer, t0)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("status %q: expected ErrInvalidTransition, got %v", st, err)
		}
		if rec.Status != before.Status || rec.Reviewer != nil || len(rec.History) != beforeHistory {
			t.Fatalf("status %q: record mutated on failure: %+v", st, rec)
		}
	}
}

func TestStart_RequiresReviewer(t *testing.T) {
	rec := submittedRecord()

	if err := Start(&rec, form.Actor{Name: "Ana"}, t0); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := Start(&rec, form.Actor{Name: "  ", Email: "ana@example.com"}, t0); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for blank name, got %v", err)
	}
	if rec.Status != status.Submitted {
		t.Fatalf("expected record untouched, got status %q", rec.Status)
	}
}

func TestSubmit_Rejection(t *testing.T) {
	rec := submittedRecord()
	if err := Start(&rec, reviewer, t0.Add(time.Hour)); err != nil {
		t.Fatalf("start: %v", err)
	}
	decidedAt := t0.Add(26 * time.Hour)

	if err := Submit(&rec, status.Rejected, "missing NR-12 cert", decidedAt); err != nil {
		t.Fatalf("submit: unexpected error: %v", err)
	}

	if rec.Status != status.Rejected {
		t.Fatalf("expected status %q got %q", status.Rejected, rec.Status)
	}
	if rec.Comments != "missing NR-12 cert" {
		t.Fatalf("unexpected comments %q", rec.Comments)
	}
	entry, ok := rec.History.Lookup(status.Rejected)
	if !ok {
		t.Fatal("expected history entry for rejection")
	}
	if entry.ActorName != reviewer.Name {
		t.Fatalf("expected reviewer credited, got %+v", entry)
	}
}

func TestSubmit_Preconditions(t *testing.T) {
	inReview := submittedRecord()
	if err := Start(&inReview, reviewer, t0); err != nil {
		t.Fatalf("start: %v", err)
	}

	cases := []struct {
		name     string
		rec      form.Record
		result   status.Status
		comments string
	}{
		{"empty comments", inReview, status.Approved, ""},
		{"blank comments", inReview, status.Approved, "   \n"},
		{"not a decision", inReview, status.Submitted, "ok"},
		{"unknown result", inReview, status.Status("Arquivado"), "ok"},
		{"not in review", submittedRecord(), status.Approved, "ok"},
	}
	for _, tc := range cases {
		rec := tc.rec
		rec.History = cloneLog(tc.rec.History)
		before := cloneLog(rec.History)

		err := Submit(&rec, tc.result, tc.comments, t0.Add(time.Hour))
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s: expected ErrInvalidTransition, got %v", tc.name, err)
		}
		if rec.Status != tc.rec.Status || rec.Comments != "" || !reflect.DeepEqual(rec.History, before) {
			t.Fatalf("%s: record mutated on failure: %+v", tc.name, rec)
		}
	}
}

func TestFinalized(t *testing.T) {
	rec := submittedRecord()
	started := t0.Add(time.Hour)
	concluded := t0.Add(50 * time.Hour)
	if err := Start(&rec, reviewer, started); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := Submit(&rec, status.Approved, "Documentação completa", concluded); err != nil {
		t.Fatalf("submit: %v", err)
	}

	view := Finalized(rec)

	if !view.Concluded || view.Result != status.Approved {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.ReviewerName != reviewer.Name || view.ReviewerEmail != reviewer.Email {
		t.Fatalf("unexpected reviewer in view: %+v", view)
	}
	if view.StartedAt != rec.History[status.InReview].Timestamp {
		t.Fatalf("expected startedAt %q got %q", rec.History[status.InReview].Timestamp, view.StartedAt)
	}
	if view.ConcludedAt != rec.History[status.Approved].Timestamp {
		t.Fatalf("expected concludedAt %q got %q", rec.History[status.Approved].Timestamp, view.ConcludedAt)
	}
	if view.Comments != "Documentação completa" {
		t.Fatalf("unexpected comments %q", view.Comments)
	}
}

func TestFinalized_MissingDataDefaults(t *testing.T) {
	view := Finalized(form.Record{Status: status.PendingInfo})

	for name, got := range map[string]string{
		"reviewerName":  view.ReviewerName,
		"reviewerEmail": view.ReviewerEmail,
		"startedAt":     view.StartedAt,
		"concludedAt":   view.ConcludedAt,
		"comments":      view.Comments,
	} {
		if got != NotAvailable {
			t.Errorf("%s: expected %q got %q", name, NotAvailable, got)
		}
	}
	if !view.Concluded {
		t.Fatal("expected pending info to count as concluded")
	}

	open := Finalized(form.Record{Status: status.InReview})
	if open.Concluded || open.ConcludedAt != NotAvailable {
		t.Fatalf("expected open evaluation view, got %+v", open)
	}
}

func cloneLog(l history.Log) history.Log {
	out := history.Log{}
	for k, v := range l {
		out[k] = v
	}
	return out
}
