package evaluation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hsepanel/form"
	"hsepanel/history"
	"hsepanel/status"
)

var (
	// ErrInvalidTransition signals an unmet precondition on status, reviewer or comments.
	ErrInvalidTransition = errors.New("evaluation: invalid transition")
	// ErrStoreUnavailable signals the form store could not be read or written.
	ErrStoreUnavailable = errors.New("evaluation: store unavailable")
)

// NotAvailable is the placeholder for missing finalized-view fields.
const NotAvailable = "N/A"

// Start moves a submitted form into review and assigns its reviewer. The
// record is left untouched when a precondition fails.
func Start(rec *form.Record, reviewer form.Actor, now time.Time) error {
	if rec == nil {
		return fmt.Errorf("%w: missing record", ErrInvalidTransition)
	}
	if rec.Status != status.Submitted {
		return fmt.Errorf("%w: cannot start evaluation from %q", ErrInvalidTransition, rec.Status)
	}
	reviewer.Name = strings.TrimSpace(reviewer.Name)
	reviewer.Email = strings.TrimSpace(reviewer.Email)
	if reviewer.Empty() {
		return fmt.Errorf("%w: reviewer name and email are required", ErrInvalidTransition)
	}

	rec.Status = status.InReview
	rec.Reviewer = &reviewer
	rec.History = history.RecordTransition(rec.History, status.InReview, reviewer, now)
	return nil
}

// Submit concludes an evaluation with result and comments, crediting the
// assigned reviewer. The record is left untouched when a precondition fails.
func Submit(rec *form.Record, result status.Status, comments string, now time.Time) error {
	if rec == nil {
		return fmt.Errorf("%w: missing record", ErrInvalidTransition)
	}
	if rec.Status != status.InReview {
		return fmt.Errorf("%w: cannot submit evaluation from %q", ErrInvalidTransition, rec.Status)
	}
	if !status.IsDecision(result) {
		return fmt.Errorf("%w: %q is not an evaluation result", ErrInvalidTransition, result)
	}
	comments = strings.TrimSpace(comments)
	if comments == "" {
		return fmt.Errorf("%w: comments are required", ErrInvalidTransition)
	}

	var actor form.Actor
	if rec.Reviewer != nil {
		actor = *rec.Reviewer
	}

	rec.Status = result
	rec.Comments = comments
	rec.History = history.RecordTransition(rec.History, result, actor, now)
	return nil
}

// FinalizedView is the read-only summary of a concluded evaluation.
type FinalizedView struct {
	ReviewerName  string        `json:"reviewerName"`
	ReviewerEmail string        `json:"reviewerEmail"`
	Result        status.Status `json:"result"`
	StartedAt     string        `json:"startedAt"`
	ConcludedAt   string        `json:"concludedAt"`
	Comments      string        `json:"comments"`
	Concluded     bool          `json:"concluded"`
}

// Finalized summarises the evaluation of rec. Missing data is reported as
// NotAvailable; it never fails, even for records that are not concluded.
func Finalized(rec form.Record) FinalizedView {
	view := FinalizedView{
		ReviewerName:  NotAvailable,
		ReviewerEmail: NotAvailable,
		Result:        rec.Status,
		StartedAt:     NotAvailable,
		ConcludedAt:   NotAvailable,
		Comments:      orNA(rec.Comments),
		Concluded:     status.IsDecision(rec.Status),
	}
	if rec.Reviewer != nil {
		view.ReviewerName = orNA(rec.Reviewer.Name)
		view.ReviewerEmail = orNA(rec.Reviewer.Email)
	}
	if e, ok := rec.History.Lookup(status.InReview); ok {
		view.StartedAt = orNA(e.Timestamp)
	}
	if view.Concluded {
		if e, ok := rec.History.Lookup(rec.Status); ok {
			view.ConcludedAt = orNA(e.Timestamp)
		}
	}
	return view
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}
