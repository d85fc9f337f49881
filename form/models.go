package form

import (
	"encoding/json"
	"fmt"
	"time"

	"hsepanel/history"
	"hsepanel/status"
)

// Actor is a person acting on a form (reviewer, supplier contact).
type Actor = history.Actor

// Answers is the open-ended section → question → response tree submitted by
// the supplier. No schema is enforced at this layer.
type Answers map[string]any

// Section returns the answers of one category when it holds an object.
func (a Answers) Section(key string) (map[string]any, bool) {
	v, ok := a[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// DecodeAnswers parses the persisted JSON form of the answers.
func DecodeAnswers(raw []byte) (Answers, error) {
	answers := Answers{}
	if len(raw) == 0 || string(raw) == "null" {
		return answers, nil
	}
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("form: decode answers: %w", err)
	}
	return answers, nil
}

// Record mirrors one supplier HSE submission and its review state.
type Record struct {
	ID        int64         `json:"id"`
	Company   string        `json:"company"`
	TaxID     string        `json:"taxId"`
	Status    status.Status `json:"status"`
	Answers   Answers       `json:"answers"`
	History   history.Log   `json:"history"`
	Reviewer  *Actor        `json:"reviewer,omitempty"`
	Comments  string        `json:"comments,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// CreateParams carries the intake data of a new submission.
type CreateParams struct {
	Company string
	TaxID   string
	Status  status.Status
	Answers Answers
	History history.Log
}

// Event is an outbox message written in the same transaction as a Patch.
type Event struct {
	Topic   string
	Payload map[string]any
}

// Patch lists the mutable fields to overwrite. Nil fields are left as is.
type Patch struct {
	Status   *status.Status
	Reviewer *Actor
	Comments *string
	History  history.Log
	Event    *Event
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && p.Reviewer == nil && p.Comments == nil && p.History == nil
}

// Filters narrows a listing.
type Filters struct {
	Status   status.Status
	Company  string
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize applies the paging defaults.
func (f Filters) Normalize() Filters {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > MaxPageSize {
		f.PageSize = DefaultPageSize
	}
	return f
}

const (
	// OutboxTopicStatusChanged is published whenever a form changes status.
	OutboxTopicStatusChanged = "form.status_changed"
)
