package status

import (
	"errors"
	"fmt"
)

// Status is the workflow state of a supplier HSE form.
type Status string

const (
	InProgress  Status = "Em Andamento"
	Submitted   Status = "Enviado"
	InReview    Status = "Em Análise"
	Approved    Status = "Aprovado"
	Rejected    Status = "Rejeitado"
	PendingInfo Status = "Pendente Informações"
)

// ErrUnknown is returned by Parse for values outside the vocabulary.
var ErrUnknown = errors.New("status: unknown value")

// Display holds the presentation metadata of a status.
type Display struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var ordered = []Status{InProgress, Submitted, InReview, Approved, Rejected, PendingInfo}

var displays = map[Status]Display{
	InProgress:  {Label: "Em Andamento", Icon: "Edit", Color: "#8a8886"},
	Submitted:   {Label: "Enviado", Icon: "Send", Color: "#0078d4"},
	InReview:    {Label: "Em Análise", Icon: "Search", Color: "#ffaa44"},
	Approved:    {Label: "Aprovado", Icon: "CheckMark", Color: "#107c10"},
	Rejected:    {Label: "Rejeitado", Icon: "Cancel", Color: "#d13438"},
	PendingInfo: {Label: "Pendente Informações", Icon: "Warning", Color: "#ca5010"},
}

var neutral = Display{Label: "Desconhecido", Icon: "Help", Color: "#605e5c"}

// All returns the vocabulary in workflow order.
func All() []Status {
	out := make([]Status, len(ordered))
	copy(out, ordered)
	return out
}

// Valid reports whether s belongs to the vocabulary.
func Valid(s Status) bool {
	_, ok := displays[s]
	return ok
}

// Parse converts raw into a Status, rejecting values outside the vocabulary.
func Parse(raw string) (Status, error) {
	s := Status(raw)
	if !Valid(s) {
		return "", fmt.Errorf("%w: %q", ErrUnknown, raw)
	}
	return s, nil
}

// IsDecision reports whether s is a possible outcome of an evaluation.
func IsDecision(s Status) bool {
	switch s {
	case Approved, Rejected, PendingInfo:
		return true
	default:
		return false
	}
}

// Lookup returns the display metadata for s. Unknown values get a neutral
// display carrying the raw value as label when there is one.
func Lookup(s Status) Display {
	if d, ok := displays[s]; ok {
		return d
	}
	d := neutral
	if s != "" {
		d.Label = string(s)
	}
	return d
}
