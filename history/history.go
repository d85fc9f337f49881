package history

import (
	"encoding/json"
	"fmt"
	"time"

	"hsepanel/status"
)

// TimestampLayout is the ISO-8601 layout used for persisted entries.
const TimestampLayout = time.RFC3339Nano

// Actor identifies whoever caused a transition.
type Actor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Empty reports whether the actor lacks a name or an email.
func (a Actor) Empty() bool {
	return a.Name == "" || a.Email == ""
}

// Entry is the most recent time a status was entered.
type Entry struct {
	Timestamp  string `json:"timestamp"`
	ActorName  string `json:"actorName"`
	ActorEmail string `json:"actorEmail"`
}

// Time parses the entry timestamp.
func (e Entry) Time() (time.Time, error) {
	t, err := time.Parse(TimestampLayout, e.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("history: parse timestamp %q: %w", e.Timestamp, err)
	}
	return t, nil
}

// Log maps a status name to the last time it was entered. Re-entering a
// status overwrites its previous entry.
type Log map[status.Status]Entry

// RecordTransition returns a copy of log with the entry for s set to the
// given actor and time. The input log is not modified.
func RecordTransition(log Log, s status.Status, actor Actor, when time.Time) Log {
	out := make(Log, len(log)+1)
	for k, v := range log {
		out[k] = v
	}
	out[s] = Entry{
		Timestamp:  when.UTC().Format(TimestampLayout),
		ActorName:  actor.Name,
		ActorEmail: actor.Email,
	}
	return out
}

// Lookup returns the entry for s, if any.
func (l Log) Lookup(s status.Status) (Entry, bool) {
	e, ok := l[s]
	return e, ok
}

// Decode parses the persisted JSON form. Empty input yields an empty log.
func Decode(raw []byte) (Log, error) {
	log := Log{}
	if len(raw) == 0 || string(raw) == "null" {
		return log, nil
	}
	if err := json.Unmarshal(raw, &log); err != nil {
		return nil, fmt.Errorf("history: decode: %w", err)
	}
	return log, nil
}

// Encode returns the persisted JSON form.
func (l Log) Encode() ([]byte, error) {
	if l == nil {
		l = Log{}
	}
	b, err := json.Marshal(map[status.Status]Entry(l))
	if err != nil {
		return nil, fmt.Errorf("history: encode: %w", err)
	}
	return b, nil
}
