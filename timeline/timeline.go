package timeline

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"hsepanel/history"
	"hsepanel/status"
)

// SystemActor is reported when a step had to be synthesized.
const SystemActor = "System"

// ErrMalformedEntry marks a history entry whose timestamp cannot be parsed.
// Reconstruct only logs it.
var ErrMalformedEntry = errors.New("timeline: malformed history entry")

// Step is one displayable transition.
type Step struct {
	Status          status.Status `json:"status"`
	Timestamp       time.Time     `json:"timestamp"`
	ActorName       string        `json:"actorName"`
	ActorEmail      string        `json:"actorEmail"`
	Duration        string        `json:"duration,omitempty"`
	IsCurrentStatus bool          `json:"isCurrentStatus"`
}

// Timeline is the ordered reconstruction of a history log.
type Timeline struct {
	Steps        []Step `json:"steps"`
	TotalElapsed string `json:"totalElapsed"`
}

// Reconstruct orders the log by timestamp and computes the time spent in
// each status. An empty log yields a single synthesized step for current.
// A log holding an unparseable timestamp yields an empty timeline.
func Reconstruct(h history.Log, current status.Status, now time.Time) Timeline {
	if len(h) == 0 {
		return Timeline{
			Steps: []Step{{
				Status:          current,
				Timestamp:       now,
				ActorName:       SystemActor,
				IsCurrentStatus: true,
			}},
			TotalElapsed: FormatElapsed(0),
		}
	}

	steps := make([]Step, 0, len(h))
	for s, entry := range h {
		ts, err := entry.Time()
		if err != nil {
			log.Printf("timeline: skipping reconstruction: %v", fmt.Errorf("%w: status %q: %v", ErrMalformedEntry, s, err))
			return Timeline{Steps: []Step{}}
		}
		steps = append(steps, Step{
			Status:          s,
			Timestamp:       ts,
			ActorName:       entry.ActorName,
			ActorEmail:      entry.ActorEmail,
			IsCurrentStatus: s == current,
		})
	}

	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Timestamp.Equal(steps[j].Timestamp) {
			return steps[i].Status < steps[j].Status
		}
		return steps[i].Timestamp.Before(steps[j].Timestamp)
	})

	last := len(steps) - 1
	for i := 0; i < last; i++ {
		steps[i].Duration = FormatDuration(steps[i+1].Timestamp.Sub(steps[i].Timestamp))
	}
	if steps[last].Status != current {
		steps[last].Duration = FormatDuration(now.Sub(steps[last].Timestamp))
	}

	return Timeline{
		Steps:        steps,
		TotalElapsed: FormatElapsed(steps[last].Timestamp.Sub(steps[0].Timestamp)),
	}
}

// Current returns the step flagged as the current status.
func (t Timeline) Current() (Step, bool) {
	for _, s := range t.Steps {
		if s.IsCurrentStatus {
			return s, true
		}
	}
	return Step{}, false
}

func split(d time.Duration) (days, hours, minutes int) {
	if d < 0 {
		d = 0
	}
	days = int(d / (24 * time.Hour))
	hours = int(d % (24 * time.Hour) / time.Hour)
	minutes = int(d % time.Hour / time.Minute)
	return days, hours, minutes
}

// FormatDuration renders a step duration as "2d 3h", "5h" or "42m".
func FormatDuration(d time.Duration) string {
	days, hours, minutes := split(d)
	switch {
	case days >= 1:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours >= 1:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// FormatElapsed renders a total in the coarsest applicable unit pair, e.g.
// "2 dias, 3 horas".
func FormatElapsed(d time.Duration) string {
	days, hours, minutes := split(d)
	switch {
	case days >= 1:
		return plural(days, "dia", "dias") + ", " + plural(hours, "hora", "horas")
	case hours >= 1:
		return plural(hours, "hora", "horas") + ", " + plural(minutes, "minuto", "minutos")
	default:
		return plural(minutes, "minuto", "minutos")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
