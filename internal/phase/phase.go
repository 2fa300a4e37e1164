// Package phase derives a tank's lifecycle stage from its start/end
// dates and the current time. Resolution is pure: nothing is stored,
// every read recomputes the phase from wall-clock time.
package phase

import (
	"time"

	"tankboard/internal/models"
)

// Phase is a tank's lifecycle stage
type Phase string

const (
	Fermenting Phase = "fermenting"
	Cooling    Phase = "cooling"
	Ready      Phase = "ready"
)

// Resolution carries the derived phase plus the timeline facts the
// view builder and temperature engine both need.
type Resolution struct {
	Phase      Phase
	Progress   int
	Day        *int
	Start      time.Time
	End        time.Time
	StartValid bool
	EndValid   bool
	CoolStart  time.Time
}

// ParseDate parses an operator-entered date string. Accepts plain
// dates (YYYY-MM-DD) and full RFC 3339 timestamps.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Resolve derives the phase for a record at the given instant. An
// explicit fermenting/cooling/ready status on the record overrides
// time-based derivation; cooldown is the trailing window before the
// end date during which the tank is considered cooling.
func Resolve(status, start, end string, now time.Time, cooldown time.Duration) Resolution {
	res := Resolution{}
	res.Start, res.StartValid = ParseDate(start)
	res.End, res.EndValid = ParseDate(end)

	res.Progress = progress(res, now)
	res.Day = dayCount(res, now)

	if res.EndValid {
		res.CoolStart = res.End.Add(-cooldown)
		if res.StartValid && res.CoolStart.Before(res.Start) {
			res.CoolStart = res.Start
		}
	}

	switch status {
	case models.StatusFermenting:
		res.Phase = Fermenting
		return res
	case models.StatusCooling:
		res.Phase = Cooling
		return res
	case models.StatusReady:
		res.Phase = Ready
		return res
	}

	switch {
	case !res.EndValid:
		res.Phase = Fermenting
	case now.After(res.End):
		res.Phase = Ready
	case !now.Before(res.CoolStart):
		res.Phase = Cooling
	default:
		res.Phase = Fermenting
	}

	return res
}

// progress is the percentage of the start-to-end window elapsed at
// now, clamped to [0,100]. Defined as 0 when either date is invalid
// or the window is degenerate.
func progress(res Resolution, now time.Time) int {
	if !res.StartValid || !res.EndValid {
		return 0
	}
	total := res.End.Sub(res.Start)
	if total <= 0 {
		return 0
	}
	elapsed := now.Sub(res.Start)
	pct := float64(elapsed) / float64(total) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return int(pct + 0.5)
}

// dayCount is the 1-based fermentation day: floor of full days since
// start plus one, floored at 0 before start, nil when start is invalid.
func dayCount(res Resolution, now time.Time) *int {
	if !res.StartValid {
		return nil
	}
	day := 0
	if !now.Before(res.Start) {
		day = int(now.Sub(res.Start).Hours()/24) + 1
	}
	return &day
}
