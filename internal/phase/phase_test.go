package phase

import (
	"testing"
	"time"

	"tankboard/internal/models"
)

const cooldown = 10 * 24 * time.Hour

var t0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// TestResolve_AutoDerivation covers the time-based phase derivation
func TestResolve_AutoDerivation(t *testing.T) {
	start := "2026-03-01"
	end := "2026-03-21" // 20 day window, cooldown starts day 10

	tests := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{name: "at start", now: t0, want: Fermenting},
		{name: "mid fermentation", now: t0.Add(days(5)), want: Fermenting},
		{name: "just before cooldown", now: t0.Add(days(10) - time.Second), want: Fermenting},
		{name: "cooldown boundary", now: t0.Add(days(10)), want: Cooling},
		{name: "inside cooldown", now: t0.Add(days(15)), want: Cooling},
		{name: "at end", now: t0.Add(days(20)), want: Cooling},
		{name: "after end", now: t0.Add(days(20) + time.Second), want: Ready},
		{name: "well after end", now: t0.Add(days(40)), want: Ready},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(models.StatusAuto, start, end, tt.now, cooldown)
			if res.Phase != tt.want {
				t.Errorf("Resolve() phase = %v, want %v", res.Phase, tt.want)
			}
		})
	}
}

// TestResolve_OperatorOverride verifies explicit statuses win over
// time-based derivation
func TestResolve_OperatorOverride(t *testing.T) {
	// now is far past the end date; auto would say ready
	now := t0.Add(days(100))

	tests := []struct {
		status string
		want   Phase
	}{
		{status: models.StatusFermenting, want: Fermenting},
		{status: models.StatusCooling, want: Cooling},
		{status: models.StatusReady, want: Ready},
	}

	for _, tt := range tests {
		res := Resolve(tt.status, "2026-03-01", "2026-03-21", now, cooldown)
		if res.Phase != tt.want {
			t.Errorf("Resolve(status=%q) phase = %v, want %v", tt.status, res.Phase, tt.want)
		}
	}
}

// TestResolve_InvalidDates verifies fallbacks when dates do not parse
func TestResolve_InvalidDates(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantPhase  Phase
		wantProg   int
		wantDayNil bool
	}{
		{name: "no end date", start: "2026-03-01", end: "", wantPhase: Fermenting, wantProg: 0},
		{name: "garbage end date", start: "2026-03-01", end: "soon", wantPhase: Fermenting, wantProg: 0},
		{name: "no dates at all", start: "", end: "", wantPhase: Fermenting, wantProg: 0, wantDayNil: true},
		{name: "garbage start", start: "???", end: "2026-03-21", wantProg: 0, wantDayNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(models.StatusAuto, tt.start, tt.end, t0.Add(days(5)), cooldown)
			if tt.wantPhase != "" && res.Phase != tt.wantPhase {
				t.Errorf("phase = %v, want %v", res.Phase, tt.wantPhase)
			}
			if res.Progress != tt.wantProg {
				t.Errorf("progress = %d, want %d", res.Progress, tt.wantProg)
			}
			if tt.wantDayNil && res.Day != nil {
				t.Errorf("day = %v, want nil", *res.Day)
			}
		})
	}
}

// TestResolve_Progress verifies the elapsed percentage
func TestResolve_Progress(t *testing.T) {
	start := "2026-03-01"
	end := "2026-03-21"

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{name: "before start clamps to zero", now: t0.Add(-days(5)), want: 0},
		{name: "at start", now: t0, want: 0},
		{name: "quarter", now: t0.Add(days(5)), want: 25},
		{name: "half", now: t0.Add(days(10)), want: 50},
		{name: "at end", now: t0.Add(days(20)), want: 100},
		{name: "after end clamps to hundred", now: t0.Add(days(30)), want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(models.StatusAuto, start, end, tt.now, cooldown)
			if res.Progress != tt.want {
				t.Errorf("progress = %d, want %d", res.Progress, tt.want)
			}
		})
	}

	t.Run("end before start is degenerate", func(t *testing.T) {
		res := Resolve(models.StatusAuto, "2026-03-21", "2026-03-01", t0.Add(days(25)), cooldown)
		if res.Progress != 0 {
			t.Errorf("progress = %d, want 0 for inverted window", res.Progress)
		}
	})
}

// TestResolve_DayCount verifies the 1-based day counter
func TestResolve_DayCount(t *testing.T) {
	start := "2026-03-01"

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{name: "before start", now: t0.Add(-time.Hour), want: 0},
		{name: "first day", now: t0.Add(6 * time.Hour), want: 1},
		{name: "second day", now: t0.Add(days(1) + time.Hour), want: 2},
		{name: "day twelve", now: t0.Add(days(11) + time.Hour), want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(models.StatusAuto, start, "2026-03-21", tt.now, cooldown)
			if res.Day == nil {
				t.Fatal("day = nil, want value")
			}
			if *res.Day != tt.want {
				t.Errorf("day = %d, want %d", *res.Day, tt.want)
			}
		})
	}
}

// TestResolve_CoolStartClampedToStart verifies short windows where the
// cooldown would begin before fermentation started
func TestResolve_CoolStartClampedToStart(t *testing.T) {
	// 5 day window, 10 day cooldown: the whole window is cooldown
	res := Resolve(models.StatusAuto, "2026-03-01", "2026-03-06", t0.Add(days(1)), cooldown)
	if res.Phase != Cooling {
		t.Errorf("phase = %v, want cooling when cooldown spans the full window", res.Phase)
	}
	if !res.CoolStart.Equal(res.Start) {
		t.Errorf("coolStart = %v, want clamped to start %v", res.CoolStart, res.Start)
	}
}

// TestParseDate verifies accepted date formats
func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
	}{
		{"2026-03-01", true},
		{"2026-03-01T12:00:00Z", true},
		{"03/01/2026", false},
		{"tomorrow", false},
		{"", false},
	}

	for _, tt := range tests {
		if _, ok := ParseDate(tt.in); ok != tt.wantOK {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
		}
	}
}
