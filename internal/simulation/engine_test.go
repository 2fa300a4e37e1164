package simulation

import (
	"fmt"
	"math"
	"testing"
	"time"

	"tankboard/internal/models"
	"tankboard/internal/phase"
)

var t0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func testEngine() *Engine {
	return NewEngine(DefaultConfig())
}

func testRecord() models.TankRecord {
	return models.TankRecord{
		ID:     "F1",
		Show:   true,
		Start:  "2026-03-01",
		End:    "2026-03-21",
		Status: models.StatusAuto,
	}
}

func resolve(rec models.TankRecord, now time.Time) phase.Resolution {
	return phase.Resolve(rec.Status, rec.Start, rec.End, now, DefaultConfig().Cooldown)
}

// TestInitialState_DerivedTargets verifies the seeded target bands and
// their stability across engine instances
func TestInitialState_DerivedTargets(t *testing.T) {
	rec := testRecord()

	st := testEngine().InitialState("F1", rec, t0)

	if st.Setpoint < 18.2 || st.Setpoint > 19.9 {
		t.Errorf("setpoint = %g, want in [18.2, 19.9]", st.Setpoint)
	}
	if st.FinalTemp < 4.0 || st.FinalTemp > 5.0 {
		t.Errorf("finalTemp = %g, want in [4.0, 5.0]", st.FinalTemp)
	}
	if st.Current != st.Setpoint {
		t.Errorf("current = %g, want setpoint %g", st.Current, st.Setpoint)
	}

	// A second engine (a process restart) derives identical targets.
	again := testEngine().InitialState("F1", rec, t0)
	if again.Setpoint != st.Setpoint || again.FinalTemp != st.FinalTemp {
		t.Errorf("restart derived (%g, %g), want (%g, %g)",
			again.Setpoint, again.FinalTemp, st.Setpoint, st.FinalTemp)
	}

	// The derivation spreads tanks across the band rather than
	// assigning everyone the same value.
	seen := map[float64]bool{}
	for i := 1; i <= 20; i++ {
		s := testEngine().InitialState(fmt.Sprintf("F%d", i), rec, t0)
		seen[s.Setpoint] = true
	}
	if len(seen) < 2 {
		t.Errorf("setpoint derivation ignores tank id: all 20 tanks got %v", seen)
	}
}

// TestInitialState_ManualSetpoint verifies manual input wins over
// derivation
func TestInitialState_ManualSetpoint(t *testing.T) {
	rec := testRecord()
	rec.Temp = "18.5C"

	st := testEngine().InitialState("F1", rec, t0)
	if st.Setpoint != 18.5 {
		t.Errorf("setpoint = %g, want manual 18.5", st.Setpoint)
	}
	if st.Current != 18.5 {
		t.Errorf("current = %g, want manual 18.5", st.Current)
	}
}

// TestParseManualTemp verifies tolerant numeric extraction
func TestParseManualTemp(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"18.5", 18.5, true},
		{"18.5C", 18.5, true},
		{"18.5 °C", 18.5, true},
		{"19", 19, true},
		{"-2.5C", -2.5, true},
		{"", 0, false},
		{"cold", 0, false},
		{"C18.5", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseManualTemp(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseManualTemp(%q) = (%g, %v), want (%g, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

// TestObserve_BucketIdempotence verifies repeated reads within one
// bucket return the cached value unchanged
func TestObserve_BucketIdempotence(t *testing.T) {
	e := testEngine()
	rec := testRecord()

	first := e.Observe("F1", rec, resolve(rec, t0), nil, t0)
	if !first.Reset || !first.Updated {
		t.Fatalf("first observation = %+v, want reset+updated", first)
	}

	// 30 seconds later, same 60s bucket.
	later := t0.Add(30 * time.Second)
	second := e.Observe("F1", rec, resolve(rec, later), &first.State, later)

	if second.Updated {
		t.Error("second.Updated = true, want cached read")
	}
	if second.Value != first.Value {
		t.Errorf("second.Value = %g, want cached %g", second.Value, first.Value)
	}
	if second.State != first.State {
		t.Errorf("second.State = %+v, want unchanged %+v", second.State, first.State)
	}
}

// TestObserve_SameBucketDeterminism verifies two independent readers in
// the same bucket compute the same advanced value
func TestObserve_SameBucketDeterminism(t *testing.T) {
	rec := testRecord()
	now := t0.Add(days(12)) // cooling

	seed := testEngine().Observe("F1", rec, resolve(rec, t0), nil, t0)

	a := testEngine().Observe("F1", rec, resolve(rec, now), &seed.State, now)
	b := testEngine().Observe("F1", rec, resolve(rec, now), &seed.State, now)

	if a.State != b.State || a.Value != b.Value {
		t.Errorf("concurrent readers disagree: %+v vs %+v", a, b)
	}
}

// TestObserve_FermentingHoldsSetpoint verifies the steady phase
func TestObserve_FermentingHoldsSetpoint(t *testing.T) {
	e := testEngine()
	rec := testRecord()

	obs := e.Observe("F1", rec, resolve(rec, t0), nil, t0)
	for i := 1; i <= 10; i++ {
		now := t0.Add(time.Duration(i) * time.Minute)
		obs = e.Observe("F1", rec, resolve(rec, now), &obs.State, now)
		if obs.State.Current != obs.State.Setpoint {
			t.Fatalf("minute %d: current = %g, want setpoint %g", i, obs.State.Current, obs.State.Setpoint)
		}
	}
}

// TestObserve_CoolingBounds verifies the band clamp and the bounded
// step across bucket transitions
func TestObserve_CoolingBounds(t *testing.T) {
	e := testEngine()
	cfg := DefaultConfig()
	rec := testRecord()

	obs := e.Observe("F1", rec, resolve(rec, t0), nil, t0)

	// Read every 6 hours through the cooldown window.
	for now := t0.Add(days(10)); now.Before(t0.Add(days(20))); now = now.Add(6 * time.Hour) {
		prev := obs.State.Current
		obs = e.Observe("F1", rec, resolve(rec, now), &obs.State, now)

		if d := math.Abs(obs.State.Current - prev); d > cfg.MaxStepPerBucket+1e-9 {
			t.Fatalf("at %v: step %g exceeds bound %g", now, d, cfg.MaxStepPerBucket)
		}
		if obs.State.Current < obs.State.FinalTemp-1e-9 || obs.State.Current > obs.State.Setpoint+1e-9 {
			t.Fatalf("at %v: current %g outside [%g, %g]", now, obs.State.Current, obs.State.FinalTemp, obs.State.Setpoint)
		}
	}

	// By late cooldown the reading has visibly descended.
	if obs.State.Current > obs.State.Setpoint-0.5 {
		t.Errorf("current = %g, want well below setpoint %g after cooldown", obs.State.Current, obs.State.Setpoint)
	}
}

// TestObserve_DailyRateCeiling verifies the per-day rate cap scaled to
// the bucket duration during cooling
func TestObserve_DailyRateCeiling(t *testing.T) {
	e := testEngine()
	cfg := DefaultConfig()
	rec := testRecord()

	obs := e.Observe("F1", rec, resolve(rec, t0), nil, t0)

	// One-minute cadence: the allowed step is far below MaxStepPerBucket.
	now := t0.Add(days(12))
	obs = e.Observe("F1", rec, resolve(rec, now), &obs.State, now)

	prev := obs.State.Current
	now = now.Add(time.Minute)
	obs = e.Observe("F1", rec, resolve(rec, now), &obs.State, now)

	ceiling := cfg.MaxDailyCoolRate * time.Minute.Hours() / 24
	if d := math.Abs(obs.State.Current - prev); d > ceiling+1e-9 {
		t.Errorf("one-minute step %g exceeds scaled daily ceiling %g", d, ceiling)
	}
}

// TestObserve_TerminalLock verifies convergence to and hold at the
// final temperature once the end date has passed
func TestObserve_TerminalLock(t *testing.T) {
	e := testEngine()
	rec := testRecord()

	obs := e.Observe("F1", rec, resolve(rec, t0), nil, t0)
	final := obs.State.FinalTemp

	now := t0.Add(days(21))
	prev := obs.State.Current
	sawLock := false

	// Repeated reads converge: the full band is at most ~16 degrees at
	// 0.3 per bucket, so 60 buckets are plenty.
	for i := 0; i < 60; i++ {
		now = now.Add(time.Minute)
		obs = e.Observe("F1", rec, resolve(rec, now), &obs.State, now)

		if obs.State.Current > prev+1e-9 {
			t.Fatalf("iteration %d: current rose from %g to %g after end date", i, prev, obs.State.Current)
		}
		prev = obs.State.Current
		if obs.Locked {
			sawLock = true
		}
	}

	if obs.State.Current != final {
		t.Fatalf("current = %g, want exactly finalTemp %g", obs.State.Current, final)
	}
	if !sawLock {
		t.Error("never observed the terminal lock transition")
	}

	// Held exactly on subsequent reads.
	for i := 0; i < 5; i++ {
		now = now.Add(time.Minute)
		obs = e.Observe("F1", rec, resolve(rec, now), &obs.State, now)
		if obs.State.Current != final {
			t.Fatalf("current drifted to %g after lock, want %g", obs.State.Current, final)
		}
	}
}

// TestObserve_ResetOnInputChange verifies the trajectory is discarded
// when the operator edits the record's dates or manual temperature
func TestObserve_ResetOnInputChange(t *testing.T) {
	e := testEngine()
	rec := testRecord()

	obs := e.Observe("F1", rec, resolve(rec, t0), nil, t0)

	// Descend a little first.
	now := t0.Add(days(15))
	obs = e.Observe("F1", rec, resolve(rec, now), &obs.State, now)

	tests := []struct {
		name   string
		mutate func(*models.TankRecord)
	}{
		{name: "manual temp changed", mutate: func(r *models.TankRecord) { r.Temp = "19.0" }},
		{name: "start changed", mutate: func(r *models.TankRecord) { r.Start = "2026-03-02" }},
		{name: "end changed", mutate: func(r *models.TankRecord) { r.End = "2026-03-25" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edited := rec
			tt.mutate(&edited)

			next := e.Observe("F1", edited, resolve(edited, now), &obs.State, now)
			if !next.Reset {
				t.Fatal("Reset = false, want trajectory reset")
			}
			if next.State.Current != next.State.Setpoint {
				t.Errorf("current = %g, want reset to setpoint %g", next.State.Current, next.State.Setpoint)
			}
		})
	}

	t.Run("unchanged record keeps trajectory", func(t *testing.T) {
		next := e.Observe("F1", rec, resolve(rec, now), &obs.State, now)
		if next.Reset {
			t.Error("Reset = true for unchanged inputs")
		}
	})
}

// TestObserve_Scenario walks the canonical F1 lifecycle
func TestObserve_Scenario(t *testing.T) {
	e := testEngine()
	rec := testRecord() // start T0, end T0+20d, no manual temp

	// At T0: fermenting, temp equals the derived setpoint.
	obs := e.Observe("F1", rec, resolve(rec, t0), nil, t0)
	if res := resolve(rec, t0); res.Phase != phase.Fermenting {
		t.Fatalf("phase at T0 = %v, want fermenting", res.Phase)
	}
	if obs.State.Current != obs.State.Setpoint {
		t.Fatalf("temp at T0 = %g, want setpoint %g", obs.State.Current, obs.State.Setpoint)
	}
	if obs.State.Setpoint < 18.2 || obs.State.Setpoint > 19.9 {
		t.Fatalf("setpoint = %g, want in [18.2, 19.9]", obs.State.Setpoint)
	}

	// At T0+12d: cooling, strictly between final and setpoint.
	now := t0.Add(days(12))
	res := resolve(rec, now)
	if res.Phase != phase.Cooling {
		t.Fatalf("phase at T0+12d = %v, want cooling", res.Phase)
	}
	obs = e.Observe("F1", rec, res, &obs.State, now)
	if obs.State.Current <= obs.State.FinalTemp || obs.State.Current >= obs.State.Setpoint {
		t.Fatalf("temp at T0+12d = %g, want strictly inside (%g, %g)",
			obs.State.Current, obs.State.FinalTemp, obs.State.Setpoint)
	}

	// At T0+21d: ready; repeated reads converge to exactly finalTemp.
	now = t0.Add(days(21))
	if res := resolve(rec, now); res.Phase != phase.Ready {
		t.Fatalf("phase at T0+21d = %v, want ready", res.Phase)
	}
	for i := 0; i < 60 && obs.State.Current != obs.State.FinalTemp; i++ {
		now = now.Add(time.Minute)
		obs = e.Observe("F1", rec, resolve(rec, now), &obs.State, now)
	}
	if obs.State.Current != obs.State.FinalTemp {
		t.Fatalf("temp after end = %g, want exactly finalTemp %g", obs.State.Current, obs.State.FinalTemp)
	}
}

// TestObserve_BadDatesDegradeToSteady verifies a tank with unparseable
// dates falls back to the constant fermenting reading
func TestObserve_BadDatesDegradeToSteady(t *testing.T) {
	e := testEngine()
	rec := testRecord()
	rec.Start = "not a date"
	rec.End = "also not a date"

	obs := e.Observe("F1", rec, resolve(rec, t0), nil, t0)
	now := t0.Add(days(30))
	obs = e.Observe("F1", rec, resolve(rec, now), &obs.State, now)

	if obs.State.Current != obs.State.Setpoint {
		t.Errorf("current = %g, want steady setpoint %g", obs.State.Current, obs.State.Setpoint)
	}
}

// TestDerivedValue_Rounding verifies target derivation rounds to the
// 0.1 grid and stays in range
func TestDerivedValue_Rounding(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("F%d", i)
		v := derivedValue("tankboard", "setpoint", id, "2026-03-01", 18.2, 19.9)
		if v < 18.2 || v > 19.9 {
			t.Errorf("derivedValue(%s) = %g, want in [18.2, 19.9]", id, v)
		}
		if math.Abs(v*10-math.Round(v*10)) > 1e-9 {
			t.Errorf("derivedValue(%s) = %g, want one-decimal grid", id, v)
		}
	}
}
