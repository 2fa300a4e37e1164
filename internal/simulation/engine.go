// Package simulation produces plausible, smoothly evolving temperature
// readings for fermentation tanks from sparse operator-entered data.
// The engine is stateless in phase: every observation recomputes the
// phase from wall-clock time, and only the evolving current reading
// (plus its derivation inputs) is carried in TemperatureState.
package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tankboard/internal/models"
	"tankboard/internal/phase"
)

// Steady fermentation and terminal cold target bands, degrees Celsius.
const (
	setpointLow  = 18.2
	setpointHigh = 19.9
	finalLow     = 4.0
	finalHigh    = 5.0
)

// Config holds the engine tunables. Bucket duration and step bounds
// deliberately live in configuration rather than as fixed behavior.
type Config struct {
	BucketSeconds    int64
	MaxStepPerBucket float64
	Cooldown         time.Duration
	MaxDailyCoolRate float64
	Salt             string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BucketSeconds:    60,
		MaxStepPerBucket: 0.3,
		Cooldown:         10 * 24 * time.Hour,
		MaxDailyCoolRate: 2.0,
		Salt:             "tankboard",
	}
}

// Engine advances per-tank temperature state. It is safe for
// concurrent use: all methods are pure functions of their inputs.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given tunables.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Cooldown returns the configured cooldown window.
func (e *Engine) Cooldown() time.Duration {
	return e.cfg.Cooldown
}

// Observation is the result of advancing (or reading) a tank's
// temperature state.
type Observation struct {
	State   models.TemperatureState
	Value   float64 // rounded to one decimal for display
	Display string
	Updated bool // state changed and should be persisted
	Reset   bool // state was (re)initialized from the record inputs
	Locked  bool // reached the final temperature exactly on this update
}

// Observe returns the tank's temperature at now, advancing state at
// most once per time bucket. Passing prev == nil, or a record whose
// manual temp / start / end differ from the state's last-seen inputs,
// resets the trajectory to the (re)derived setpoint.
func (e *Engine) Observe(id string, rec models.TankRecord, res phase.Resolution, prev *models.TemperatureState, now time.Time) Observation {
	bucket := now.Unix() / e.cfg.BucketSeconds

	if prev == nil || inputsChanged(prev, rec) {
		st := e.InitialState(id, rec, now)
		return e.observation(st, true, true, false)
	}

	st := *prev

	// Same bucket (or clock skew): serve the cached reading.
	if bucket <= st.LastBucket {
		return e.observation(st, false, false, false)
	}

	elapsed := time.Duration(bucket-st.LastBucket) * time.Duration(e.cfg.BucketSeconds) * time.Second
	locked := false

	switch res.Phase {
	case phase.Fermenting:
		st.Current = st.Setpoint

	case phase.Ready:
		gap := st.FinalTemp - st.Current
		if math.Abs(gap) <= e.cfg.MaxStepPerBucket {
			locked = st.Current != st.FinalTemp
			st.Current = st.FinalTemp
		} else {
			st.Current += clamp(gap, -e.cfg.MaxStepPerBucket, e.cfg.MaxStepPerBucket)
		}

	case phase.Cooling:
		target := coolingTarget(st, res, now)
		allowed := e.cfg.MaxStepPerBucket
		if rateCap := e.cfg.MaxDailyCoolRate * elapsed.Hours() / 24; rateCap < allowed {
			allowed = rateCap
		}
		st.Current += e.pickStep(id, bucket, target-st.Current, allowed)

		lo, hi := st.FinalTemp, st.Setpoint
		if lo > hi {
			lo, hi = hi, lo
		}
		st.Current = clamp(st.Current, lo, hi)
	}

	st.LastBucket = bucket
	return e.observation(st, true, false, locked)
}

// InitialState derives a fresh temperature state for a record: targets
// from manual input or the seeded derivation, current pinned to the
// setpoint, last-seen inputs captured for reset detection.
func (e *Engine) InitialState(id string, rec models.TankRecord, now time.Time) models.TemperatureState {
	setpoint, ok := ParseManualTemp(rec.Temp)
	if !ok {
		setpoint = derivedValue(e.cfg.Salt, "setpoint", id, rec.Start, setpointLow, setpointHigh)
	}
	final := derivedValue(e.cfg.Salt, "final", id, rec.End, finalLow, finalHigh)

	return models.TemperatureState{
		Setpoint:   setpoint,
		FinalTemp:  final,
		Current:    setpoint,
		LastBucket: now.Unix() / e.cfg.BucketSeconds,
		ManualTemp: rec.Temp,
		Start:      rec.Start,
		End:        rec.End,
	}
}

func (e *Engine) observation(st models.TemperatureState, updated, reset, locked bool) Observation {
	value := math.Round(st.Current*10) / 10
	return Observation{
		State:   st,
		Value:   value,
		Display: fmt.Sprintf("%.1f", value),
		Updated: updated,
		Reset:   reset,
		Locked:  locked,
	}
}

// coolingTarget is the eased descent curve: setpoint at the cooldown
// start, final temperature at the end date, with zero slope at both
// ends so the descent accelerates then decelerates.
func coolingTarget(st models.TemperatureState, res phase.Resolution, now time.Time) float64 {
	window := res.End.Sub(res.CoolStart)
	if window <= 0 {
		return st.FinalTemp
	}
	t := clamp(float64(now.Sub(res.CoolStart))/float64(window), 0, 1)
	return st.Setpoint + (st.FinalTemp-st.Setpoint)*smoothstep(t)
}

// pickStep draws the next step from a small discrete pool biased
// toward closing the gap: a large gap gets an all-toward-target pool,
// a near-zero gap includes a hold and a small rebound away from the
// target for realism. Deterministic per (tank, bucket).
func (e *Engine) pickStep(id string, bucket int64, gap, allowed float64) float64 {
	if allowed <= 0 {
		return 0
	}

	var pool []float64
	switch ag := math.Abs(gap); {
	case ag >= 1.0:
		pool = []float64{1.0, 1.0, 0.75, 0.5}
	case ag >= 0.2:
		pool = []float64{0.75, 0.5, 0.5, 0.25}
	default:
		pool = []float64{0.5, 0.25, 0, -0.25}
	}

	rng := rand.New(rand.NewSource(stepSeed(e.cfg.Salt, id, bucket)))
	fraction := pool[rng.Intn(len(pool))]

	dir := 1.0
	if gap < 0 {
		dir = -1
	}
	step := fraction * allowed * dir

	// Land on the target rather than oscillating past it.
	if fraction > 0 && math.Abs(step) > math.Abs(gap) {
		step = gap
	}

	return clamp(step, -allowed, allowed)
}

var manualTempPattern = regexp.MustCompile(`^-?\d+(\.\d+)?`)

// ParseManualTemp extracts a numeric setpoint from an operator-entered
// temperature string, tolerating unit suffixes like "18.5C" or
// "18.5 °C".
func ParseManualTemp(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	m := manualTempPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func inputsChanged(prev *models.TemperatureState, rec models.TankRecord) bool {
	return prev.ManualTemp != rec.Temp || prev.Start != rec.Start || prev.End != rec.End
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
