package models

// Tank status values an operator may set on a record. StatusAuto defers
// the lifecycle phase to time-based derivation.
const (
	StatusAuto       = "auto"
	StatusFermenting = "fermenting"
	StatusCooling    = "cooling"
	StatusReady      = "ready"
)

// TankRecord is the persisted, operator-writable state of a single
// fermentation tank. All free-text fields are stored as strings; the
// sanitizer guarantees every field is present and coerced.
type TankRecord struct {
	ID       string `json:"id"`
	Show     bool   `json:"show"`
	Beer     string `json:"beer"`
	Style    string `json:"style"`
	ABV      string `json:"abv"`
	IBU      string `json:"ibu"`
	Capacity string `json:"capacity"`
	Temp     string `json:"temp,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Status   string `json:"status"`
	Limited  bool   `json:"limited"`
}

// TemperatureState is the per-tank simulation state persisted between
// stateless invocations. Current is kept unrounded; rounding to one
// decimal happens only at display time. ManualTemp, Start and End hold
// the last-seen record inputs so edits can be detected and the
// trajectory reset.
type TemperatureState struct {
	Setpoint   float64 `json:"setpoint"`
	FinalTemp  float64 `json:"final_temp"`
	Current    float64 `json:"current"`
	LastBucket int64   `json:"last_bucket"`
	ManualTemp string  `json:"manual_temp,omitempty"`
	Start      string  `json:"start,omitempty"`
	End        string  `json:"end,omitempty"`
}

// TankView is the public-facing projection of a tank: sanitized record
// combined with the resolved phase and the simulated temperature.
type TankView struct {
	ID                 string  `json:"id"`
	Number             int     `json:"number"`
	Name               string  `json:"name"`
	Style              string  `json:"style"`
	ABV                string  `json:"abv"`
	IBU                string  `json:"ibu"`
	Capacity           string  `json:"capacity"`
	StartDisplay       string  `json:"start_display"`
	EndDisplay         string  `json:"end_display"`
	Phase              string  `json:"phase"`
	Badge              string  `json:"badge"`
	Progress           int     `json:"progress"`
	Day                *int    `json:"day,omitempty"`
	Temperature        float64 `json:"temperature"`
	TemperatureDisplay string  `json:"temperature_display"`
	Limited            bool    `json:"limited"`
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
