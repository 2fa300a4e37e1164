package services

import (
	"strconv"
	"time"

	"tankboard/internal/models"
	"tankboard/internal/phase"
	"tankboard/internal/simulation"
)

// placeholder shown for missing free-text fields
const placeholder = "—"

// fallbackName shown for tanks whose beer has not been named yet
const fallbackName = "TBD"

var badges = map[phase.Phase]string{
	phase.Fermenting: "Fermenting",
	phase.Cooling:    "Cooling",
	phase.Ready:      "Ready",
}

// composeView builds the public projection for one tank
func composeView(id string, rec models.TankRecord, res phase.Resolution, obs simulation.Observation) models.TankView {
	name := rec.Beer
	if name == "" {
		name = fallbackName
	}

	return models.TankView{
		ID:                 id,
		Number:             models.TankNumber(id),
		Name:               name,
		Style:              textOrPlaceholder(rec.Style),
		ABV:                formatABV(rec.ABV),
		IBU:                textOrPlaceholder(rec.IBU),
		Capacity:           textOrPlaceholder(rec.Capacity),
		StartDisplay:       formatShortDate(res.Start, res.StartValid),
		EndDisplay:         formatShortDate(res.End, res.EndValid),
		Phase:              string(res.Phase),
		Badge:              badges[res.Phase],
		Progress:           res.Progress,
		Day:                res.Day,
		Temperature:        obs.Value,
		TemperatureDisplay: obs.Display,
		Limited:            rec.Limited,
	}
}

func textOrPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// formatABV appends a percent sign to bare numbers; values already
// carrying a unit (or any other text) pass through verbatim.
func formatABV(abv string) string {
	if abv == "" {
		return placeholder
	}
	if _, err := strconv.ParseFloat(abv, 64); err == nil {
		return abv + "%"
	}
	return abv
}

func formatShortDate(t time.Time, valid bool) string {
	if !valid {
		return placeholder
	}
	return t.Format("Jan 2")
}
