package models

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxRecords is the cap on accepted tank records per stored set.
// Entries beyond the cap are discarded in input iteration order.
const MaxRecords = 300

var tankIDPattern = regexp.MustCompile(`(?i)^F\d+$`)

// ValidTankID reports whether the key names a tank (F<number>,
// case-insensitive).
func ValidTankID(key string) bool {
	return tankIDPattern.MatchString(key)
}

// TankNumber parses the numeric sequence out of a canonical tank id.
// Returns 0 for ids that do not carry a parseable number.
func TankNumber(id string) int {
	if len(id) < 2 {
		return 0
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil {
		return 0
	}
	return n
}

// SanitizeRecords normalizes an arbitrary untyped mapping (typically
// JSON decoded from untrusted storage or an admin write payload) into
// canonical tank records. Keys not matching the tank-id pattern are
// dropped; matching keys are uppercased. It never fails: malformed
// input of any shape yields an empty mapping.
func SanitizeRecords(raw interface{}) map[string]TankRecord {
	out := make(map[string]TankRecord)

	m, ok := raw.(map[string]interface{})
	if !ok {
		return out
	}

	for key, value := range m {
		if len(out) >= MaxRecords {
			break
		}
		if !ValidTankID(key) {
			continue
		}

		id := strings.ToUpper(key)
		fields, _ := value.(map[string]interface{})

		rec := TankRecord{
			ID:       id,
			Show:     coerceBool(fields["show"]),
			Beer:     coerceString(fields["beer"]),
			Style:    coerceString(fields["style"]),
			ABV:      coerceString(fields["abv"]),
			IBU:      coerceString(fields["ibu"]),
			Capacity: coerceString(fields["capacity"]),
			Temp:     coerceString(fields["temp"]),
			Start:    coerceString(fields["start"]),
			End:      coerceString(fields["end"]),
			Status:   coerceStatus(fields["status"]),
			Limited:  coerceBool(fields["limited"]),
		}

		out[id] = rec
	}

	return out
}

func coerceString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func coerceBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "1"
	case float64:
		return b != 0
	default:
		return false
	}
}

func coerceStatus(v interface{}) string {
	s, _ := v.(string)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case StatusFermenting:
		return StatusFermenting
	case StatusCooling:
		return StatusCooling
	case StatusReady:
		return StatusReady
	default:
		return StatusAuto
	}
}
