package enums

import "fmt"

// RoundingMode selects how displayed monetary figures are rounded to cents.
type RoundingMode string

const (
	RoundingNearest RoundingMode = "nearest"
	RoundingFloor   RoundingMode = "floor"
	RoundingCeiling RoundingMode = "ceiling"
)

var validRoundingModes = []RoundingMode{
	RoundingNearest,
	RoundingFloor,
	RoundingCeiling,
}

// String implements fmt.Stringer.
func (v RoundingMode) String() string {
	return string(v)
}

// IsValid reports whether the value is a known RoundingMode.
func (v RoundingMode) IsValid() bool {
	for _, candidate := range validRoundingModes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseRoundingMode converts raw input into a RoundingMode.
func ParseRoundingMode(value string) (RoundingMode, error) {
	for _, candidate := range validRoundingModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rounding mode %q", value)
}
