package enums

import "fmt"

// Metal identifies the precious metal an item is bought as.
type Metal string

const (
	MetalGold     Metal = "gold"
	MetalSilver   Metal = "silver"
	MetalPlatinum Metal = "platinum"
)

var validMetals = []Metal{
	MetalGold,
	MetalSilver,
	MetalPlatinum,
}

// String implements fmt.Stringer.
func (v Metal) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Metal.
func (v Metal) IsValid() bool {
	for _, candidate := range validMetals {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseMetal converts raw input into a Metal.
func ParseMetal(value string) (Metal, error) {
	for _, candidate := range validMetals {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid metal %q", value)
}
