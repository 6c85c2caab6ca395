package enums

import "fmt"

// Disposition records what happens to bought metal once the ticket is paid.
type Disposition string

const (
	DispositionScrap  Disposition = "scrap"
	DispositionResale Disposition = "resale"
)

var validDispositions = []Disposition{
	DispositionScrap,
	DispositionResale,
}

// String implements fmt.Stringer.
func (v Disposition) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Disposition.
func (v Disposition) IsValid() bool {
	for _, candidate := range validDispositions {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseDisposition converts raw input into a Disposition.
func ParseDisposition(value string) (Disposition, error) {
	for _, candidate := range validDispositions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid disposition %q", value)
}
