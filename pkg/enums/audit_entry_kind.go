package enums

import "fmt"

// AuditEntryKind classifies an audit trail entry.
type AuditEntryKind string

const (
	AuditEntryCreated    AuditEntryKind = "created"
	AuditEntryTransition AuditEntryKind = "transition"
	AuditEntryOverride   AuditEntryKind = "override"
)

var validAuditEntryKinds = []AuditEntryKind{
	AuditEntryCreated,
	AuditEntryTransition,
	AuditEntryOverride,
}

// String implements fmt.Stringer.
func (v AuditEntryKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known AuditEntryKind.
func (v AuditEntryKind) IsValid() bool {
	for _, candidate := range validAuditEntryKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseAuditEntryKind converts raw input into a AuditEntryKind.
func ParseAuditEntryKind(value string) (AuditEntryKind, error) {
	for _, candidate := range validAuditEntryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit entry kind %q", value)
}
