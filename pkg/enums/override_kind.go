package enums

import "fmt"

// OverrideKind names the rule a staff member explicitly overrode.
type OverrideKind string

const (
	OverrideZeroPurity        OverrideKind = "zero_purity"
	OverridePartialAcceptance OverrideKind = "partial_acceptance"
	OverrideOverpayment       OverrideKind = "overpayment"

	// OverrideCancelledWithPayments marks a cancellation that leaves recorded
	// payments to be reversed outside the ticket.
	OverrideCancelledWithPayments OverrideKind = "cancelled_with_payments"
)

var validOverrideKinds = []OverrideKind{
	OverrideZeroPurity,
	OverridePartialAcceptance,
	OverrideOverpayment,
	OverrideCancelledWithPayments,
}

// String implements fmt.Stringer.
func (v OverrideKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OverrideKind.
func (v OverrideKind) IsValid() bool {
	for _, candidate := range validOverrideKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseOverrideKind converts raw input into a OverrideKind.
func ParseOverrideKind(value string) (OverrideKind, error) {
	for _, candidate := range validOverrideKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid override kind %q", value)
}
