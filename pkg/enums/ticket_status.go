package enums

import "fmt"

// TicketStatus tracks a gold buy ticket through intake, payout and disposition.
type TicketStatus string

const (
	TicketStatusDraft     TicketStatus = "draft"
	TicketStatusTesting   TicketStatus = "testing"
	TicketStatusQuoted    TicketStatus = "quoted"
	TicketStatusAccepted  TicketStatus = "accepted"
	TicketStatusPaid      TicketStatus = "paid"
	TicketStatusPosted    TicketStatus = "posted"
	TicketStatusCancelled TicketStatus = "cancelled"
	TicketStatusVoid      TicketStatus = "void"
)

var validTicketStatuses = []TicketStatus{
	TicketStatusDraft,
	TicketStatusTesting,
	TicketStatusQuoted,
	TicketStatusAccepted,
	TicketStatusPaid,
	TicketStatusPosted,
	TicketStatusCancelled,
	TicketStatusVoid,
}

// TicketStatuses returns every status in lifecycle order.
func TicketStatuses() []TicketStatus {
	out := make([]TicketStatus, len(validTicketStatuses))
	copy(out, validTicketStatuses)
	return out
}

// String implements fmt.Stringer.
func (v TicketStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known TicketStatus.
func (v TicketStatus) IsValid() bool {
	for _, candidate := range validTicketStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave this status.
func (v TicketStatus) IsTerminal() bool {
	switch v {
	case TicketStatusPosted, TicketStatusCancelled, TicketStatusVoid:
		return true
	default:
		return false
	}
}

// AllowsItemEdits reports whether items and working pricing may still change.
func (v TicketStatus) AllowsItemEdits() bool {
	return v == TicketStatusDraft || v == TicketStatusTesting
}

// AllowsPayments reports whether payments may be appended in this status.
func (v TicketStatus) AllowsPayments() bool {
	return v == TicketStatusAccepted || v == TicketStatusPaid
}

// ParseTicketStatus converts raw input into a TicketStatus.
func ParseTicketStatus(value string) (TicketStatus, error) {
	for _, candidate := range validTicketStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ticket status %q", value)
}
