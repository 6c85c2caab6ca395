package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
)

// Entry is one immutable record of something that happened to a ticket.
type Entry struct {
	ID       uuid.UUID            `json:"id"`
	Seq      int                  `json:"seq"`
	Kind     enums.AuditEntryKind `json:"kind"`
	From     enums.TicketStatus   `json:"from,omitempty"`
	To       enums.TicketStatus   `json:"to,omitempty"`
	Override enums.OverrideKind   `json:"override,omitempty"`
	Actor    string               `json:"actor"`
	Reason   string               `json:"reason,omitempty"`
	At       time.Time            `json:"at"`
}

// Trail is an append-only sequence of entries. Sequence numbers start at 1 and
// increase by one per entry.
type Trail struct {
	entries []Entry
}

// NewTrail wraps entries already persisted for a ticket. entries is copied.
func NewTrail(entries []Entry) *Trail {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return &Trail{entries: out}
}

// RecordCreated appends the creation entry.
func (t *Trail) RecordCreated(status enums.TicketStatus, actor string, at time.Time) (Entry, error) {
	return t.append(Entry{Kind: enums.AuditEntryCreated, To: status, Actor: actor, At: at})
}

// RecordTransition appends a status change.
func (t *Trail) RecordTransition(from, to enums.TicketStatus, actor, reason string, at time.Time) (Entry, error) {
	return t.append(Entry{Kind: enums.AuditEntryTransition, From: from, To: to, Actor: actor, Reason: reason, At: at})
}

// RecordOverride appends an explicit override of a rule. status is the status
// the ticket was in when the override was taken.
func (t *Trail) RecordOverride(kind enums.OverrideKind, status enums.TicketStatus, actor, reason string, at time.Time) (Entry, error) {
	if !kind.IsValid() {
		return Entry{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown override kind %q", kind)
	}
	if strings.TrimSpace(reason) == "" {
		return Entry{}, pkgerrors.New(pkgerrors.CodeValidation, "override reason is required").
			WithDetails(map[string]string{"reason": "is required", "override": kind.String()})
	}
	return t.append(Entry{Kind: enums.AuditEntryOverride, From: status, To: status, Override: kind, Actor: actor, Reason: reason, At: at})
}

func (t *Trail) append(e Entry) (Entry, error) {
	if strings.TrimSpace(e.Actor) == "" {
		return Entry{}, pkgerrors.New(pkgerrors.CodeValidation, "audit actor is required").
			WithDetails(map[string]string{"actor": "is required"})
	}
	e.ID = uuid.New()
	e.Seq = t.nextSeq()
	e.Reason = strings.TrimSpace(e.Reason)
	e.At = e.At.UTC()
	t.entries = append(t.entries, e)
	return e, nil
}

func (t *Trail) nextSeq() int {
	if len(t.entries) == 0 {
		return 1
	}
	return t.entries[len(t.entries)-1].Seq + 1
}

// Entries returns a copy of every entry in sequence order.
func (t *Trail) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Overrides returns only the override entries, for compliance review.
func (t *Trail) Overrides() []Entry {
	out := []Entry{}
	for _, e := range t.entries {
		if e.Kind == enums.AuditEntryOverride {
			out = append(out, e)
		}
	}
	return out
}
