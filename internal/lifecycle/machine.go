package lifecycle

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
)

// Subject is the read-only view of a ticket the guards evaluate.
type Subject interface {
	Status() enums.TicketStatus
	ItemIDs() []string
	ItemsMissingTestMethod() []string
	ZeroPurityItems() []string
	PricingProblem() error
	HasCustomerSignature() bool
	PaidTotal() decimal.Decimal
	PayoutDue() decimal.Decimal
	CurrentDisposition() *DispositionPayload
}

// Rule is one legal edge of the lifecycle graph.
type Rule struct {
	From    enums.TicketStatus
	To      enums.TicketStatus
	Payload PayloadKind
	Guards  []Guard
}

type edge struct {
	from enums.TicketStatus
	to   enums.TicketStatus
}

// Machine answers whether a status change is legal for a subject.
type Machine struct {
	rules map[edge]Rule
}

// New builds a machine from rules. A later rule for the same edge replaces an
// earlier one.
func New(rules []Rule) *Machine {
	m := &Machine{rules: make(map[edge]Rule, len(rules))}
	for _, r := range rules {
		m.rules[edge{from: r.From, to: r.To}] = r
	}
	return m
}

// Default returns the machine for the standard gold buy workflow.
func Default() *Machine {
	return New(DefaultRules())
}

// Lookup returns the rule for from -> to.
func (m *Machine) Lookup(from, to enums.TicketStatus) (Rule, bool) {
	r, ok := m.rules[edge{from: from, to: to}]
	return r, ok
}

// Allowed lists the statuses reachable from from, in lifecycle order.
func (m *Machine) Allowed(from enums.TicketStatus) []enums.TicketStatus {
	out := []enums.TicketStatus{}
	for _, to := range enums.TicketStatuses() {
		if _, ok := m.rules[edge{from: from, to: to}]; ok {
			out = append(out, to)
		}
	}
	return out
}

// Check validates a requested transition without changing anything. It
// returns the matched rule on success.
func (m *Machine) Check(s Subject, to enums.TicketStatus, p Payload) (Rule, error) {
	from := s.Status()
	rule, ok := m.Lookup(from, to)
	if !ok {
		return Rule{}, pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "cannot move ticket from %s to %s", from, to).
			WithDetails(map[string]any{
				"from":    from,
				"to":      to,
				"allowed": m.Allowed(from),
			})
	}

	p = Normalize(p)
	if p != nil && !accepts(rule, p) {
		return Rule{}, pkgerrors.Newf(pkgerrors.CodeValidation, "transition %s -> %s does not accept a %s payload", from, to, p.Kind()).
			WithDetails(map[string]any{"payload": fmt.Sprintf("expected %s, got %s", rule.Payload, p.Kind())})
	}

	var (
		first string
		extra map[string]any
		unmet []string
	)
	for _, g := range rule.Guards {
		ok, details := g.check(s, p)
		if ok {
			continue
		}
		if first == "" {
			first, extra = g.Requirement, details
		}
		unmet = append(unmet, g.Requirement)
	}
	if first != "" {
		details := map[string]any{
			"requirement": first,
			"unmet":       unmet,
			"from":        from,
			"to":          to,
		}
		for k, v := range extra {
			details[k] = v
		}
		return rule, pkgerrors.New(pkgerrors.CodePreconditionNotMet, first).WithDetails(details)
	}
	return rule, nil
}

// accepts reports whether p is the rule's payload variant. A plain reason may
// accompany transitions that take no payload.
func accepts(rule Rule, p Payload) bool {
	if p.Kind() == rule.Payload {
		return true
	}
	return rule.Payload == PayloadNone && p.Kind() == PayloadReason
}
