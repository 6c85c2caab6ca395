package lifecycle

import (
	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
)

const (
	RequireItems             = "at least one item"
	RequireTestMethods       = "test method for every item"
	RequireValidPricing      = "valid pricing"
	RequireZeroPurityAck     = "zero purity acknowledged"
	RequireReason            = "reason"
	RequireCustomerSignature = "customer signature"
	RequirePaymentCovers     = "payment covers payout"
	RequireDisposition       = "disposition"
)

// Guard is a named precondition on a rule.
type Guard struct {
	Requirement string
	check       func(Subject, Payload) (bool, map[string]any)
}

// NewGuard builds a guard from a predicate.
func NewGuard(requirement string, check func(Subject, Payload) (bool, map[string]any)) Guard {
	return Guard{Requirement: requirement, check: check}
}

// DefaultRules is the standard lifecycle table. void is reserved for tickets
// that never left draft; anything that reached testing is cancelled instead.
func DefaultRules() []Rule {
	return []Rule{
		{From: enums.TicketStatusDraft, To: enums.TicketStatusTesting, Payload: PayloadNone, Guards: []Guard{hasItems}},
		{From: enums.TicketStatusDraft, To: enums.TicketStatusVoid, Payload: PayloadReason, Guards: []Guard{hasReason}},
		{From: enums.TicketStatusTesting, To: enums.TicketStatusQuoted, Payload: PayloadReason, Guards: []Guard{hasItems, testMethods, validPricing, zeroPurityAcknowledged}},
		{From: enums.TicketStatusTesting, To: enums.TicketStatusCancelled, Payload: PayloadReason, Guards: []Guard{hasReason}},
		{From: enums.TicketStatusQuoted, To: enums.TicketStatusAccepted, Payload: PayloadSignature, Guards: []Guard{customerSignature}},
		{From: enums.TicketStatusQuoted, To: enums.TicketStatusCancelled, Payload: PayloadReason, Guards: []Guard{hasReason}},
		{From: enums.TicketStatusAccepted, To: enums.TicketStatusPaid, Payload: PayloadPayment, Guards: []Guard{paymentCoversPayout}},
		{From: enums.TicketStatusAccepted, To: enums.TicketStatusCancelled, Payload: PayloadReason, Guards: []Guard{hasReason}},
		{From: enums.TicketStatusPaid, To: enums.TicketStatusPosted, Payload: PayloadDisposition, Guards: []Guard{dispositionComplete}},
		{From: enums.TicketStatusPaid, To: enums.TicketStatusCancelled, Payload: PayloadReason, Guards: []Guard{hasReason}},
	}
}

var hasItems = NewGuard(RequireItems, func(s Subject, _ Payload) (bool, map[string]any) {
	return len(s.ItemIDs()) > 0, nil
})

var hasReason = NewGuard(RequireReason, func(_ Subject, p Payload) (bool, map[string]any) {
	return ReasonOf(p) != "", nil
})

var testMethods = NewGuard(RequireTestMethods, func(s Subject, _ Payload) (bool, map[string]any) {
	missing := s.ItemsMissingTestMethod()
	if len(missing) == 0 {
		return true, nil
	}
	return false, map[string]any{"itemIds": missing}
})

var validPricing = NewGuard(RequireValidPricing, func(s Subject, _ Payload) (bool, map[string]any) {
	err := s.PricingProblem()
	if err == nil {
		return true, nil
	}
	details := map[string]any{}
	if typed := pkgerrors.As(err); typed != nil && typed.Details() != nil {
		details["pricing"] = typed.Details()
	}
	return false, details
})

var zeroPurityAcknowledged = NewGuard(RequireZeroPurityAck, func(s Subject, p Payload) (bool, map[string]any) {
	zero := s.ZeroPurityItems()
	if len(zero) == 0 || ReasonOf(p) != "" {
		return true, nil
	}
	return false, map[string]any{"itemIds": zero}
})

var customerSignature = NewGuard(RequireCustomerSignature, func(s Subject, p Payload) (bool, map[string]any) {
	if sig, ok := p.(SignaturePayload); ok && sig.Customer.IsComplete() {
		return true, nil
	}
	return s.HasCustomerSignature(), nil
})

var paymentCoversPayout = NewGuard(RequirePaymentCovers, func(s Subject, p Payload) (bool, map[string]any) {
	paid := s.PaidTotal()
	if pay, ok := p.(PaymentPayload); ok {
		if pay.Payment != nil && pay.Payment.Amount.IsPositive() {
			paid = paid.Add(pay.Payment.Amount)
		}
		if ReasonOf(pay) != "" {
			return true, nil
		}
	}
	payout := s.PayoutDue()
	if paid.GreaterThanOrEqual(payout) {
		return true, nil
	}
	return false, map[string]any{
		"payout":    payout.StringFixed(2),
		"paid":      paid.StringFixed(2),
		"remaining": payout.Sub(paid).StringFixed(2),
	}
})

var dispositionComplete = NewGuard(RequireDisposition, func(s Subject, p Payload) (bool, map[string]any) {
	var candidate *DispositionPayload
	if disp, ok := p.(DispositionPayload); ok {
		candidate = &disp
	} else if current := s.CurrentDisposition(); current != nil {
		candidate = current
	}
	if candidate == nil {
		return false, map[string]any{"problem": "no disposition recorded"}
	}
	if problem := DispositionProblem(*candidate); problem != "" {
		return false, map[string]any{"problem": problem}
	}
	return true, nil
})
