package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
)

// Payment is one disbursement to the customer. Payments are only ever
// appended; there is no edit or removal path.
type Payment struct {
	ID             uuid.UUID           `json:"id"`
	Method         enums.PaymentMethod `json:"method"`
	Amount         decimal.Decimal     `json:"amount"`
	Reference      string              `json:"reference,omitempty"`
	RecordedAt     time.Time           `json:"recordedAt"`
	RecordedBy     string              `json:"recordedBy"`
	OverrideReason string              `json:"overrideReason,omitempty"`
}

// Overridden reports whether the payment was accepted past the overpay tolerance.
func (p Payment) Overridden() bool {
	return p.OverrideReason != ""
}

// PaymentInput is what a cashier records at the till.
type PaymentInput struct {
	Method         enums.PaymentMethod
	Amount         decimal.Decimal
	Reference      string
	OverrideReason string
}

// Ledger tracks payments against a fixed payout.
type Ledger struct {
	payout    decimal.Decimal
	tolerance decimal.Decimal
	payments  []Payment
}

// New builds a ledger over existing payments. payments is copied.
func New(payout, tolerance decimal.Decimal, payments []Payment) *Ledger {
	if tolerance.IsNegative() {
		tolerance = decimal.Zero
	}
	out := make([]Payment, len(payments))
	copy(out, payments)
	return &Ledger{payout: payout, tolerance: tolerance, payments: out}
}

// Total is the running sum of recorded payments.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Remaining is max(payout - total, 0).
func (l *Ledger) Remaining() decimal.Decimal {
	return decimal.Max(l.payout.Sub(l.Total()), decimal.Zero)
}

// Covered reports whether recorded payments reach the payout.
func (l *Ledger) Covered() bool {
	return l.Total().GreaterThanOrEqual(l.payout)
}

// Payments returns a copy of the recorded payments in order.
func (l *Ledger) Payments() []Payment {
	out := make([]Payment, len(l.payments))
	copy(out, l.payments)
	return out
}

// Append validates and records a payment. A payment that would push the
// running total past payout by more than the tolerance is rejected unless the
// input carries an override reason, which is then kept on the payment.
func (l *Ledger) Append(input PaymentInput, actor string, at time.Time) (Payment, error) {
	if err := validateInput(input, actor); err != nil {
		return Payment{}, err
	}

	payment := Payment{
		ID:         uuid.New(),
		Method:     input.Method,
		Amount:     input.Amount,
		Reference:  strings.TrimSpace(input.Reference),
		RecordedAt: at.UTC(),
		RecordedBy: actor,
	}

	overage := l.Total().Add(input.Amount).Sub(l.payout)
	if overage.GreaterThan(l.tolerance) {
		reason := strings.TrimSpace(input.OverrideReason)
		if reason == "" {
			return Payment{}, pkgerrors.New(pkgerrors.CodeValidation, "payment exceeds payout beyond tolerance").
				WithDetails(map[string]any{
					"overage":   overage.StringFixed(2),
					"tolerance": l.tolerance.StringFixed(2),
					"remaining": l.Remaining().StringFixed(2),
				})
		}
		payment.OverrideReason = reason
	}

	l.payments = append(l.payments, payment)
	return payment, nil
}

func validateInput(input PaymentInput, actor string) error {
	details := map[string]string{}
	if !input.Method.IsValid() {
		details["method"] = "must be cash, check, ach or store_credit"
	}
	if !input.Amount.IsPositive() {
		details["amount"] = "must be greater than 0"
	} else if !input.Amount.Equal(input.Amount.Truncate(2)) {
		details["amount"] = "must have at most 2 decimal places"
	}
	if strings.TrimSpace(actor) == "" {
		details["recordedBy"] = "is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment").WithDetails(details)
	}
	return nil
}
