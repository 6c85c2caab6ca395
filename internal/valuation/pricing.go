package valuation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
)

// FlatFee is an additional labelled ticket-level charge.
type FlatFee struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// FeeSchedule lists the ticket-level fees deducted from gross value.
type FeeSchedule struct {
	TestFee         decimal.Decimal `json:"testFee"`
	RefiningPerGram decimal.Decimal `json:"refiningFeePerGram"`
	FlatFees        []FlatFee       `json:"flatFees"`
}

// Pricing is the market price, buy rate and fee schedule a ticket is valued
// against. The working copy on a ticket may change until the quote; the
// quoted copy carries CapturedAt and is never modified afterwards.
type Pricing struct {
	LivePricePerGram24k decimal.Decimal    `json:"livePricePerGram24k"`
	BuyRate             decimal.Decimal    `json:"buyRate"`
	Fees                FeeSchedule        `json:"fees"`
	Rounding            enums.RoundingMode `json:"rounding"`
	CapturedAt          *time.Time         `json:"capturedAt,omitempty"`
}

// RoundingMode returns the configured rule, defaulting to nearest.
func (p Pricing) RoundingMode() enums.RoundingMode {
	if p.Rounding == "" {
		return enums.RoundingNearest
	}
	return p.Rounding
}

// Clone returns a deep copy that shares no slices or pointers with p.
func (p Pricing) Clone() Pricing {
	out := p
	if p.Fees.FlatFees != nil {
		out.Fees.FlatFees = make([]FlatFee, len(p.Fees.FlatFees))
		copy(out.Fees.FlatFees, p.Fees.FlatFees)
	}
	if p.CapturedAt != nil {
		at := *p.CapturedAt
		out.CapturedAt = &at
	}
	return out
}

// Capture freezes a copy of the pricing at the given instant.
func (p Pricing) Capture(at time.Time) Pricing {
	out := p.Clone()
	out.Rounding = p.RoundingMode()
	captured := at.UTC()
	out.CapturedAt = &captured
	return out
}

// FlatFeeTotal sums the additional flat fees.
func (fs FeeSchedule) FlatFeeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, fee := range fs.FlatFees {
		total = total.Add(fee.Amount)
	}
	return total
}

// Validate checks every pricing field and reports all violations at once.
func (p Pricing) Validate() error {
	var errs error
	if !p.LivePricePerGram24k.IsPositive() {
		errs = multierr.Append(errs, fieldError("livePricePerGram24k", "must be greater than 0"))
	}
	if !p.BuyRate.IsPositive() {
		errs = multierr.Append(errs, fieldError("buyRate", "must be greater than 0"))
	} else if p.BuyRate.GreaterThan(decimal.NewFromInt(1)) {
		errs = multierr.Append(errs, fieldError("buyRate", "must be at most 1"))
	}
	if p.Fees.TestFee.IsNegative() {
		errs = multierr.Append(errs, fieldError("fees.testFee", "must not be negative"))
	}
	if p.Fees.RefiningPerGram.IsNegative() {
		errs = multierr.Append(errs, fieldError("fees.refiningFeePerGram", "must not be negative"))
	}
	for i, fee := range p.Fees.FlatFees {
		if fee.Amount.IsNegative() {
			errs = multierr.Append(errs, fieldError(fmt.Sprintf("fees.flatFees[%d].amount", i), "must not be negative"))
		}
		if strings.TrimSpace(fee.Label) == "" {
			errs = multierr.Append(errs, fieldError(fmt.Sprintf("fees.flatFees[%d].label", i), "is required"))
		}
	}
	if p.Rounding != "" && !p.Rounding.IsValid() {
		errs = multierr.Append(errs, fieldError("rounding", "must be nearest, floor or ceiling"))
	}
	return asValidationError("invalid pricing", errs)
}

// FieldError names one invalid input field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Message
}

func fieldError(field, message string) error {
	return FieldError{Field: field, Message: message}
}

// asValidationError folds collected field errors into one typed validation
// error whose details map field -> message.
func asValidationError(message string, errs error) error {
	if errs == nil {
		return nil
	}
	details := map[string]string{}
	for _, err := range multierr.Errors(errs) {
		if fe, ok := err.(FieldError); ok {
			if _, exists := details[fe.Field]; !exists {
				details[fe.Field] = fe.Message
			}
			continue
		}
		details["error"] = err.Error()
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, message).WithDetails(details)
}
