package valuation

import (
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
)

// Totals is the exact ticket-level valuation. Nothing here is rounded; use
// Display for stored or shown figures.
type Totals struct {
	FineGrams    decimal.Decimal
	Gross        decimal.Decimal
	TestFee      decimal.Decimal
	RefiningFees decimal.Decimal
	FlatFees     decimal.Decimal
	LineFees     decimal.Decimal
	Fees         decimal.Decimal
	Payout       decimal.Decimal
	Lines        []Line
	Warnings     []Warning
	Rounding     enums.RoundingMode
}

// FeeBreakdown itemises the composed fees.
type FeeBreakdown struct {
	TestFee      decimal.Decimal `json:"testFee"`
	RefiningFees decimal.Decimal `json:"refiningFees"`
	FlatFees     decimal.Decimal `json:"flatFees"`
	LineFees     decimal.Decimal `json:"lineFees"`
}

// TotalsDisplay is the rounded projection of Totals.
type TotalsDisplay struct {
	FineGoldGrams decimal.Decimal `json:"fineGoldGrams"`
	Gross         decimal.Decimal `json:"gross"`
	Fees          decimal.Decimal `json:"fees"`
	Payout        decimal.Decimal `json:"payout"`
	Breakdown     FeeBreakdown    `json:"breakdown"`
	Lines         []LineDisplay   `json:"lines"`
}

// Aggregate values every item against pricing and composes ticket fees in a
// fixed order: test fee, refining fee on total fine grams, flat fees, then the
// sum of line fees. It is pure; equal inputs always give equal totals and item
// order does not affect any sum.
func Aggregate(items []Measurements, pricing Pricing) (Totals, error) {
	if err := pricing.Validate(); err != nil {
		return Totals{}, err
	}

	var itemErrs error
	for i, m := range items {
		if err := ValidateMeasurements(m); err != nil {
			itemErrs = multierr.Append(itemErrs, itemError{index: i, itemID: m.ItemID, err: err})
		}
	}
	if itemErrs != nil {
		return Totals{}, itemValidationError(itemErrs)
	}

	totals := Totals{
		FineGrams: decimal.Zero,
		Gross:     decimal.Zero,
		LineFees:  decimal.Zero,
		Rounding:  pricing.RoundingMode(),
		Lines:     make([]Line, 0, len(items)),
	}
	for _, m := range items {
		line := value(m, pricing)
		totals.Lines = append(totals.Lines, line)
		totals.Warnings = append(totals.Warnings, line.Warnings...)
		totals.FineGrams = totals.FineGrams.Add(line.FineGrams)
		totals.Gross = totals.Gross.Add(line.Gross)
		totals.LineFees = totals.LineFees.Add(line.LineFees)
	}

	totals.TestFee = pricing.Fees.TestFee
	totals.RefiningFees = decimal.Zero
	if !pricing.Fees.RefiningPerGram.IsZero() {
		totals.RefiningFees = pricing.Fees.RefiningPerGram.Mul(totals.FineGrams)
	}
	totals.FlatFees = pricing.Fees.FlatFeeTotal()
	totals.Fees = totals.TestFee.Add(totals.RefiningFees).Add(totals.FlatFees).Add(totals.LineFees)
	totals.Payout = decimal.Max(totals.Gross.Sub(totals.Fees), decimal.Zero)
	return totals, nil
}

// PayoutDue is the payout rounded to cents, the figure money is settled against.
func (t Totals) PayoutDue() decimal.Decimal {
	return RoundMoney(t.Payout, t.Rounding)
}

// Display rounds every figure for storage and display.
func (t Totals) Display() TotalsDisplay {
	mode := t.Rounding
	out := TotalsDisplay{
		FineGoldGrams: RoundWeight(t.FineGrams),
		Gross:         RoundMoney(t.Gross, mode),
		Fees:          RoundMoney(t.Fees, mode),
		Payout:        RoundMoney(t.Payout, mode),
		Breakdown: FeeBreakdown{
			TestFee:      RoundMoney(t.TestFee, mode),
			RefiningFees: RoundMoney(t.RefiningFees, mode),
			FlatFees:     RoundMoney(t.FlatFees, mode),
			LineFees:     RoundMoney(t.LineFees, mode),
		},
		Lines: make([]LineDisplay, 0, len(t.Lines)),
	}
	for _, line := range t.Lines {
		out.Lines = append(out.Lines, line.Display(mode))
	}
	return out
}

type itemError struct {
	index  int
	itemID string
	err    error
}

func (e itemError) Error() string {
	return e.err.Error()
}

func (e itemError) Unwrap() error {
	return e.err
}

func itemValidationError(errs error) error {
	details := make([]map[string]any, 0)
	for _, err := range multierr.Errors(errs) {
		ie, ok := err.(itemError)
		if !ok {
			continue
		}
		entry := map[string]any{"index": ie.index, "itemId": ie.itemID}
		if typed := pkgerrors.As(ie.err); typed != nil {
			entry["fields"] = typed.Details()
		}
		details = append(details, entry)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid ticket items").WithDetails(map[string]any{"items": details})
}
