package valuation

import (
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
)

const (
	MaxKarat = 24

	WarningZeroPurity = "zero_purity"
)

var (
	karatScale = decimal.NewFromInt(MaxKarat)
	one        = decimal.NewFromInt(1)
)

// Measurements are the physical facts recorded for one item at the counter.
type Measurements struct {
	ItemID      string
	Metal       enums.Metal
	Karat       int
	Purity      *decimal.Decimal
	GrossWeight decimal.Decimal
	StoneWeight decimal.Decimal
	LineFee     decimal.Decimal
}

// Warning flags an item the valuator accepted but that must not be paid out
// without a person looking at it.
type Warning struct {
	Code    string `json:"code"`
	ItemID  string `json:"itemId,omitempty"`
	Message string `json:"message"`
}

// Line holds the exact, unrounded valuation of one item.
type Line struct {
	ItemID     string
	Purity     decimal.Decimal
	NetWeight  decimal.Decimal
	FineGrams  decimal.Decimal
	Gross      decimal.Decimal
	LineFees   decimal.Decimal
	LinePayout decimal.Decimal
	Warnings   []Warning
}

// LineDisplay is a Line rounded for storage and display.
type LineDisplay struct {
	ItemID     string          `json:"itemId"`
	Purity     decimal.Decimal `json:"purity"`
	NetWeight  decimal.Decimal `json:"netWeight"`
	FineGrams  decimal.Decimal `json:"fineGrams"`
	Gross      decimal.Decimal `json:"gross"`
	LineFees   decimal.Decimal `json:"lineFees"`
	LinePayout decimal.Decimal `json:"linePayout"`
}

// ValidateMeasurements checks one item's inputs without needing pricing.
func ValidateMeasurements(m Measurements) error {
	var errs error
	if !m.Metal.IsValid() {
		errs = multierr.Append(errs, fieldError("metal", "must be gold, silver or platinum"))
	}
	if m.Karat < 0 || m.Karat > MaxKarat {
		errs = multierr.Append(errs, fieldError("karat", "must be between 0 and 24"))
	} else if m.Karat > 0 && m.Metal != enums.MetalGold {
		errs = multierr.Append(errs, fieldError("karat", "only applies to gold"))
	}
	if m.Purity != nil && (m.Purity.IsNegative() || m.Purity.GreaterThan(one)) {
		errs = multierr.Append(errs, fieldError("purity", "must be between 0 and 1"))
	}
	if m.GrossWeight.IsNegative() {
		errs = multierr.Append(errs, fieldError("grossWeight", "must not be negative"))
	}
	if m.StoneWeight.IsNegative() {
		errs = multierr.Append(errs, fieldError("stoneWeight", "must not be negative"))
	} else if m.StoneWeight.GreaterThan(m.GrossWeight) {
		errs = multierr.Append(errs, fieldError("stoneWeight", "must not exceed grossWeight"))
	}
	if m.LineFee.IsNegative() {
		errs = multierr.Append(errs, fieldError("lineFee", "must not be negative"))
	} else if !m.LineFee.Equal(m.LineFee.Truncate(2)) {
		errs = multierr.Append(errs, fieldError("lineFee", "must have at most 2 decimal places"))
	}
	return asValidationError("invalid item measurements", errs)
}

// ResolvePurity applies the purity precedence: explicit purity, then karat for
// gold, then zero.
func ResolvePurity(m Measurements) decimal.Decimal {
	if m.Purity != nil {
		return *m.Purity
	}
	if m.Metal == enums.MetalGold && m.Karat > 0 {
		return clamp(decimal.NewFromInt(int64(m.Karat)).Div(karatScale), decimal.Zero, one)
	}
	return decimal.Zero
}

// Value derives one item's weights and money against the supplied pricing.
func Value(m Measurements, pricing Pricing) (Line, error) {
	if err := ValidateMeasurements(m); err != nil {
		return Line{}, err
	}
	if err := pricing.Validate(); err != nil {
		return Line{}, err
	}
	return value(m, pricing), nil
}

func value(m Measurements, pricing Pricing) Line {
	purity := ResolvePurity(m)
	net := decimal.Max(m.GrossWeight.Sub(m.StoneWeight), decimal.Zero)
	fine := net.Mul(purity)
	if m.Purity == nil && m.Metal == enums.MetalGold && m.Karat > 0 {
		// karat/24 does not terminate in decimal; divide last to keep fine exact.
		fine = net.Mul(decimal.NewFromInt(int64(m.Karat))).Div(karatScale)
	}
	gross := fine.Mul(pricing.LivePricePerGram24k).Mul(pricing.BuyRate)

	line := Line{
		ItemID:     m.ItemID,
		Purity:     purity,
		NetWeight:  net,
		FineGrams:  fine,
		Gross:      gross,
		LineFees:   m.LineFee,
		LinePayout: decimal.Max(gross.Sub(m.LineFee), decimal.Zero),
	}
	if purity.IsZero() {
		line.Warnings = append(line.Warnings, Warning{
			Code:    WarningZeroPurity,
			ItemID:  m.ItemID,
			Message: "item has no purity; it values at zero until purity or karat is recorded",
		})
	}
	return line
}

// Display rounds the line's money with mode and its weights to grams precision.
func (l Line) Display(mode enums.RoundingMode) LineDisplay {
	return LineDisplay{
		ItemID:     l.ItemID,
		Purity:     RoundPurity(l.Purity),
		NetWeight:  RoundWeight(l.NetWeight),
		FineGrams:  RoundWeight(l.FineGrams),
		Gross:      RoundMoney(l.Gross, mode),
		LineFees:   RoundMoney(l.LineFees, mode),
		LinePayout: RoundMoney(l.LinePayout, mode),
	}
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}
