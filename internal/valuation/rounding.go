package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
)

const (
	MoneyPlaces  int32 = 2
	WeightPlaces int32 = 3
	PurityPlaces int32 = 4
)

// RoundMoney rounds to cents using the ticket's rounding rule.
func RoundMoney(v decimal.Decimal, mode enums.RoundingMode) decimal.Decimal {
	switch mode {
	case enums.RoundingFloor:
		return v.RoundFloor(MoneyPlaces)
	case enums.RoundingCeiling:
		return v.RoundCeil(MoneyPlaces)
	default:
		return v.Round(MoneyPlaces)
	}
}

// RoundWeight rounds grams to milligram precision, half away from zero.
func RoundWeight(v decimal.Decimal) decimal.Decimal {
	return v.Round(WeightPlaces)
}

// RoundPurity rounds a purity fraction for display only.
func RoundPurity(v decimal.Decimal) decimal.Decimal {
	return v.Round(PurityPlaces)
}
