package valuation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func ringPricing() Pricing {
	return Pricing{
		LivePricePerGram24k: d("75.00"),
		BuyRate:             d("0.90"),
		Fees: FeeSchedule{
			TestFee:         d("10"),
			RefiningPerGram: d("0.50"),
		},
	}
}

func ring22k() Measurements {
	return Measurements{
		ItemID:      "ring",
		Metal:       enums.MetalGold,
		Karat:       22,
		GrossWeight: d("10"),
		StoneWeight: d("1"),
	}
}

func TestAggregate_22kRingScenario(t *testing.T) {
	totals, err := Aggregate([]Measurements{ring22k()}, ringPricing())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	view := totals.Display()
	checks := map[string]struct {
		got  decimal.Decimal
		want string
	}{
		"fineGoldGrams": {view.FineGoldGrams, "8.25"},
		"gross":         {view.Gross, "556.88"},
		"fees":          {view.Fees, "14.13"},
		"payout":        {view.Payout, "542.75"},
		"testFee":       {view.Breakdown.TestFee, "10"},
		"refiningFees":  {view.Breakdown.RefiningFees, "4.13"},
	}
	for name, c := range checks {
		if !c.got.Equal(d(c.want)) {
			t.Fatalf("%s: expected %s, got %s", name, c.want, c.got)
		}
	}
	if !totals.Payout.Equal(d("542.75")) {
		t.Fatalf("exact payout should be 542.75, got %s", totals.Payout)
	}
	if len(totals.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", totals.Warnings)
	}
}

func TestValue_WeightsAndPurity(t *testing.T) {
	cases := []struct {
		name       string
		m          Measurements
		wantPurity string
		wantNet    string
		wantFine   string
		wantWarn   bool
	}{
		{
			name:       "karat derived purity",
			m:          ring22k(),
			wantPurity: "0.9167",
			wantNet:    "9",
			wantFine:   "8.25",
		},
		{
			name: "explicit purity overrides karat",
			m: Measurements{
				ItemID: "chain", Metal: enums.MetalGold, Karat: 14, Purity: dp("0.5"),
				GrossWeight: d("4.2"), StoneWeight: d("0"),
			},
			wantPurity: "0.5",
			wantNet:    "4.2",
			wantFine:   "2.1",
		},
		{
			name: "silver without purity warns",
			m: Measurements{
				ItemID: "spoon", Metal: enums.MetalSilver, GrossWeight: d("30"),
			},
			wantPurity: "0",
			wantNet:    "30",
			wantFine:   "0",
			wantWarn:   true,
		},
		{
			name: "stone equal to gross",
			m: Measurements{
				ItemID: "pendant", Metal: enums.MetalGold, Karat: 18,
				GrossWeight: d("2"), StoneWeight: d("2"),
			},
			wantPurity: "0.75",
			wantNet:    "0",
			wantFine:   "0",
		},
		{
			name: "24k is pure",
			m: Measurements{
				ItemID: "bar", Metal: enums.MetalGold, Karat: 24, GrossWeight: d("1.2345"),
			},
			wantPurity: "1",
			wantNet:    "1.235",
			wantFine:   "1.235",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line, err := Value(tc.m, ringPricing())
			if err != nil {
				t.Fatalf("value: %v", err)
			}
			view := line.Display(enums.RoundingNearest)
			if !view.Purity.Equal(d(tc.wantPurity)) {
				t.Fatalf("purity: expected %s, got %s", tc.wantPurity, view.Purity)
			}
			if !view.NetWeight.Equal(d(tc.wantNet)) {
				t.Fatalf("net: expected %s, got %s", tc.wantNet, view.NetWeight)
			}
			if !view.FineGrams.Equal(d(tc.wantFine)) {
				t.Fatalf("fine: expected %s, got %s", tc.wantFine, view.FineGrams)
			}
			if !view.FineGrams.Equal(RoundWeight(line.NetWeight.Mul(line.Purity))) {
				t.Fatalf("fine grams must equal round(net x purity, 3)")
			}
			if got := len(line.Warnings) > 0; got != tc.wantWarn {
				t.Fatalf("warning: expected %v, got %v", tc.wantWarn, line.Warnings)
			}
			if tc.wantWarn && line.Warnings[0].Code != WarningZeroPurity {
				t.Fatalf("unexpected warning code %q", line.Warnings[0].Code)
			}
		})
	}
}

func TestValue_RejectsInvalidMeasurements(t *testing.T) {
	cases := []struct {
		name  string
		m     Measurements
		field string
	}{
		{"negative gross", Measurements{Metal: enums.MetalGold, GrossWeight: d("-1")}, "grossWeight"},
		{"negative stone", Measurements{Metal: enums.MetalGold, GrossWeight: d("1"), StoneWeight: d("-0.1")}, "stoneWeight"},
		{"stone exceeds gross", Measurements{Metal: enums.MetalGold, GrossWeight: d("1"), StoneWeight: d("1.5")}, "stoneWeight"},
		{"purity above one", Measurements{Metal: enums.MetalGold, Purity: dp("1.01"), GrossWeight: d("1")}, "purity"},
		{"negative purity", Measurements{Metal: enums.MetalPlatinum, Purity: dp("-0.1"), GrossWeight: d("1")}, "purity"},
		{"karat above 24", Measurements{Metal: enums.MetalGold, Karat: 25, GrossWeight: d("1")}, "karat"},
		{"karat on silver", Measurements{Metal: enums.MetalSilver, Karat: 10, GrossWeight: d("1")}, "karat"},
		{"unknown metal", Measurements{Metal: enums.Metal("copper"), GrossWeight: d("1")}, "metal"},
		{"negative line fee", Measurements{Metal: enums.MetalGold, GrossWeight: d("1"), LineFee: d("-2")}, "lineFee"},
		{"sub-cent line fee", Measurements{Metal: enums.MetalGold, GrossWeight: d("1"), LineFee: d("1.005")}, "lineFee"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Value(tc.m, ringPricing())
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			details, ok := pkgerrors.As(err).Details().(map[string]string)
			if !ok {
				t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
			}
			if _, ok := details[tc.field]; !ok {
				t.Fatalf("expected details to name %q, got %v", tc.field, details)
			}
		})
	}
}

func TestPricingValidate_CollectsAllViolations(t *testing.T) {
	p := Pricing{
		LivePricePerGram24k: d("0"),
		BuyRate:             d("1.5"),
		Fees: FeeSchedule{
			TestFee:         d("-1"),
			RefiningPerGram: d("-0.2"),
			FlatFees:        []FlatFee{{Label: " ", Amount: d("-3")}},
		},
		Rounding: enums.RoundingMode("bankers"),
	}

	err := p.Validate()
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := pkgerrors.As(err).Details().(map[string]string)
	for _, field := range []string{
		"livePricePerGram24k",
		"buyRate",
		"fees.testFee",
		"fees.refiningFeePerGram",
		"fees.flatFees[0].amount",
		"fees.flatFees[0].label",
		"rounding",
	} {
		if _, ok := details[field]; !ok {
			t.Fatalf("expected violation for %s, got %v", field, details)
		}
	}

	if err := ringPricing().Validate(); err != nil {
		t.Fatalf("expected valid pricing, got %v", err)
	}
}

func TestAggregate_PayoutClampsAtZero(t *testing.T) {
	cases := []struct {
		name       string
		fees       FeeSchedule
		wantFees   string
		wantPayout string
	}{
		{name: "zero fees", fees: FeeSchedule{}, wantFees: "0", wantPayout: "556.88"},
		{name: "fees exceed gross", fees: FeeSchedule{TestFee: d("600")}, wantFees: "600", wantPayout: "0"},
		{
			name:       "flat fees",
			fees:       FeeSchedule{FlatFees: []FlatFee{{Label: "handling", Amount: d("5")}, {Label: "courier", Amount: d("1.25")}}},
			wantFees:   "6.25",
			wantPayout: "550.63",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pricing := ringPricing()
			pricing.Fees = tc.fees
			totals, err := Aggregate([]Measurements{ring22k()}, pricing)
			if err != nil {
				t.Fatalf("aggregate: %v", err)
			}
			view := totals.Display()
			if !view.Fees.Equal(d(tc.wantFees)) {
				t.Fatalf("fees: expected %s, got %s", tc.wantFees, view.Fees)
			}
			if !view.Payout.Equal(d(tc.wantPayout)) {
				t.Fatalf("payout: expected %s, got %s", tc.wantPayout, view.Payout)
			}
			if totals.Payout.IsNegative() {
				t.Fatalf("payout must never be negative")
			}
		})
	}
}

func TestAggregate_LineFeesAndRefiningSkip(t *testing.T) {
	pricing := ringPricing()
	pricing.Fees.RefiningPerGram = decimal.Zero

	withFee := ring22k()
	withFee.LineFee = d("2.50")
	totals, err := Aggregate([]Measurements{withFee}, pricing)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if !totals.RefiningFees.IsZero() {
		t.Fatalf("refining fee should be skipped at rate 0, got %s", totals.RefiningFees)
	}
	if !totals.Fees.Equal(d("12.50")) {
		t.Fatalf("expected fees 12.50, got %s", totals.Fees)
	}
	if !totals.Lines[0].LinePayout.Equal(d("554.375")) {
		t.Fatalf("unexpected line payout %s", totals.Lines[0].LinePayout)
	}
}

func TestAggregate_OrderIndependentAndIdempotent(t *testing.T) {
	items := []Measurements{
		ring22k(),
		{ItemID: "chain", Metal: enums.MetalGold, Karat: 14, GrossWeight: d("7.31"), LineFee: d("1")},
		{ItemID: "coin", Metal: enums.MetalSilver, Purity: dp("0.999"), GrossWeight: d("31.103")},
	}
	reversed := []Measurements{items[2], items[1], items[0]}

	first, err := Aggregate(items, ringPricing())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	again, err := Aggregate(items, ringPricing())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	flipped, err := Aggregate(reversed, ringPricing())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	for _, other := range []Totals{again, flipped} {
		if !first.Gross.Equal(other.Gross) || !first.Fees.Equal(other.Fees) ||
			!first.Payout.Equal(other.Payout) || !first.FineGrams.Equal(other.FineGrams) {
			t.Fatalf("totals differ: %+v vs %+v", first.Display(), other.Display())
		}
	}
}

func TestAggregate_RejectsInvalidItemsWithIndex(t *testing.T) {
	items := []Measurements{
		ring22k(),
		{ItemID: "bad", Metal: enums.MetalGold, GrossWeight: d("1"), StoneWeight: d("2")},
	}
	_, err := Aggregate(items, ringPricing())
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := pkgerrors.As(err).Details().(map[string]any)
	entries := details["items"].([]map[string]any)
	if len(entries) != 1 || entries[0]["index"] != 1 || entries[0]["itemId"] != "bad" {
		t.Fatalf("unexpected item details %v", entries)
	}
}

func TestAggregate_RequiresValidPricing(t *testing.T) {
	_, err := Aggregate([]Measurements{ring22k()}, Pricing{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRoundMoney_Modes(t *testing.T) {
	cases := []struct {
		mode enums.RoundingMode
		in   string
		want string
	}{
		{enums.RoundingNearest, "14.125", "14.13"},
		{enums.RoundingNearest, "14.124", "14.12"},
		{enums.RoundingFloor, "14.129", "14.12"},
		{enums.RoundingCeiling, "14.121", "14.13"},
		{enums.RoundingMode(""), "0.005", "0.01"},
	}
	for _, tc := range cases {
		if got := RoundMoney(d(tc.in), tc.mode); !got.Equal(d(tc.want)) {
			t.Fatalf("%s(%s): expected %s, got %s", tc.mode, tc.in, tc.want, got)
		}
	}
}

func TestPricingCaptureIsDeepCopy(t *testing.T) {
	pricing := ringPricing()
	pricing.Fees.FlatFees = []FlatFee{{Label: "handling", Amount: d("5")}}

	at := time.Date(2026, 10, 14, 9, 30, 0, 0, time.FixedZone("EDT", -4*3600))
	snapshot := pricing.Capture(at)
	pricing.Fees.FlatFees[0].Amount = d("50")

	if !snapshot.Fees.FlatFees[0].Amount.Equal(d("5")) {
		t.Fatalf("snapshot must not share flat fees with the working copy")
	}
	if snapshot.CapturedAt == nil || snapshot.CapturedAt.Location() != time.UTC {
		t.Fatalf("expected capturedAt in UTC, got %v", snapshot.CapturedAt)
	}
	if snapshot.Rounding != enums.RoundingNearest {
		t.Fatalf("expected default rounding captured, got %q", snapshot.Rounding)
	}
}
