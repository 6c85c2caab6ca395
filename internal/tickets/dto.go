package tickets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/internal/ledger"
	"github.com/angelmondragon/goldbuy-backend/internal/valuation"
	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	"github.com/angelmondragon/goldbuy-backend/pkg/types"
)

// ItemView is an item as returned to clients, with its rounded valuation once
// pricing allows one.
type ItemView struct {
	ID          uuid.UUID        `json:"id"`
	Type        string           `json:"type,omitempty"`
	Description string           `json:"description,omitempty"`
	Metal       enums.Metal      `json:"metal"`
	Karat       int              `json:"karat,omitempty"`
	Purity      *decimal.Decimal `json:"purity,omitempty"`
	TestMethod  string           `json:"testMethod,omitempty"`
	GrossWeight decimal.Decimal  `json:"grossWeight"`
	StoneWeight decimal.Decimal  `json:"stoneWeight"`
	LineFee     decimal.Decimal  `json:"lineFee"`

	NetWeight  decimal.Decimal  `json:"netWeight"`
	FineGrams  *decimal.Decimal `json:"fineGrams,omitempty"`
	LinePayout *decimal.Decimal `json:"linePayout,omitempty"`
}

// BalanceView summarises recorded payments against the payout.
type BalanceView struct {
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
}

// TotalsView is the response of the totals endpoint.
type TotalsView struct {
	Totals   *valuation.TotalsDisplay `json:"totals"`
	Balance  BalanceView              `json:"balance"`
	Warnings []valuation.Warning      `json:"warnings"`
}

// View is the full ticket representation.
type View struct {
	ID                  uuid.UUID                `json:"id"`
	TicketNumber        string                   `json:"ticketNumber"`
	Status              enums.TicketStatus       `json:"status"`
	Version             int64                    `json:"version"`
	CustomerInformation types.Customer           `json:"customerInformation"`
	KYC                 *types.KYC               `json:"kyc,omitempty"`
	Items               []ItemView               `json:"items"`
	Pricing             valuation.Pricing        `json:"pricing"`
	Totals              *valuation.TotalsDisplay `json:"totals"`
	Balance             BalanceView              `json:"balance"`
	Payments            []ledger.Payment         `json:"payments"`
	Signatures          types.Signatures         `json:"signatures"`
	PostBuy             *types.PostBuy           `json:"postBuy,omitempty"`
	OverrideReasons     []types.OverrideReason   `json:"overrideReasons"`
	Comment             string                   `json:"comment,omitempty"`
	Warnings            []valuation.Warning      `json:"warnings"`
	AllowedTransitions  []enums.TicketStatus     `json:"allowedTransitions"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
}

// NewTotalsView rounds a summary for display.
func NewTotalsView(s Summary) TotalsView {
	out := TotalsView{
		Balance:  BalanceView{Paid: s.Paid, Remaining: s.Remaining},
		Warnings: s.Warnings,
	}
	if s.Totals != nil {
		display := s.Totals.Display()
		out.Totals = &display
	}
	if out.Warnings == nil {
		out.Warnings = []valuation.Warning{}
	}
	return out
}

// NewView projects a ticket for clients. The pricing shown is the frozen
// snapshot once quoted.
func NewView(t *Ticket, summary Summary, allowed []enums.TicketStatus) View {
	totals := NewTotalsView(summary)
	lines := map[string]valuation.LineDisplay{}
	if totals.Totals != nil {
		for _, line := range totals.Totals.Lines {
			lines[line.ItemID] = line
		}
	}

	items := make([]ItemView, 0, len(t.Items))
	for _, item := range t.Items {
		view := ItemView{
			ID:          item.ID,
			Type:        item.Type,
			Description: item.Description,
			Metal:       item.Metal,
			Karat:       item.Karat,
			Purity:      item.Purity,
			TestMethod:  item.TestMethod,
			GrossWeight: item.GrossWeight,
			StoneWeight: item.StoneWeight,
			LineFee:     item.LineFee,
			NetWeight:   valuation.RoundWeight(decimal.Max(item.GrossWeight.Sub(item.StoneWeight), decimal.Zero)),
		}
		if line, ok := lines[item.ID.String()]; ok {
			fine, payout := line.FineGrams, line.LinePayout
			view.FineGrams = &fine
			view.LinePayout = &payout
		}
		items = append(items, view)
	}

	if allowed == nil {
		allowed = []enums.TicketStatus{}
	}
	payments := t.Payments
	if payments == nil {
		payments = []ledger.Payment{}
	}
	overrides := t.Overrides
	if overrides == nil {
		overrides = []types.OverrideReason{}
	}

	return View{
		ID:                  t.ID,
		TicketNumber:        t.TicketNumber,
		Status:              t.Status,
		Version:             t.Version,
		CustomerInformation: t.Customer,
		KYC:                 t.KYC,
		Items:               items,
		Pricing:             t.EffectivePricing(),
		Totals:              totals.Totals,
		Balance:             totals.Balance,
		Payments:            payments,
		Signatures:          t.Signatures,
		PostBuy:             t.PostBuy,
		OverrideReasons:     overrides,
		Comment:             t.Comment,
		Warnings:            totals.Warnings,
		AllowedTransitions:  allowed,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}
