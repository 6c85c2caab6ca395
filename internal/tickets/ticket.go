package tickets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/internal/audit"
	"github.com/angelmondragon/goldbuy-backend/internal/ledger"
	"github.com/angelmondragon/goldbuy-backend/internal/lifecycle"
	"github.com/angelmondragon/goldbuy-backend/internal/valuation"
	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	"github.com/angelmondragon/goldbuy-backend/pkg/types"
)

// Item is one piece brought in for sale.
type Item struct {
	ID          uuid.UUID
	Type        string
	Description string
	Metal       enums.Metal
	Karat       int
	Purity      *decimal.Decimal
	TestMethod  string
	GrossWeight decimal.Decimal
	StoneWeight decimal.Decimal
	LineFee     decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Measurements projects the item onto the valuation inputs.
func (i Item) Measurements() valuation.Measurements {
	return valuation.Measurements{
		ItemID:      i.ID.String(),
		Metal:       i.Metal,
		Karat:       i.Karat,
		Purity:      i.Purity,
		GrossWeight: i.GrossWeight,
		StoneWeight: i.StoneWeight,
		LineFee:     i.LineFee,
	}
}

func (i Item) clone() Item {
	out := i
	if i.Purity != nil {
		p := *i.Purity
		out.Purity = &p
	}
	return out
}

// Ticket is the gold buy aggregate. Commands never modify a Ticket in place;
// they return a modified copy.
type Ticket struct {
	ID           uuid.UUID
	TicketNumber string
	Status       enums.TicketStatus
	Version      int64
	Customer     types.Customer
	KYC          *types.KYC
	Items        []Item
	Pricing      valuation.Pricing
	Snapshot     *valuation.Pricing
	Payments     []ledger.Payment
	Signatures   types.Signatures
	PostBuy      *types.PostBuy
	Overrides    []types.OverrideReason
	Comment      string
	Audit        []audit.Entry
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	itemsChanged bool
}

// Clone returns a deep copy of t.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	out := *t
	out.Customer = cloneCustomer(t.Customer)
	if t.KYC != nil {
		kyc := *t.KYC
		if t.KYC.ExpiresAt != nil {
			at := *t.KYC.ExpiresAt
			kyc.ExpiresAt = &at
		}
		out.KYC = &kyc
	}
	out.Items = make([]Item, len(t.Items))
	for i, item := range t.Items {
		out.Items[i] = item.clone()
	}
	out.Pricing = t.Pricing.Clone()
	if t.Snapshot != nil {
		snap := t.Snapshot.Clone()
		out.Snapshot = &snap
	}
	out.Payments = append([]ledger.Payment(nil), t.Payments...)
	out.Signatures = types.Signatures{Customer: cloneSignature(t.Signatures.Customer), Staff: cloneSignature(t.Signatures.Staff)}
	if t.PostBuy != nil {
		pb := *t.PostBuy
		pb.InventoryItemIDs = append([]string(nil), t.PostBuy.InventoryItemIDs...)
		out.PostBuy = &pb
	}
	out.Overrides = append([]types.OverrideReason(nil), t.Overrides...)
	out.Audit = append([]audit.Entry(nil), t.Audit...)
	return &out
}

func cloneCustomer(c types.Customer) types.Customer {
	out := c
	if c.Address != nil {
		addr := *c.Address
		if c.Address.Line2 != nil {
			line2 := *c.Address.Line2
			addr.Line2 = &line2
		}
		out.Address = &addr
	}
	return out
}

func cloneSignature(s *types.Signature) *types.Signature {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// EffectivePricing is the frozen snapshot once quoted, else the working copy.
func (t *Ticket) EffectivePricing() valuation.Pricing {
	if t.Snapshot != nil {
		return *t.Snapshot
	}
	return t.Pricing
}

// Measurements returns every item's valuation inputs in item order.
func (t *Ticket) Measurements() []valuation.Measurements {
	out := make([]valuation.Measurements, 0, len(t.Items))
	for _, item := range t.Items {
		out = append(out, item.Measurements())
	}
	return out
}

// Totals values the ticket against its effective pricing.
func (t *Ticket) Totals() (valuation.Totals, error) {
	return valuation.Aggregate(t.Measurements(), t.EffectivePricing())
}

// PayoutDue is the rounded payout, or zero when the ticket cannot be valued.
func (t *Ticket) PayoutDue() decimal.Decimal {
	totals, err := t.Totals()
	if err != nil {
		return decimal.Zero
	}
	return totals.PayoutDue()
}

// Ledger builds the payment ledger over recorded payments.
func (t *Ticket) Ledger(tolerance decimal.Decimal) *ledger.Ledger {
	return ledger.New(t.PayoutDue(), tolerance, t.Payments)
}

// Trail wraps the audit history.
func (t *Ticket) Trail() *audit.Trail {
	return audit.NewTrail(t.Audit)
}

func (t *Ticket) findItem(id uuid.UUID) int {
	for i, item := range t.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// subject adapts a ticket to the guard view of the lifecycle machine.
type subject struct {
	t *Ticket
}

var _ lifecycle.Subject = subject{}

func (s subject) Status() enums.TicketStatus { return s.t.Status }

func (s subject) ItemIDs() []string {
	out := make([]string, 0, len(s.t.Items))
	for _, item := range s.t.Items {
		out = append(out, item.ID.String())
	}
	return out
}

func (s subject) ItemsMissingTestMethod() []string {
	out := []string{}
	for _, item := range s.t.Items {
		if item.TestMethod == "" {
			out = append(out, item.ID.String())
		}
	}
	return out
}

func (s subject) ZeroPurityItems() []string {
	out := []string{}
	for _, item := range s.t.Items {
		if valuation.ResolvePurity(item.Measurements()).IsZero() {
			out = append(out, item.ID.String())
		}
	}
	return out
}

func (s subject) PricingProblem() error {
	return s.t.EffectivePricing().Validate()
}

func (s subject) HasCustomerSignature() bool {
	return s.t.Signatures.Customer.IsComplete()
}

func (s subject) PaidTotal() decimal.Decimal {
	return ledger.New(decimal.Zero, decimal.Zero, s.t.Payments).Total()
}

func (s subject) PayoutDue() decimal.Decimal { return s.t.PayoutDue() }

func (s subject) CurrentDisposition() *lifecycle.DispositionPayload {
	if s.t.PostBuy == nil {
		return nil
	}
	return &lifecycle.DispositionPayload{
		Disposition:      s.t.PostBuy.Disposition,
		RefiningLotID:    s.t.PostBuy.RefiningLotID,
		InventoryItemIDs: s.t.PostBuy.InventoryItemIDs,
	}
}
