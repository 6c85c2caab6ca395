package tickets

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/internal/audit"
	"github.com/angelmondragon/goldbuy-backend/internal/ledger"
	"github.com/angelmondragon/goldbuy-backend/internal/lifecycle"
	"github.com/angelmondragon/goldbuy-backend/internal/valuation"
	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
	"github.com/angelmondragon/goldbuy-backend/pkg/types"
)

// CreateInput opens a new ticket at the counter.
type CreateInput struct {
	TicketNumber string
	Customer     types.Customer
	KYC          *types.KYC
	Comment      string
	Actor        string
}

// ItemInput adds or replaces one item. A nil ID adds a new item.
type ItemInput struct {
	ID          *uuid.UUID
	Type        string
	Description string
	Metal       enums.Metal
	Karat       int
	Purity      *decimal.Decimal
	TestMethod  string
	GrossWeight decimal.Decimal
	StoneWeight decimal.Decimal
	LineFee     decimal.Decimal
}

// NewTicket builds a draft ticket with its creation audit entry.
func NewTicket(in CreateInput, now time.Time) (*Ticket, error) {
	details := map[string]string{}
	number := strings.TrimSpace(in.TicketNumber)
	if number == "" {
		details["ticketNumber"] = "is required"
	}
	if strings.TrimSpace(in.Customer.Name) == "" {
		details["customerInformation.name"] = "is required"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket").WithDetails(details)
	}

	now = now.UTC()
	t := &Ticket{
		ID:           uuid.New(),
		TicketNumber: number,
		Status:       enums.TicketStatusDraft,
		Version:      1,
		Customer:     cloneCustomer(in.Customer),
		KYC:          in.KYC,
		Comment:      strings.TrimSpace(in.Comment),
		CreatedBy:    in.Actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	trail := audit.NewTrail(nil)
	if _, err := trail.RecordCreated(t.Status, in.Actor, now); err != nil {
		return nil, err
	}
	t.Audit = trail.Entries()
	return t, nil
}

// UpsertItem adds a new item, or replaces the item named by in.ID. An id that
// is not on the ticket is NOT_FOUND; new items always get a fresh id.
func (t *Ticket) UpsertItem(in ItemInput, now time.Time) (*Ticket, Item, error) {
	if !t.Status.AllowsItemEdits() {
		return nil, Item{}, frozen("items", t.Status)
	}

	now = now.UTC()
	item := Item{
		Type:        strings.TrimSpace(in.Type),
		Description: strings.TrimSpace(in.Description),
		Metal:       in.Metal,
		Karat:       in.Karat,
		Purity:      in.Purity,
		TestMethod:  strings.TrimSpace(in.TestMethod),
		GrossWeight: in.GrossWeight,
		StoneWeight: in.StoneWeight,
		LineFee:     in.LineFee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.ID != nil && *in.ID != uuid.Nil {
		if t.findItem(*in.ID) < 0 {
			return nil, Item{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "item %s not found on ticket", *in.ID)
		}
		item.ID = *in.ID
	} else {
		item.ID = uuid.New()
	}
	if err := valuation.ValidateMeasurements(item.Measurements()); err != nil {
		return nil, Item{}, err
	}

	next := t.Clone()
	if idx := next.findItem(item.ID); idx >= 0 {
		item.CreatedAt = next.Items[idx].CreatedAt
		next.Items[idx] = item.clone()
	} else {
		next.Items = append(next.Items, item.clone())
	}
	next.itemsChanged = true
	next.UpdatedAt = now
	return next, item, nil
}

// RemoveItem drops an item while items are still editable.
func (t *Ticket) RemoveItem(itemID uuid.UUID, now time.Time) (*Ticket, error) {
	if !t.Status.AllowsItemEdits() {
		return nil, frozen("items", t.Status)
	}
	idx := t.findItem(itemID)
	if idx < 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "item %s not found on ticket", itemID)
	}
	next := t.Clone()
	next.Items = append(next.Items[:idx], next.Items[idx+1:]...)
	next.itemsChanged = true
	next.UpdatedAt = now.UTC()
	return next, nil
}

// SetPricing replaces the working pricing. It is rejected once the ticket has
// been quoted, which is when the snapshot is frozen.
func (t *Ticket) SetPricing(p valuation.Pricing, now time.Time) (*Ticket, error) {
	if !t.Status.AllowsItemEdits() {
		return nil, frozen("pricing", t.Status)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	next := t.Clone()
	next.Pricing = p.Clone()
	next.Pricing.CapturedAt = nil
	next.UpdatedAt = now.UTC()
	return next, nil
}

// Transition moves the ticket to a new status after the machine accepts it,
// applying the side effects particular to the edge.
func (t *Ticket) Transition(m *lifecycle.Machine, to enums.TicketStatus, payload lifecycle.Payload, actor string, tolerance decimal.Decimal, now time.Time) (*Ticket, error) {
	if m == nil {
		m = lifecycle.Default()
	}
	now = now.UTC()
	payload = lifecycle.Normalize(payload)

	if _, err := m.Check(subject{t: t}, to, payload); err != nil {
		return nil, err
	}

	next := t.Clone()
	from := next.Status
	trail := next.Trail()

	switch to {
	case enums.TicketStatusQuoted:
		if zero := (subject{t: next}).ZeroPurityItems(); len(zero) > 0 {
			if err := next.recordOverride(trail, enums.OverrideZeroPurity, lifecycle.ReasonOf(payload), actor, now); err != nil {
				return nil, err
			}
		}
		snapshot := next.Pricing.Capture(now)
		next.Snapshot = &snapshot

	case enums.TicketStatusAccepted:
		if sig, ok := payload.(lifecycle.SignaturePayload); ok && sig.Customer.IsComplete() {
			next.Signatures.Customer = stampSignature(sig.Customer, now)
			if sig.Staff.IsComplete() {
				next.Signatures.Staff = stampSignature(*sig.Staff, now)
			}
		}

	case enums.TicketStatusPaid:
		pay, _ := payload.(lifecycle.PaymentPayload)
		l := next.Ledger(tolerance)
		if pay.Payment != nil {
			payment, err := l.Append(*pay.Payment, actor, now)
			if err != nil {
				return nil, err
			}
			if payment.Overridden() {
				if err := next.recordOverride(trail, enums.OverrideOverpayment, payment.OverrideReason, actor, now); err != nil {
					return nil, err
				}
			}
			next.Payments = l.Payments()
		}
		if !l.Covered() {
			if err := next.recordOverride(trail, enums.OverridePartialAcceptance, pay.PartialReason, actor, now); err != nil {
				return nil, err
			}
		}

	case enums.TicketStatusCancelled:
		if len(next.Payments) > 0 {
			if err := next.recordOverride(trail, enums.OverrideCancelledWithPayments, lifecycle.ReasonOf(payload), actor, now); err != nil {
				return nil, err
			}
		}

	case enums.TicketStatusPosted:
		if disp, ok := payload.(lifecycle.DispositionPayload); ok {
			if next.PostBuy != nil {
				return nil, frozen("postBuy", next.Status)
			}
			next.PostBuy = postBuyFrom(disp, actor, now)
		}
	}

	if _, err := trail.RecordTransition(from, to, actor, lifecycle.ReasonOf(payload), now); err != nil {
		return nil, err
	}
	next.Audit = trail.Entries()
	next.Status = to
	next.UpdatedAt = now
	return next, nil
}

// RecordPayment appends a payment while the ticket is accepted or paid.
func (t *Ticket) RecordPayment(in ledger.PaymentInput, actor string, tolerance decimal.Decimal, now time.Time) (*Ticket, ledger.Payment, error) {
	if !t.Status.AllowsPayments() {
		return nil, ledger.Payment{}, pkgerrors.New(pkgerrors.CodePreconditionNotMet, "ticket must be accepted or paid").
			WithDetails(map[string]any{"requirement": "ticket must be accepted or paid", "status": t.Status})
	}
	now = now.UTC()
	next := t.Clone()
	l := next.Ledger(tolerance)
	payment, err := l.Append(in, actor, now)
	if err != nil {
		return nil, ledger.Payment{}, err
	}
	next.Payments = l.Payments()
	if payment.Overridden() {
		trail := next.Trail()
		if err := next.recordOverride(trail, enums.OverrideOverpayment, payment.OverrideReason, actor, now); err != nil {
			return nil, ledger.Payment{}, err
		}
		next.Audit = trail.Entries()
	}
	next.UpdatedAt = now
	return next, payment, nil
}

// SetDisposition records where the metal goes ahead of posting. It can be set
// exactly once.
func (t *Ticket) SetDisposition(p lifecycle.DispositionPayload, actor string, now time.Time) (*Ticket, error) {
	if t.Status != enums.TicketStatusAccepted && t.Status != enums.TicketStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodePreconditionNotMet, "ticket must be accepted or paid").
			WithDetails(map[string]any{"requirement": "ticket must be accepted or paid", "status": t.Status})
	}
	if t.PostBuy != nil {
		return nil, frozen("postBuy", t.Status)
	}
	if problem := lifecycle.DispositionProblem(p); problem != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid disposition").
			WithDetails(map[string]string{"disposition": problem})
	}
	now = now.UTC()
	next := t.Clone()
	next.PostBuy = postBuyFrom(p, actor, now)
	next.UpdatedAt = now
	return next, nil
}

func (t *Ticket) recordOverride(trail *audit.Trail, kind enums.OverrideKind, reason, actor string, now time.Time) error {
	entry, err := trail.RecordOverride(kind, t.Status, actor, reason, now)
	if err != nil {
		return err
	}
	t.Overrides = append(t.Overrides, types.OverrideReason{
		Kind:     kind,
		Reason:   entry.Reason,
		Actor:    actor,
		At:       entry.At,
		AuditSeq: entry.Seq,
	})
	t.Audit = trail.Entries()
	return nil
}

func postBuyFrom(p lifecycle.DispositionPayload, actor string, now time.Time) *types.PostBuy {
	p = p.Normalized()
	return &types.PostBuy{
		Disposition:      p.Disposition,
		RefiningLotID:    p.RefiningLotID,
		InventoryItemIDs: p.InventoryItemIDs,
		SetAt:            now,
		SetBy:            actor,
	}
}

func stampSignature(s types.Signature, now time.Time) *types.Signature {
	s.Name = strings.TrimSpace(s.Name)
	s.Reference = strings.TrimSpace(s.Reference)
	if s.SignedAt.IsZero() {
		s.SignedAt = now
	}
	s.SignedAt = s.SignedAt.UTC()
	return &s
}

func frozen(field string, status enums.TicketStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeFrozenField, "%s cannot change once the ticket is %s", field, status).
		WithDetails(map[string]any{"field": field, "status": status})
}
