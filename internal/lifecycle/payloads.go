package lifecycle

import (
	"strings"

	"github.com/angelmondragon/goldbuy-backend/internal/ledger"
	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	"github.com/angelmondragon/goldbuy-backend/pkg/types"
)

// PayloadKind names the payload variant a transition accepts.
type PayloadKind string

const (
	PayloadNone        PayloadKind = "none"
	PayloadReason      PayloadKind = "reason"
	PayloadSignature   PayloadKind = "signature"
	PayloadPayment     PayloadKind = "payment"
	PayloadDisposition PayloadKind = "disposition"
)

// Payload is the evidence supplied with a transition request.
type Payload interface {
	Kind() PayloadKind
}

// ReasonPayload carries a free-text reason for cancel, void or an override.
type ReasonPayload struct {
	Reason string
}

func (ReasonPayload) Kind() PayloadKind { return PayloadReason }

// SignaturePayload carries the signatures captured when the customer accepts.
type SignaturePayload struct {
	Customer types.Signature
	Staff    *types.Signature
}

func (SignaturePayload) Kind() PayloadKind { return PayloadSignature }

// PaymentPayload optionally records a payment in the same step as accepted ->
// paid. PartialReason lets a manager accept a payout that is not fully covered.
type PaymentPayload struct {
	Payment       *ledger.PaymentInput
	PartialReason string
}

func (PaymentPayload) Kind() PayloadKind { return PayloadPayment }

// DispositionPayload states where the metal goes after payout.
type DispositionPayload struct {
	Disposition      enums.Disposition
	RefiningLotID    string
	InventoryItemIDs []string
}

func (DispositionPayload) Kind() PayloadKind { return PayloadDisposition }

// Normalized trims identifiers and drops empty inventory ids.
func (p DispositionPayload) Normalized() DispositionPayload {
	out := DispositionPayload{
		Disposition:   p.Disposition,
		RefiningLotID: strings.TrimSpace(p.RefiningLotID),
	}
	for _, id := range p.InventoryItemIDs {
		if id = strings.TrimSpace(id); id != "" {
			out.InventoryItemIDs = append(out.InventoryItemIDs, id)
		}
	}
	return out
}

// DispositionProblem returns why p is not a complete disposition, or "".
func DispositionProblem(p DispositionPayload) string {
	p = p.Normalized()
	switch p.Disposition {
	case enums.DispositionScrap:
		if p.RefiningLotID == "" {
			return "scrap requires a refining lot id"
		}
	case enums.DispositionResale:
		if len(p.InventoryItemIDs) == 0 {
			return "resale requires at least one inventory item id"
		}
	default:
		return "disposition must be scrap or resale"
	}
	return ""
}

// ReasonOf extracts a trimmed reason from payloads that carry one.
func ReasonOf(p Payload) string {
	switch v := Normalize(p).(type) {
	case ReasonPayload:
		return strings.TrimSpace(v.Reason)
	case PaymentPayload:
		return strings.TrimSpace(v.PartialReason)
	}
	return ""
}

// Normalize dereferences pointer payloads so guards only see value variants.
func Normalize(p Payload) Payload {
	switch v := p.(type) {
	case *ReasonPayload:
		if v == nil {
			return nil
		}
		return *v
	case *SignaturePayload:
		if v == nil {
			return nil
		}
		return *v
	case *PaymentPayload:
		if v == nil {
			return nil
		}
		return *v
	case *DispositionPayload:
		if v == nil {
			return nil
		}
		return *v
	}
	return p
}
