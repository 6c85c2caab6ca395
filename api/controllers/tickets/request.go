package tickets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/api/validators"
	"github.com/angelmondragon/goldbuy-backend/internal/ledger"
	"github.com/angelmondragon/goldbuy-backend/internal/lifecycle"
	internaltickets "github.com/angelmondragon/goldbuy-backend/internal/tickets"
	"github.com/angelmondragon/goldbuy-backend/internal/valuation"
	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
	"github.com/angelmondragon/goldbuy-backend/pkg/types"
)

const (
	maxTextLength   = 2000
	maxReasonLength = 1000
	maxLabelLength  = 64
)

type addressRequest struct {
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postalCode" validate:"required,max=20"`
	Country    string  `json:"country" validate:"omitempty,max=2"`
}

type customerRequest struct {
	Name    string          `json:"name" validate:"required,max=200"`
	Phone   string          `json:"phone" validate:"omitempty,max=32"`
	Email   string          `json:"email" validate:"omitempty,email,max=254"`
	Address *addressRequest `json:"address"`
}

type kycRequest struct {
	IDType           string     `json:"idType" validate:"required,max=64"`
	IDNumber         string     `json:"idNumber" validate:"required,max=64"`
	IssuingAuthority string     `json:"issuingAuthority" validate:"omitempty,max=200"`
	ExpiresAt        *time.Time `json:"expiresAt"`
}

type createTicketRequest struct {
	TicketNumber        string          `json:"ticketNumber" validate:"required,max=64"`
	CustomerInformation customerRequest `json:"customerInformation"`
	KYC                 *kycRequest     `json:"kyc"`
	Comment             string          `json:"comment" validate:"max=2000"`
}

func (r createTicketRequest) toInput(actor string) internaltickets.CreateInput {
	customer := types.Customer{
		Name:  validators.SanitizeString(r.CustomerInformation.Name, 200),
		Phone: validators.SanitizeString(r.CustomerInformation.Phone, 32),
		Email: validators.SanitizeString(r.CustomerInformation.Email, 254),
	}
	if addr := r.CustomerInformation.Address; addr != nil {
		customer.Address = &types.CustomerAddress{
			Line1:      validators.SanitizeString(addr.Line1, 200),
			Line2:      addr.Line2,
			City:       validators.SanitizeString(addr.City, 100),
			State:      validators.SanitizeString(addr.State, 100),
			PostalCode: validators.SanitizeString(addr.PostalCode, 20),
			Country:    validators.SanitizeString(addr.Country, 2),
		}
	}

	in := internaltickets.CreateInput{
		TicketNumber: validators.SanitizeString(r.TicketNumber, 64),
		Customer:     customer,
		Comment:      validators.SanitizeString(r.Comment, maxTextLength),
		Actor:        actor,
	}
	if r.KYC != nil {
		in.KYC = &types.KYC{
			IDType:           validators.SanitizeString(r.KYC.IDType, 64),
			IDNumber:         validators.SanitizeString(r.KYC.IDNumber, 64),
			IssuingAuthority: validators.SanitizeString(r.KYC.IssuingAuthority, 200),
			ExpiresAt:        r.KYC.ExpiresAt,
		}
	}
	return in
}

type upsertItemRequest struct {
	Version     int64            `json:"version" validate:"required,gte=1"`
	ID          *uuid.UUID       `json:"id"`
	Type        string           `json:"type" validate:"max=64"`
	Description string           `json:"description" validate:"max=500"`
	Metal       string           `json:"metal" validate:"required,oneof=gold silver platinum"`
	Karat       int              `json:"karat" validate:"gte=0,lte=24"`
	Purity      *decimal.Decimal `json:"purity"`
	TestMethod  string           `json:"testMethod" validate:"max=64"`
	GrossWeight *decimal.Decimal `json:"grossWeight" validate:"required"`
	StoneWeight *decimal.Decimal `json:"stoneWeight"`
	LineFee     *decimal.Decimal `json:"lineFee"`
}

func (r upsertItemRequest) toInput() internaltickets.ItemInput {
	return internaltickets.ItemInput{
		ID:          r.ID,
		Type:        validators.SanitizeString(r.Type, maxLabelLength),
		Description: validators.SanitizeString(r.Description, 500),
		Metal:       enums.Metal(r.Metal),
		Karat:       r.Karat,
		Purity:      r.Purity,
		TestMethod:  validators.SanitizeString(r.TestMethod, maxLabelLength),
		GrossWeight: valueOrZero(r.GrossWeight),
		StoneWeight: valueOrZero(r.StoneWeight),
		LineFee:     valueOrZero(r.LineFee),
	}
}

type flatFeeRequest struct {
	Label  string           `json:"label" validate:"required,max=64"`
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type feesRequest struct {
	TestFee            *decimal.Decimal `json:"testFee"`
	RefiningFeePerGram *decimal.Decimal `json:"refiningFeePerGram"`
	FlatFees           []flatFeeRequest `json:"flatFees" validate:"max=20,dive"`
}

type setPricingRequest struct {
	Version             int64            `json:"version" validate:"required,gte=1"`
	LivePricePerGram24k *decimal.Decimal `json:"livePricePerGram24k" validate:"required"`
	BuyRate             *decimal.Decimal `json:"buyRate" validate:"required"`
	Fees                feesRequest      `json:"fees"`
	Rounding            string           `json:"rounding" validate:"omitempty,oneof=nearest floor ceiling"`
}

func (r setPricingRequest) toPricing() valuation.Pricing {
	flat := make([]valuation.FlatFee, 0, len(r.Fees.FlatFees))
	for _, fee := range r.Fees.FlatFees {
		flat = append(flat, valuation.FlatFee{
			Label:  validators.SanitizeString(fee.Label, maxLabelLength),
			Amount: valueOrZero(fee.Amount),
		})
	}
	return valuation.Pricing{
		LivePricePerGram24k: valueOrZero(r.LivePricePerGram24k),
		BuyRate:             valueOrZero(r.BuyRate),
		Fees: valuation.FeeSchedule{
			TestFee:         valueOrZero(r.Fees.TestFee),
			RefiningPerGram: valueOrZero(r.Fees.RefiningFeePerGram),
			FlatFees:        flat,
		},
		Rounding: enums.RoundingMode(r.Rounding),
	}
}

type paymentRequest struct {
	Method         string           `json:"method" validate:"required,oneof=cash check ach store_credit"`
	Amount         *decimal.Decimal `json:"amount" validate:"required"`
	Reference      string           `json:"reference" validate:"max=128"`
	OverrideReason string           `json:"overrideReason" validate:"max=1000"`
}

func (r paymentRequest) toInput() ledger.PaymentInput {
	return ledger.PaymentInput{
		Method:         enums.PaymentMethod(r.Method),
		Amount:         valueOrZero(r.Amount),
		Reference:      validators.SanitizeString(r.Reference, 128),
		OverrideReason: validators.SanitizeString(r.OverrideReason, maxReasonLength),
	}
}

type recordPaymentRequest struct {
	Version        int64            `json:"version" validate:"required,gte=1"`
	Method         string           `json:"method" validate:"required,oneof=cash check ach store_credit"`
	Amount         *decimal.Decimal `json:"amount" validate:"required"`
	Reference      string           `json:"reference" validate:"max=128"`
	OverrideReason string           `json:"overrideReason" validate:"max=1000"`
}

func (r recordPaymentRequest) toInput() ledger.PaymentInput {
	return paymentRequest{
		Method:         r.Method,
		Amount:         r.Amount,
		Reference:      r.Reference,
		OverrideReason: r.OverrideReason,
	}.toInput()
}

type dispositionRequest struct {
	Disposition      string   `json:"disposition" validate:"required,oneof=scrap resale"`
	RefiningLotID    string   `json:"refiningLotId" validate:"max=64"`
	InventoryItemIDs []string `json:"inventoryItemIds" validate:"max=200,dive,max=64"`
}

func (r dispositionRequest) toPayload() lifecycle.DispositionPayload {
	return lifecycle.DispositionPayload{
		Disposition:      enums.Disposition(r.Disposition),
		RefiningLotID:    r.RefiningLotID,
		InventoryItemIDs: r.InventoryItemIDs,
	}.Normalized()
}

type setDispositionRequest struct {
	Version          int64    `json:"version" validate:"required,gte=1"`
	Disposition      string   `json:"disposition" validate:"required,oneof=scrap resale"`
	RefiningLotID    string   `json:"refiningLotId" validate:"max=64"`
	InventoryItemIDs []string `json:"inventoryItemIds" validate:"max=200,dive,max=64"`
}

func (r setDispositionRequest) toPayload() lifecycle.DispositionPayload {
	return dispositionRequest{
		Disposition:      r.Disposition,
		RefiningLotID:    r.RefiningLotID,
		InventoryItemIDs: r.InventoryItemIDs,
	}.toPayload()
}

type signerRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Reference string `json:"reference" validate:"required,max=200"`
}

type signatureRequest struct {
	Customer signerRequest  `json:"customer"`
	Staff    *signerRequest `json:"staff"`
}

type transitionRequest struct {
	Version       int64               `json:"version" validate:"required,gte=1"`
	To            string              `json:"to" validate:"required,oneof=draft testing quoted accepted paid posted cancelled void"`
	Reason        string              `json:"reason" validate:"max=1000"`
	Signature     *signatureRequest   `json:"signature"`
	Payment       *paymentRequest     `json:"payment"`
	PartialReason string              `json:"partialReason" validate:"max=1000"`
	Disposition   *dispositionRequest `json:"disposition"`
}

// payload picks the transition evidence from the populated fields. At most
// one variant may be supplied; none leaves the lifecycle guards to decide.
func (r transitionRequest) payload() (lifecycle.Payload, error) {
	var out []lifecycle.Payload
	if r.Signature != nil {
		sig := lifecycle.SignaturePayload{Customer: r.Signature.Customer.toSignature()}
		if r.Signature.Staff != nil {
			staff := r.Signature.Staff.toSignature()
			sig.Staff = &staff
		}
		out = append(out, sig)
	}
	if r.Payment != nil || r.PartialReason != "" {
		p := lifecycle.PaymentPayload{PartialReason: validators.SanitizeString(r.PartialReason, maxReasonLength)}
		if r.Payment != nil {
			in := r.Payment.toInput()
			p.Payment = &in
		}
		out = append(out, p)
	}
	if r.Disposition != nil {
		out = append(out, r.Disposition.toPayload())
	}

	reason := validators.SanitizeString(r.Reason, maxReasonLength)
	switch {
	case len(out) > 1:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only one of signature, payment or disposition may be supplied")
	case len(out) == 1:
		if reason != "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason cannot be combined with signature, payment or disposition")
		}
		return out[0], nil
	case reason != "":
		return lifecycle.ReasonPayload{Reason: reason}, nil
	}
	return nil, nil
}

func (r signerRequest) toSignature() types.Signature {
	return types.Signature{
		Name:      validators.SanitizeString(r.Name, 200),
		Reference: validators.SanitizeString(r.Reference, 200),
	}
}

func valueOrZero(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}
