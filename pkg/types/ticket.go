package types

import (
	"strings"
	"time"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
)

// CustomerAddress is the postal address captured with the customer snapshot.
type CustomerAddress struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postalCode"`
	Country    string  `json:"country,omitempty"`
}

// Customer is a point-in-time copy of who sold the items.
type Customer struct {
	Name    string           `json:"name"`
	Phone   string           `json:"phone,omitempty"`
	Email   string           `json:"email,omitempty"`
	Address *CustomerAddress `json:"address,omitempty"`
}

// KYC holds the identity document shown at the counter.
type KYC struct {
	IDType           string     `json:"idType"`
	IDNumber         string     `json:"idNumber"`
	IssuingAuthority string     `json:"issuingAuthority,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
}

// Signature references a captured signature.
type Signature struct {
	Name      string    `json:"name"`
	Reference string    `json:"reference"`
	SignedAt  time.Time `json:"signedAt"`
}

// IsComplete reports whether both signer and capture reference are present.
func (s *Signature) IsComplete() bool {
	return s != nil && strings.TrimSpace(s.Name) != "" && strings.TrimSpace(s.Reference) != ""
}

type Signatures struct {
	Customer *Signature `json:"customer,omitempty"`
	Staff    *Signature `json:"staff,omitempty"`
}

// PostBuy records where the bought metal went.
type PostBuy struct {
	Disposition      enums.Disposition `json:"disposition"`
	RefiningLotID    string            `json:"refiningLotId,omitempty"`
	InventoryItemIDs []string          `json:"inventoryItemIds,omitempty"`
	SetAt            time.Time         `json:"setAt"`
	SetBy            string            `json:"setBy"`
}

// OverrideReason is an explicit staff override kept on the ticket.
type OverrideReason struct {
	Kind     enums.OverrideKind `json:"kind"`
	Reason   string             `json:"reason"`
	Actor    string             `json:"actor"`
	At       time.Time          `json:"at"`
	AuditSeq int                `json:"auditSeq"`
}
