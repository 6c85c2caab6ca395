package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	"github.com/angelmondragon/goldbuy-backend/pkg/types"
)

// Ticket is the header row of a gold buy ticket. Version guards every update.
type Ticket struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	TicketNumber    string                 `gorm:"column:ticket_number;not null;uniqueIndex:tickets_ticket_number_key"`
	Status          enums.TicketStatus     `gorm:"column:status;type:text;not null"`
	Version         int64                  `gorm:"column:version;not null"`
	Customer        types.Customer         `gorm:"column:customer;type:jsonb;serializer:json;not null"`
	KYC             *types.KYC             `gorm:"column:kyc;type:jsonb;serializer:json"`
	Pricing         *string                `gorm:"column:pricing;type:jsonb"`
	PricingSnapshot *string                `gorm:"column:pricing_snapshot;type:jsonb"`
	QuotedPayout    *decimal.Decimal       `gorm:"column:quoted_payout;type:numeric(12,2)"`
	Signatures      types.Signatures       `gorm:"column:signatures;type:jsonb;serializer:json"`
	PostBuy         *types.PostBuy         `gorm:"column:post_buy;type:jsonb;serializer:json"`
	OverrideReasons []types.OverrideReason `gorm:"column:override_reasons;type:jsonb;serializer:json"`
	Comment         string                 `gorm:"column:comment;type:text"`
	CreatedBy       string                 `gorm:"column:created_by;type:text;not null"`
	CreatedAt       time.Time              `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;not null;autoUpdateTime:false"`

	Items    []TicketItem       `gorm:"foreignKey:TicketID"`
	Payments []TicketPayment    `gorm:"foreignKey:TicketID"`
	Audit    []TicketAuditEntry `gorm:"foreignKey:TicketID"`
}

func (Ticket) TableName() string { return "tickets" }
