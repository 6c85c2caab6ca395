package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
)

// TicketPayment is an append-only payout record.
type TicketPayment struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	TicketID       uuid.UUID           `gorm:"column:ticket_id;type:uuid;not null;uniqueIndex:idx_ticket_payments_ticket_seq,priority:1"`
	Seq            int                 `gorm:"column:seq;not null;uniqueIndex:idx_ticket_payments_ticket_seq,priority:2"`
	Method         enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	Amount         decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Reference      string              `gorm:"column:reference;type:text"`
	OverrideReason string              `gorm:"column:override_reason;type:text"`
	RecordedBy     string              `gorm:"column:recorded_by;type:text;not null"`
	RecordedAt     time.Time           `gorm:"column:recorded_at;not null"`
}

func (TicketPayment) TableName() string { return "ticket_payments" }
