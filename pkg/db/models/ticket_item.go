package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
)

// TicketItem is one item brought in on a ticket, in intake order.
type TicketItem struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	TicketID    uuid.UUID        `gorm:"column:ticket_id;type:uuid;not null;index:idx_ticket_items_ticket_position,priority:1"`
	Position    int              `gorm:"column:position;not null;index:idx_ticket_items_ticket_position,priority:2"`
	ItemType    string           `gorm:"column:item_type;type:text"`
	Description string           `gorm:"column:description;type:text"`
	Metal       enums.Metal      `gorm:"column:metal;type:text;not null"`
	Karat       int              `gorm:"column:karat;not null"`
	Purity      *decimal.Decimal `gorm:"column:purity;type:numeric"`
	TestMethod  string           `gorm:"column:test_method;type:text"`
	GrossWeight decimal.Decimal  `gorm:"column:gross_weight;type:numeric;not null"`
	StoneWeight decimal.Decimal  `gorm:"column:stone_weight;type:numeric;not null"`
	LineFee     decimal.Decimal  `gorm:"column:line_fee;type:numeric(12,2);not null"`
	CreatedAt   time.Time        `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (TicketItem) TableName() string { return "ticket_items" }
