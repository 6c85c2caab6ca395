package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
)

// TicketAuditEntry is an immutable audit row. Postgres rejects UPDATE and
// DELETE on this table.
type TicketAuditEntry struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	TicketID     uuid.UUID            `gorm:"column:ticket_id;type:uuid;not null;uniqueIndex:idx_ticket_audit_ticket_seq,priority:1"`
	Seq          int                  `gorm:"column:seq;not null;uniqueIndex:idx_ticket_audit_ticket_seq,priority:2"`
	Kind         enums.AuditEntryKind `gorm:"column:kind;type:text;not null"`
	FromStatus   enums.TicketStatus   `gorm:"column:from_status;type:text"`
	ToStatus     enums.TicketStatus   `gorm:"column:to_status;type:text"`
	OverrideKind enums.OverrideKind   `gorm:"column:override_kind;type:text"`
	Actor        string               `gorm:"column:actor;type:text;not null"`
	Reason       string               `gorm:"column:reason;type:text"`
	At           time.Time            `gorm:"column:at;not null"`
}

func (TicketAuditEntry) TableName() string { return "ticket_audit_entries" }

// AutoMigrateModels lists the models sqlite development databases are built from.
func AutoMigrateModels() []any {
	return []any{&Ticket{}, &TicketItem{}, &TicketPayment{}, &TicketAuditEntry{}}
}
