package tickets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/goldbuy-backend/internal/audit"
)

// Repository persists ticket aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	FindByNumber(ctx context.Context, ticketNumber string) (*Ticket, error)
	// Save writes ticket if the stored version still equals expectedVersion.
	// It reports false, without error, when the version has moved on.
	Save(ctx context.Context, ticket *Ticket, expectedVersion int64) (bool, error)
	ListAudit(ctx context.Context, id uuid.UUID) ([]audit.Entry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
