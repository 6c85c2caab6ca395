package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// WithTx rebinds the base to a transaction handle.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// MaxSeq returns the highest seq stored for parentID in an append-only child
// table, or 0 when there are no rows.
func (b Base) MaxSeq(ctx context.Context, model any, parentColumn string, parentID uuid.UUID) (int, error) {
	var seq int
	err := b.DB(ctx).
		Model(model).
		Select("COALESCE(MAX(seq), 0)").
		Where(fmt.Sprintf("%s = ?", parentColumn), parentID).
		Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}
