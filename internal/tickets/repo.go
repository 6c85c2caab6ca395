package tickets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/goldbuy-backend/internal/audit"
	"github.com/angelmondragon/goldbuy-backend/internal/ledger"
	"github.com/angelmondragon/goldbuy-backend/internal/repo"
	"github.com/angelmondragon/goldbuy-backend/internal/valuation"
	"github.com/angelmondragon/goldbuy-backend/pkg/db/models"
)

type repository struct {
	base repo.Base
}

// NewRepository builds a tickets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, ticket *Ticket) error {
	m, err := toModel(ticket)
	if err != nil {
		return err
	}
	if err := r.base.DB(ctx).Omit(clause.Associations).Create(&m).Error; err != nil {
		return err
	}
	if err := r.insertItems(ctx, ticket); err != nil {
		return err
	}
	if err := r.appendPayments(ctx, ticket); err != nil {
		return err
	}
	return r.appendAudit(ctx, ticket)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *repository) FindByNumber(ctx context.Context, ticketNumber string) (*Ticket, error) {
	return r.find(ctx, "ticket_number = ?", ticketNumber)
}

func (r *repository) find(ctx context.Context, query string, arg any) (*Ticket, error) {
	var m models.Ticket
	err := r.base.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Audit", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where(query, arg).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return fromModel(m)
}

func (r *repository) Save(ctx context.Context, ticket *Ticket, expectedVersion int64) (bool, error) {
	m, err := toModel(ticket)
	if err != nil {
		return false, err
	}
	res := r.base.DB(ctx).
		Model(&m).
		Select("*").
		Omit(clause.Associations, "id", "ticket_number", "created_by", "created_at").
		Where("version = ?", expectedVersion).
		Updates(&m)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if ticket.itemsChanged {
		if err := r.base.DB(ctx).Where("ticket_id = ?", ticket.ID).Delete(&models.TicketItem{}).Error; err != nil {
			return false, err
		}
		if err := r.insertItems(ctx, ticket); err != nil {
			return false, err
		}
	}
	if err := r.appendPayments(ctx, ticket); err != nil {
		return false, err
	}
	if err := r.appendAudit(ctx, ticket); err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) ListAudit(ctx context.Context, id uuid.UUID) ([]audit.Entry, error) {
	var rows []models.TicketAuditEntry
	if err := r.base.DB(ctx).Where("ticket_id = ?", id).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, auditFromModel(row))
	}
	return out, nil
}

func (r *repository) insertItems(ctx context.Context, ticket *Ticket) error {
	if len(ticket.Items) == 0 {
		return nil
	}
	rows := make([]models.TicketItem, 0, len(ticket.Items))
	for i, item := range ticket.Items {
		rows = append(rows, itemToModel(ticket.ID, i, item))
	}
	return r.base.DB(ctx).Create(&rows).Error
}

// appendPayments inserts only payments past the stored tail.
func (r *repository) appendPayments(ctx context.Context, ticket *Ticket) error {
	stored, err := r.base.MaxSeq(ctx, &models.TicketPayment{}, "ticket_id", ticket.ID)
	if err != nil {
		return err
	}
	if stored > len(ticket.Payments) {
		return fmt.Errorf("ticket %s has %d stored payments but only %d in memory", ticket.ID, stored, len(ticket.Payments))
	}
	if stored == len(ticket.Payments) {
		return nil
	}
	rows := make([]models.TicketPayment, 0, len(ticket.Payments)-stored)
	for i := stored; i < len(ticket.Payments); i++ {
		rows = append(rows, paymentToModel(ticket.ID, i+1, ticket.Payments[i]))
	}
	return r.base.DB(ctx).Create(&rows).Error
}

// appendAudit inserts only entries past the stored tail.
func (r *repository) appendAudit(ctx context.Context, ticket *Ticket) error {
	stored, err := r.base.MaxSeq(ctx, &models.TicketAuditEntry{}, "ticket_id", ticket.ID)
	if err != nil {
		return err
	}
	rows := []models.TicketAuditEntry{}
	for _, e := range ticket.Audit {
		if e.Seq > stored {
			rows = append(rows, auditToModel(ticket.ID, e))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return r.base.DB(ctx).Create(&rows).Error
}

func toModel(t *Ticket) (models.Ticket, error) {
	pricing, err := encodePricing(&t.Pricing)
	if err != nil {
		return models.Ticket{}, err
	}
	snapshot, err := encodePricing(t.Snapshot)
	if err != nil {
		return models.Ticket{}, err
	}
	m := models.Ticket{
		ID:              t.ID,
		TicketNumber:    t.TicketNumber,
		Status:          t.Status,
		Version:         t.Version,
		Customer:        t.Customer,
		KYC:             t.KYC,
		Pricing:         pricing,
		PricingSnapshot: snapshot,
		Signatures:      t.Signatures,
		PostBuy:         t.PostBuy,
		OverrideReasons: t.Overrides,
		Comment:         t.Comment,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if t.Snapshot != nil {
		payout := t.PayoutDue()
		m.QuotedPayout = &payout
	}
	return m, nil
}

func fromModel(m models.Ticket) (*Ticket, error) {
	t := &Ticket{
		ID:           m.ID,
		TicketNumber: m.TicketNumber,
		Status:       m.Status,
		Version:      m.Version,
		Customer:     m.Customer,
		KYC:          m.KYC,
		Signatures:   m.Signatures,
		PostBuy:      m.PostBuy,
		Overrides:    m.OverrideReasons,
		Comment:      m.Comment,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.Pricing != nil {
		if err := json.Unmarshal([]byte(*m.Pricing), &t.Pricing); err != nil {
			return nil, fmt.Errorf("decode pricing for ticket %s: %w", m.ID, err)
		}
	}
	if m.PricingSnapshot != nil {
		var snap valuation.Pricing
		if err := json.Unmarshal([]byte(*m.PricingSnapshot), &snap); err != nil {
			return nil, fmt.Errorf("decode pricing snapshot for ticket %s: %w", m.ID, err)
		}
		t.Snapshot = &snap
	}
	for _, row := range m.Items {
		t.Items = append(t.Items, itemFromModel(row))
	}
	for _, row := range m.Payments {
		t.Payments = append(t.Payments, paymentFromModel(row))
	}
	for _, row := range m.Audit {
		t.Audit = append(t.Audit, auditFromModel(row))
	}
	return t, nil
}

func encodePricing(p *valuation.Pricing) (*string, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode pricing: %w", err)
	}
	out := string(raw)
	return &out, nil
}

func itemToModel(ticketID uuid.UUID, position int, item Item) models.TicketItem {
	return models.TicketItem{
		ID:          item.ID,
		TicketID:    ticketID,
		Position:    position,
		ItemType:    item.Type,
		Description: item.Description,
		Metal:       item.Metal,
		Karat:       item.Karat,
		Purity:      item.Purity,
		TestMethod:  item.TestMethod,
		GrossWeight: item.GrossWeight,
		StoneWeight: item.StoneWeight,
		LineFee:     item.LineFee,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func itemFromModel(m models.TicketItem) Item {
	return Item{
		ID:          m.ID,
		Type:        m.ItemType,
		Description: m.Description,
		Metal:       m.Metal,
		Karat:       m.Karat,
		Purity:      m.Purity,
		TestMethod:  m.TestMethod,
		GrossWeight: m.GrossWeight,
		StoneWeight: m.StoneWeight,
		LineFee:     m.LineFee,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func paymentToModel(ticketID uuid.UUID, seq int, p ledger.Payment) models.TicketPayment {
	return models.TicketPayment{
		ID:             p.ID,
		TicketID:       ticketID,
		Seq:            seq,
		Method:         p.Method,
		Amount:         p.Amount,
		Reference:      p.Reference,
		OverrideReason: p.OverrideReason,
		RecordedBy:     p.RecordedBy,
		RecordedAt:     p.RecordedAt,
	}
}

func paymentFromModel(m models.TicketPayment) ledger.Payment {
	return ledger.Payment{
		ID:             m.ID,
		Method:         m.Method,
		Amount:         m.Amount,
		Reference:      m.Reference,
		OverrideReason: m.OverrideReason,
		RecordedBy:     m.RecordedBy,
		RecordedAt:     m.RecordedAt.UTC(),
	}
}

func auditToModel(ticketID uuid.UUID, e audit.Entry) models.TicketAuditEntry {
	return models.TicketAuditEntry{
		ID:           e.ID,
		TicketID:     ticketID,
		Seq:          e.Seq,
		Kind:         e.Kind,
		FromStatus:   e.From,
		ToStatus:     e.To,
		OverrideKind: e.Override,
		Actor:        e.Actor,
		Reason:       e.Reason,
		At:           e.At,
	}
}

func auditFromModel(m models.TicketAuditEntry) audit.Entry {
	return audit.Entry{
		ID:       m.ID,
		Seq:      m.Seq,
		Kind:     m.Kind,
		From:     m.FromStatus,
		To:       m.ToStatus,
		Override: m.OverrideKind,
		Actor:    m.Actor,
		Reason:   m.Reason,
		At:       m.At.UTC(),
	}
}
