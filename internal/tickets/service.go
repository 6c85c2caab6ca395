package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/goldbuy-backend/internal/audit"
	"github.com/angelmondragon/goldbuy-backend/internal/ledger"
	"github.com/angelmondragon/goldbuy-backend/internal/lifecycle"
	"github.com/angelmondragon/goldbuy-backend/internal/valuation"
	"github.com/angelmondragon/goldbuy-backend/pkg/db"
	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
	"github.com/angelmondragon/goldbuy-backend/pkg/logger"
	"github.com/angelmondragon/goldbuy-backend/pkg/metrics"
)

const (
	WarningPricingIncomplete = "pricing_incomplete"

	ticketNumberConstraint = "tickets_ticket_number_key"
	ticketNumberColumn     = "tickets.ticket_number"
)

// Service runs ticket commands against stored aggregates. Every mutating call
// presents the version it read; a stale version fails with
// CONCURRENCY_CONFLICT. On rejection the pre-mutation ticket is returned with
// the error whenever it could be loaded.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Ticket, error)
	Get(ctx context.Context, id uuid.UUID) (*Ticket, error)
	GetByNumber(ctx context.Context, ticketNumber string) (*Ticket, error)
	UpsertItem(ctx context.Context, id uuid.UUID, version int64, actor string, input ItemInput) (*Ticket, error)
	RemoveItem(ctx context.Context, id uuid.UUID, version int64, actor string, itemID uuid.UUID) (*Ticket, error)
	SetPricing(ctx context.Context, id uuid.UUID, version int64, actor string, pricing valuation.Pricing) (*Ticket, error)
	ComputeTotals(ticket *Ticket) Summary
	Transition(ctx context.Context, input TransitionInput) (*Ticket, error)
	RecordPayment(ctx context.Context, id uuid.UUID, version int64, actor string, input ledger.PaymentInput) (*Ticket, error)
	SetDisposition(ctx context.Context, id uuid.UUID, version int64, actor string, disposition lifecycle.DispositionPayload) (*Ticket, error)
	AuditTrail(ctx context.Context, id uuid.UUID) ([]audit.Entry, error)
	AllowedTransitions(ticket *Ticket) []enums.TicketStatus
}

// TransitionInput requests a status change.
type TransitionInput struct {
	TicketID uuid.UUID
	Version  int64
	Actor    string
	To       enums.TicketStatus
	Payload  lifecycle.Payload
}

// Summary is the computed view of a ticket. Totals is nil while the ticket
// cannot be valued.
type Summary struct {
	Totals    *valuation.Totals
	Warnings  []valuation.Warning
	Paid      decimal.Decimal
	Remaining decimal.Decimal
}

// Options tunes the service. Zero values fall back to defaults.
type Options struct {
	OverpayTolerance decimal.Decimal
	DefaultRounding  enums.RoundingMode
	Machine          *lifecycle.Machine
	Metrics          *metrics.TicketMetrics
	Logger           *logger.Logger
	Clock            func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	machine   *lifecycle.Machine
	tolerance decimal.Decimal
	rounding  enums.RoundingMode
	metrics   *metrics.TicketMetrics
	logg      *logger.Logger
	clock     func() time.Time
}

// NewService builds the ticket command service.
func NewService(repo Repository, tx txRunner, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tickets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if opts.OverpayTolerance.IsNegative() {
		return nil, fmt.Errorf("overpay tolerance must not be negative")
	}
	if opts.DefaultRounding != "" && !opts.DefaultRounding.IsValid() {
		return nil, fmt.Errorf("invalid default rounding %q", opts.DefaultRounding)
	}
	s := &service{
		repo:      repo,
		tx:        tx,
		machine:   opts.Machine,
		tolerance: opts.OverpayTolerance,
		rounding:  opts.DefaultRounding,
		metrics:   opts.Metrics,
		logg:      opts.Logger,
		clock:     opts.Clock,
	}
	if s.machine == nil {
		s.machine = lifecycle.Default()
	}
	if s.rounding == "" {
		s.rounding = enums.RoundingNearest
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Ticket, error) {
	const op = "create"
	start := time.Now()
	defer s.observe(op, start)

	if err := requireActor(input.Actor); err != nil {
		s.reject(ctx, op, err)
		return nil, err
	}
	ticket, err := NewTicket(input, s.clock())
	if err != nil {
		s.reject(ctx, op, err)
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"ticket_id": ticket.ID.String(), "ticket_number": ticket.TicketNumber})

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, ticket)
	})
	if err != nil {
		if db.IsUniqueViolation(err, ticketNumberConstraint) || db.IsUniqueViolation(err, ticketNumberColumn) {
			err = pkgerrors.Wrap(pkgerrors.CodeConflict, err, "ticket number already exists")
		} else {
			err = pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create ticket")
		}
		s.reject(ctx, op, err)
		return nil, err
	}
	s.logg.Info(ctx, "ticket created")
	return ticket, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "ticket not found")
	}
	return ticket, nil
}

func (s *service) GetByNumber(ctx context.Context, ticketNumber string) (*Ticket, error) {
	number := strings.TrimSpace(ticketNumber)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket number required")
	}
	ticket, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, loadError(err, "ticket not found")
	}
	return ticket, nil
}

func (s *service) UpsertItem(ctx context.Context, id uuid.UUID, version int64, actor string, input ItemInput) (*Ticket, error) {
	return s.mutate(ctx, "upsert_item", id, version, actor, func(current *Ticket, now time.Time) (*Ticket, error) {
		next, _, err := current.UpsertItem(input, now)
		return next, err
	})
}

func (s *service) RemoveItem(ctx context.Context, id uuid.UUID, version int64, actor string, itemID uuid.UUID) (*Ticket, error) {
	return s.mutate(ctx, "remove_item", id, version, actor, func(current *Ticket, now time.Time) (*Ticket, error) {
		return current.RemoveItem(itemID, now)
	})
}

func (s *service) SetPricing(ctx context.Context, id uuid.UUID, version int64, actor string, pricing valuation.Pricing) (*Ticket, error) {
	if pricing.Rounding == "" {
		pricing.Rounding = s.rounding
	}
	return s.mutate(ctx, "set_pricing", id, version, actor, func(current *Ticket, now time.Time) (*Ticket, error) {
		return current.SetPricing(pricing, now)
	})
}

func (s *service) ComputeTotals(ticket *Ticket) Summary {
	return ComputeTotals(ticket)
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*Ticket, error) {
	var from enums.TicketStatus
	next, err := s.mutate(ctx, "transition", input.TicketID, input.Version, input.Actor, func(current *Ticket, now time.Time) (*Ticket, error) {
		from = current.Status
		return current.Transition(s.machine, input.To, input.Payload, input.Actor, s.tolerance, now)
	})
	if err != nil {
		return next, err
	}

	s.metrics.IncTransition(string(from), string(next.Status))
	if next.Status == enums.TicketStatusQuoted {
		s.metrics.ObservePayout(next.PayoutDue())
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"ticket_id": next.ID.String(),
		"from":      from,
		"to":        next.Status,
		"version":   next.Version,
	})
	s.logg.Info(ctx, "ticket transitioned")
	return next, nil
}

func (s *service) RecordPayment(ctx context.Context, id uuid.UUID, version int64, actor string, input ledger.PaymentInput) (*Ticket, error) {
	return s.mutate(ctx, "record_payment", id, version, actor, func(current *Ticket, now time.Time) (*Ticket, error) {
		next, _, err := current.RecordPayment(input, actor, s.tolerance, now)
		return next, err
	})
}

func (s *service) SetDisposition(ctx context.Context, id uuid.UUID, version int64, actor string, disposition lifecycle.DispositionPayload) (*Ticket, error) {
	return s.mutate(ctx, "set_disposition", id, version, actor, func(current *Ticket, now time.Time) (*Ticket, error) {
		return current.SetDisposition(disposition, actor, now)
	})
}

func (s *service) AuditTrail(ctx context.Context, id uuid.UUID) ([]audit.Entry, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, loadError(err, "ticket not found")
	}
	entries, err := s.repo.ListAudit(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list audit trail")
	}
	return entries, nil
}

func (s *service) AllowedTransitions(ticket *Ticket) []enums.TicketStatus {
	if ticket == nil {
		return nil
	}
	return s.machine.Allowed(ticket.Status)
}

type command func(current *Ticket, now time.Time) (*Ticket, error)

// mutate loads the ticket, checks the presented version, applies cmd to a copy
// and saves it with the next version, all inside one transaction.
func (s *service) mutate(ctx context.Context, op string, id uuid.UUID, version int64, actor string, cmd command) (*Ticket, error) {
	start := time.Now()
	defer s.observe(op, start)

	ctx = s.logg.WithFields(ctx, map[string]any{"ticket_id": id.String(), "operation": op})
	if err := requireActor(actor); err != nil {
		s.reject(ctx, op, err)
		return nil, err
	}

	var current, next *Ticket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByID(ctx, id)
		if err != nil {
			return loadError(err, "ticket not found")
		}
		current = loaded
		if loaded.Version != version {
			return staleVersion(version, loaded.Version)
		}

		candidate, err := cmd(loaded.Clone(), s.clock())
		if err != nil {
			return err
		}
		candidate.Version = loaded.Version + 1

		saved, err := repo.Save(ctx, candidate, version)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "save ticket")
		}
		if !saved {
			return staleVersion(version, 0)
		}
		next = candidate
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodePersistence, err, "commit ticket")
		}
		s.reject(ctx, op, err)
		return current, err
	}

	next.itemsChanged = false
	s.logg.Info(s.logg.WithField(ctx, "version", next.Version), "ticket updated")
	return next, nil
}

func (s *service) reject(ctx context.Context, op string, err error) {
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	s.metrics.IncRejected(op, string(code))
	ctx = s.logg.WithFields(ctx, map[string]any{"operation": op, "code": code, "error": err.Error()})
	if code == pkgerrors.CodePersistence || code == pkgerrors.CodeInternal {
		s.logg.Error(ctx, "ticket command failed", err)
		return
	}
	s.logg.Warn(ctx, "ticket command rejected")
}

func (s *service) observe(op string, start time.Time) {
	s.metrics.ObserveDuration(op, time.Since(start).Seconds())
}

// ComputeTotals values a ticket and reports its payment balance. It never
// fails: a ticket that cannot be valued yet carries a pricing_incomplete
// warning instead of totals.
func ComputeTotals(ticket *Ticket) Summary {
	out := Summary{Paid: decimal.Zero, Remaining: decimal.Zero, Warnings: []valuation.Warning{}}
	if ticket == nil {
		return out
	}

	for _, item := range ticket.Items {
		if valuation.ResolvePurity(item.Measurements()).IsZero() {
			out.Warnings = append(out.Warnings, valuation.Warning{
				Code:    valuation.WarningZeroPurity,
				ItemID:  item.ID.String(),
				Message: "item resolves to zero purity",
			})
		}
	}

	totals, err := ticket.Totals()
	if err != nil {
		message := "pricing is incomplete"
		if typed := pkgerrors.As(err); typed != nil {
			message = typed.Message()
		}
		out.Warnings = append(out.Warnings, valuation.Warning{Code: WarningPricingIncomplete, Message: message})
	} else {
		out.Totals = &totals
	}

	l := ledger.New(out.payoutDue(), decimal.Zero, ticket.Payments)
	out.Paid = l.Total()
	out.Remaining = l.Remaining()
	return out
}

func (s Summary) payoutDue() decimal.Decimal {
	if s.Totals == nil {
		return decimal.Zero
	}
	return s.Totals.PayoutDue()
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity required")
	}
	return nil
}

func staleVersion(expected, current int64) error {
	details := map[string]any{"expected": expected}
	if current > 0 {
		details["current"] = current
	}
	return pkgerrors.New(pkgerrors.CodeConcurrencyConflict, "ticket version is stale").WithDetails(details)
}

func loadError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load ticket")
}
