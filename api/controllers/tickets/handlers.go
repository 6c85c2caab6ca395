package tickets

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/goldbuy-backend/api/middleware"
	"github.com/angelmondragon/goldbuy-backend/api/responses"
	"github.com/angelmondragon/goldbuy-backend/api/validators"
	"github.com/angelmondragon/goldbuy-backend/internal/audit"
	internaltickets "github.com/angelmondragon/goldbuy-backend/internal/tickets"
	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
	"github.com/angelmondragon/goldbuy-backend/pkg/logger"
	"github.com/angelmondragon/goldbuy-backend/pkg/pagination"
)

// Create opens a draft ticket.
func Create(svc internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTicketRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := svc.Create(r.Context(), req.toInput(middleware.ActorIDFromContext(r.Context())))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view(svc, ticket))
	}
}

// Get returns the full ticket view.
func Get(svc internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ctx, err := parseTicketID(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ticket, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view(svc, ticket))
	}
}

// GetByNumber looks a ticket up by its externally assigned number.
func GetByNumber(svc internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := strings.TrimSpace(chi.URLParam(r, "ticketNumber"))
		if number == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "ticket number is required"))
			return
		}
		ticket, err := svc.GetByNumber(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view(svc, ticket))
	}
}

// Totals returns the recomputed totals, balance and warnings.
func Totals(svc internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ctx, err := parseTicketID(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ticket, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, internaltickets.NewTotalsView(svc.ComputeTotals(ticket)))
	}
}

// Audit pages the audit trail in sequence order. kind=override narrows the
// page to override entries for compliance review.
func Audit(svc internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ctx, err := parseTicketID(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		cursor, err := pagination.ParseCursor(r.URL.Query().Get("cursor"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}
		if cursor != nil && cursor.TicketID != id {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cursor belongs to another ticket"))
			return
		}
		kind := strings.TrimSpace(r.URL.Query().Get("kind"))
		if kind != "" && kind != string(enums.AuditEntryOverride) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid kind").
				WithDetails(map[string]string{"kind": "must be override"}))
			return
		}

		entries, err := svc.AuditTrail(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if kind != "" {
			entries = audit.NewTrail(entries).Overrides()
		}
		responses.WriteSuccess(w, pagination.SliceAfter(id, entries, func(e audit.Entry) int { return e.Seq }, cursor, limit))
	}
}

// UpsertItem adds an item, or replaces it when the body carries its id.
func UpsertItem(svc internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ctx, err := parseTicketID(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req upsertItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ticket, err := svc.UpsertItem(ctx, id, req.Version, middleware.ActorIDFromContext(ctx), req.toInput())
		writeCommandResult(ctx, svc, logg, w, http.StatusOK, ticket, err)
	}
}

func RemoveItem(svc internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ctx, err := parseTicketID(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}
		version, err := validators.ParseQueryInt64(r, "version")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ticket, err := svc.RemoveItem(ctx, id, version, middleware.ActorIDFromContext(ctx), itemID)
		writeCommandResult(ctx, svc, logg, w, http.StatusOK, ticket, err)
	}
}

// SetPricing replaces the working pricing of a draft or testing ticket.
func SetPricing(svc internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ctx, err := parseTicketID(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req setPricingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ticket, err := svc.SetPricing(ctx, id, req.Version, middleware.ActorIDFromContext(ctx), req.toPricing())
		writeCommandResult(ctx, svc, logg, w, http.StatusOK, ticket, err)
	}
}

// Transition moves the ticket to the requested status.
func Transition(svc internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ctx, err := parseTicketID(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payload, err := req.payload()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ticket, err := svc.Transition(ctx, internaltickets.TransitionInput{
			TicketID: id,
			Version:  req.Version,
			Actor:    middleware.ActorIDFromContext(ctx),
			To:       enums.TicketStatus(req.To),
			Payload:  payload,
		})
		writeCommandResult(ctx, svc, logg, w, http.StatusOK, ticket, err)
	}
}

// RecordPayment appends a payment to an accepted or paid ticket.
func RecordPayment(svc internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ctx, err := parseTicketID(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ticket, err := svc.RecordPayment(ctx, id, req.Version, middleware.ActorIDFromContext(ctx), req.toInput())
		writeCommandResult(ctx, svc, logg, w, http.StatusCreated, ticket, err)
	}
}

func SetDisposition(svc internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ctx, err := parseTicketID(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req setDispositionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ticket, err := svc.SetDisposition(ctx, id, req.Version, middleware.ActorIDFromContext(ctx), req.toPayload())
		writeCommandResult(ctx, svc, logg, w, http.StatusOK, ticket, err)
	}
}
