package tickets

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/goldbuy-backend/api/responses"
	internaltickets "github.com/angelmondragon/goldbuy-backend/internal/tickets"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
	"github.com/angelmondragon/goldbuy-backend/pkg/logger"
)

// parseTicketID reads {ticketId} and tags the request context with it.
func parseTicketID(r *http.Request, logg *logger.Logger) (uuid.UUID, context.Context, error) {
	ctx := r.Context()
	raw := chi.URLParam(r, "ticketId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ctx, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket id")
	}
	if logg != nil {
		ctx = logg.WithTicketID(ctx, id.String())
	}
	return id, ctx, nil
}

func view(svc internaltickets.Service, ticket *internaltickets.Ticket) internaltickets.View {
	return internaltickets.NewView(ticket, svc.ComputeTotals(ticket), svc.AllowedTransitions(ticket))
}

// writeCommandResult renders a mutating command. Rejected commands only
// report the error; the returned ticket is the unchanged stored state.
func writeCommandResult(ctx context.Context, svc internaltickets.Service, logg *logger.Logger, w http.ResponseWriter, status int, ticket *internaltickets.Ticket, err error) {
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, view(svc, ticket))
}
