package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/goldbuy-backend/api/responses"
	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
	"github.com/angelmondragon/goldbuy-backend/pkg/logger"
)

const (
	actorHeader    = "X-Actor-Id"
	maxActorLength = 128
)

// RequireActor reads the clerk identity from X-Actor-Id. Authentication
// happens upstream; this layer only refuses anonymous commands.
func RequireActor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(actorHeader))
			if actor == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing "+actorHeader+" header"))
				return
			}
			if len(actor) > maxActorLength {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "%s exceeds %d characters", actorHeader, maxActorLength))
				return
			}

			ctx := WithActorID(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithActorID(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
