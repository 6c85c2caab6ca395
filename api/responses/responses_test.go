package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/goldbuy-backend/pkg/errors"
	"github.com/angelmondragon/goldbuy-backend/pkg/logger"
	"github.com/angelmondragon/goldbuy-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsDomainCodes(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
		details bool
	}{
		{"validation", pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]string{"field": "grossWeight"}), http.StatusBadRequest, "bad input", true},
		{"invalid transition", pkgerrors.New(pkgerrors.CodeInvalidTransition, "cannot move from quoted to posted"), http.StatusConflict, "cannot move from quoted to posted", false},
		{"precondition", pkgerrors.New(pkgerrors.CodePreconditionNotMet, "customer signature"), http.StatusUnprocessableEntity, "customer signature", false},
		{"frozen", pkgerrors.New(pkgerrors.CodeFrozenField, "pricing"), http.StatusConflict, "pricing", false},
		{"concurrency", pkgerrors.New(pkgerrors.CodeConcurrencyConflict, "ticket version is stale").WithDetails(map[string]any{"expected": 1}), http.StatusConflict, "ticket version is stale", true},
		{"persistence", pkgerrors.Wrap(pkgerrors.CodePersistence, errors.New("dial tcp: refused"), "save ticket"), http.StatusServiceUnavailable, "storage unavailable", false},
		{"unauthorized", pkgerrors.New(pkgerrors.CodeUnauthorized, ""), http.StatusUnauthorized, "actor identity required", false},
		{"not found", pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found"), http.StatusNotFound, "ticket not found", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(context.Background(), logger.Nop(), w, tc.err)

			if got := w.Code; got != tc.status {
				t.Fatalf("expected status %d but got %d", tc.status, got)
			}

			var body types.ErrorEnvelope
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error envelope: %v", err)
			}
			if body.Error.Code != string(pkgerrors.As(tc.err).Code()) {
				t.Fatalf("unexpected code %s", body.Error.Code)
			}
			if body.Error.Message != tc.message {
				t.Fatalf("unexpected message %q", body.Error.Message)
			}
			if tc.details && body.Error.Details == nil {
				t.Fatalf("expected details in public payload")
			}
		})
	}
}

func TestWriteErrorSetsRetryAfterForRetryableCodes(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodeConcurrencyConflict, "stale"))
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	w = httptest.NewRecorder()
	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodeValidation, "bad"))
	if w.Header().Get("Retry-After") != "" {
		t.Fatalf("unexpected Retry-After header on validation error")
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), logger.Nop(), w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message == "boom" {
		t.Fatalf("internal error text leaked")
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}
