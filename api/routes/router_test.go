package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/goldbuy-backend/internal/tickets"
	"github.com/angelmondragon/goldbuy-backend/pkg/config"
	"github.com/angelmondragon/goldbuy-backend/pkg/db"
	"github.com/angelmondragon/goldbuy-backend/pkg/db/models"
	"github.com/angelmondragon/goldbuy-backend/pkg/logger"
	"github.com/angelmondragon/goldbuy-backend/pkg/metrics"
	"github.com/shopspring/decimal"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Env: "test", Port: "0", CORSAllowedOrigins: []string{"http://localhost:3000"}},
		Ledger: config.LedgerConfig{OverpayTolerance: decimal.RequireFromString("1.00")},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(models.AutoMigrateModels()...))

	cfg := testConfig()
	reg := prometheus.NewRegistry()
	client := db.Wrap(conn)
	svc, err := tickets.NewService(tickets.NewRepository(conn), client, tickets.Options{
		OverpayTolerance: cfg.Ledger.OverpayTolerance,
		Metrics:          metrics.NewTicketMetrics(reg),
		Logger:           logger.Nop(),
		Clock:            func() time.Time { return time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	return NewRouter(cfg, logger.Nop(), client, nil, svc, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

type ticketView struct {
	ID                 string   `json:"id"`
	Status             string   `json:"status"`
	Version            int64    `json:"version"`
	AllowedTransitions []string `json:"allowedTransitions"`
	Items              []struct {
		ID string `json:"id"`
	} `json:"items"`
	Totals *struct {
		FineGoldGrams string `json:"fineGoldGrams"`
		Gross         string `json:"gross"`
		Fees          string `json:"fees"`
		Payout        string `json:"payout"`
	} `json:"totals"`
	Balance struct {
		Paid      string `json:"paid"`
		Remaining string `json:"remaining"`
	} `json:"balance"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", "clerk-1")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return resp.Code, env
}

func ticketFrom(t *testing.T, env envelope) ticketView {
	t.Helper()
	var view ticketView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	return view
}

func TestHealthRoutes(t *testing.T) {
	h := newTestRouter(t)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestReadyReportsFailingDatabase(t *testing.T) {
	h := NewRouter(testConfig(), logger.Nop(), stubPinger{err: errors.New("down")}, nil, nil, nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestTicketRoutesRequireActor(t *testing.T) {
	h := newTestRouter(t)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/tickets/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	h := newTestRouter(t)

	status, env := call(t, h, http.MethodPost, "/api/v1/tickets", `{"ticketNumber":"GB-3001","customerInformation":{"name":"Ada Lovelace"}}`)
	require.Equal(t, http.StatusCreated, status, env.Error.Message)
	ticket := ticketFrom(t, env)
	base := "/api/v1/tickets/" + ticket.ID

	status, env = call(t, h, http.MethodPost, "/api/v1/tickets", `{"ticketNumber":"GB-3001","customerInformation":{"name":"Someone Else"}}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, env = call(t, h, http.MethodPut, base+"/items", `{"version":1,"type":"ring","metal":"gold","karat":22,"testMethod":"acid","grossWeight":"10","stoneWeight":"1"}`)
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	ticket = ticketFrom(t, env)
	require.Len(t, ticket.Items, 1)

	// Replaying the stale version is rejected.
	status, env = call(t, h, http.MethodPut, base+"/items", `{"version":1,"metal":"silver","grossWeight":"5"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONCURRENCY_CONFLICT", env.Error.Code)

	status, env = call(t, h, http.MethodPut, base+"/pricing", fmt.Sprintf(`{"version":%d,"livePricePerGram24k":"75","buyRate":"0.90","fees":{"testFee":"10","refiningFeePerGram":"0.50"}}`, ticket.Version))
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	ticket = ticketFrom(t, env)

	for _, to := range []string{"testing", "quoted"} {
		status, env = call(t, h, http.MethodPost, base+"/transitions", fmt.Sprintf(`{"version":%d,"to":"%s"}`, ticket.Version, to))
		require.Equal(t, http.StatusOK, status, env.Error.Message)
		ticket = ticketFrom(t, env)
	}
	require.NotNil(t, ticket.Totals)
	assert.Equal(t, "556.88", ticket.Totals.Gross)
	assert.Equal(t, "14.13", ticket.Totals.Fees)
	assert.Equal(t, "542.75", ticket.Totals.Payout)

	status, env = call(t, h, http.MethodPost, base+"/transitions", fmt.Sprintf(`{"version":%d,"to":"accepted"}`, ticket.Version))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "customer signature", env.Error.Message)

	status, env = call(t, h, http.MethodPost, base+"/transitions", fmt.Sprintf(`{"version":%d,"to":"accepted","signature":{"customer":{"name":"Ada Lovelace","reference":"sig-001"}}}`, ticket.Version))
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	ticket = ticketFrom(t, env)

	status, env = call(t, h, http.MethodPost, base+"/payments", fmt.Sprintf(`{"version":%d,"method":"cash","amount":"542.75"}`, ticket.Version))
	require.Equal(t, http.StatusCreated, status, env.Error.Message)
	ticket = ticketFrom(t, env)
	assert.Equal(t, "0", ticket.Balance.Remaining)

	status, env = call(t, h, http.MethodPost, base+"/transitions", fmt.Sprintf(`{"version":%d,"to":"paid","payment":{"method":"cash","amount":"0"}}`, ticket.Version))
	assert.Equal(t, http.StatusBadRequest, status, env.Error.Message)

	status, env = call(t, h, http.MethodPost, base+"/transitions", fmt.Sprintf(`{"version":%d,"to":"paid"}`, ticket.Version))
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	ticket = ticketFrom(t, env)

	status, env = call(t, h, http.MethodPut, base+"/disposition", fmt.Sprintf(`{"version":%d,"disposition":"scrap","refiningLotId":"LOT-7"}`, ticket.Version))
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	ticket = ticketFrom(t, env)

	status, env = call(t, h, http.MethodPost, base+"/transitions", fmt.Sprintf(`{"version":%d,"to":"posted"}`, ticket.Version))
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	ticket = ticketFrom(t, env)
	assert.Equal(t, "posted", ticket.Status)
	assert.Empty(t, ticket.AllowedTransitions)

	status, env = call(t, h, http.MethodGet, base+"/audit", "")
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Items []struct {
			Seq  int    `json:"seq"`
			Kind string `json:"kind"`
			To   string `json:"to"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	entries := page.Items
	require.Len(t, entries, 6)
	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Seq)
	}
	assert.Equal(t, "posted", entries[5].To)

	status, env = call(t, h, http.MethodGet, "/api/v1/tickets/by-number/GB-3001", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ticket.ID, ticketFrom(t, env).ID)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "ticket_transitions_total")
}
