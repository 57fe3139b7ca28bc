package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/ledger"
	"github.com/radieske/cricwin-ledger/internal/ledger/memstore"
	"github.com/radieske/cricwin-ledger/internal/shared/auth"
	"github.com/radieske/cricwin-ledger/internal/shared/config"
	"github.com/radieske/cricwin-ledger/internal/wager-service/dto"
	"github.com/radieske/cricwin-ledger/internal/wager-service/service"
	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
)

func newTestServer(t *testing.T, balance int64) http.Handler {
	t.Helper()
	store := memstore.New()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, store.InTx(ctx, func(tx ledger.Tx) error {
		if err := tx.CreateMarket(ctx, &ledger.Market{
			ID: "m1", TeamA: "India", TeamB: "Australia",
			OddsA: decimal.RequireFromString("1.70"), OddsB: decimal.RequireFromString("2.15"),
			StartTime: now, Status: ledger.MarketLive,
		}); err != nil {
			return err
		}
		return tx.CreateWallet(ctx, &ledger.Wallet{UserID: "u1", Balance: decimal.NewFromInt(balance)})
	}))
	svc := service.New(store, &events.Recorder{}, nil, zap.NewNop(), config.DefaultPolicy())
	return NewServer(zap.NewNop(), svc).Router()
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var user = map[string]string{auth.HeaderUserID: "u1", auth.HeaderUserEmail: "u1@cricwin.io"}

func TestPlaceWager_StatusCodes(t *testing.T) {
	cases := []struct {
		name    string
		balance int64
		body    string
		headers map[string]string
		want    int
	}{
		{"accepted", 1000, `{"marketId":"m1","selectedTeam":"India","amount":500}`, user, http.StatusCreated},
		{"string amount", 1000, `{"marketId":"m1","selectedTeam":"India","amount":"250.50"}`, user, http.StatusCreated},
		{"insufficient", 100, `{"marketId":"m1","selectedTeam":"India","amount":500}`, user, http.StatusConflict},
		{"below min", 1000, `{"marketId":"m1","selectedTeam":"India","amount":50}`, user, http.StatusBadRequest},
		{"bad side", 1000, `{"marketId":"m1","selectedTeam":"Nepal","amount":500}`, user, http.StatusBadRequest},
		{"missing market", 1000, `{"marketId":"zz","selectedTeam":"India","amount":500}`, user, http.StatusNotFound},
		{"missing field", 1000, `{"selectedTeam":"India","amount":500}`, user, http.StatusBadRequest},
		{"anonymous", 1000, `{"marketId":"m1","selectedTeam":"India","amount":500}`, nil, http.StatusUnauthorized},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := do(newTestServer(t, c.balance), http.MethodPost, "/wagers", c.body, c.headers)
			assert.Equal(t, c.want, rec.Code, rec.Body.String())
		})
	}
}

func TestPlaceThenRead(t *testing.T) {
	h := newTestServer(t, 1000)

	rec := do(h, http.MethodPost, "/wagers", `{"marketId":"m1","selectedTeam":"India","amount":500}`, user)
	require.Equal(t, http.StatusCreated, rec.Code)

	var placed dto.PlaceWagerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.True(t, decimal.NewFromInt(500).Equal(placed.NewBalance))
	assert.Equal(t, "u1@cricwin.io", placed.Wager.UserEmail)

	rec = do(h, http.MethodGet, "/wagers/"+placed.Wager.ID, "", user)
	assert.Equal(t, http.StatusOK, rec.Code)

	// outro usuário não enxerga a aposta
	rec = do(h, http.MethodGet, "/wagers/"+placed.Wager.ID, "", map[string]string{auth.HeaderUserID: "u2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodGet, "/wagers?status=pending", "", user)
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.WagerListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Wagers, 1)

	rec = do(h, http.MethodGet, "/wagers/by-market/m1", "", user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, http.MethodGet, "/wagers/by-market/m1", "", map[string]string{auth.HeaderUserID: "admin", auth.HeaderAdmin: "true"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
