package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/shared/auth"
)

type seen struct {
	Service string `json:"service"`
	Path    string `json:"path"`
	Query   string `json:"query"`
	UserID  string `json:"userId"`
	Admin   string `json:"admin"`
}

func backend(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(seen{
			Service: name,
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			UserID:  r.Header.Get(auth.HeaderUserID),
			Admin:   r.Header.Get(auth.HeaderAdmin),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T) http.Handler {
	t.Helper()
	h, err := New(zap.NewNop(), Options{
		Upstreams: Upstreams{
			Market: backend(t, "market").URL,
			Wager:  backend(t, "wager").URL,
			Wallet: backend(t, "wallet").URL,
			Live:   backend(t, "live").URL,
		},
		AllowedOrigins: []string{"https://cricwin.io"},
		AdminUserIDs:   []string{"root"},
	})
	require.NoError(t, err)
	return h
}

func get(t *testing.T, h http.Handler, path string, headers map[string]string) seen {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var s seen
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func TestRoutesStripAPIPrefix(t *testing.T) {
	h := newGateway(t)

	cases := map[string]seen{
		"/api/markets?status=Live": {Service: "market", Path: "/markets", Query: "status=Live"},
		"/api/markets/m1":          {Service: "market", Path: "/markets/m1"},
		"/api/wagers/w1":           {Service: "wager", Path: "/wagers/w1"},
		"/api/wallet/me":           {Service: "wallet", Path: "/wallet/me"},
		"/api/live/ws":             {Service: "live", Path: "/live/ws"},
	}
	for path, want := range cases {
		got := get(t, h, path, nil)
		assert.Equal(t, want, got, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHeaderIsRecomputed(t *testing.T) {
	h := newGateway(t)

	got := get(t, h, "/api/wallet/me", map[string]string{auth.HeaderUserID: "u1", auth.HeaderAdmin: "true"})
	assert.Equal(t, "u1", got.UserID)
	assert.Empty(t, got.Admin, "client-supplied admin flag is dropped")

	got = get(t, h, "/api/wallet/funding", map[string]string{auth.HeaderUserID: "root"})
	assert.Equal(t, "true", got.Admin)
}

func TestCORSPreflight(t *testing.T) {
	h := newGateway(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/wagers", nil)
	req.Header.Set("Origin", "https://cricwin.io")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://cricwin.io", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/wagers", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight_RejectsIdentityHeaders(t *testing.T) {
	h := newGateway(t)

	for _, hdr := range []string{auth.HeaderUserID, auth.HeaderUserEmail, auth.HeaderAdmin} {
		req := httptest.NewRequest(http.MethodOptions, "/api/wallet/recharge", nil)
		req.Header.Set("Origin", "https://cricwin.io")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", hdr)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), hdr)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/wallet/recharge", nil)
	req.Header.Set("Origin", "https://cricwin.io")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://cricwin.io", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUpstreamDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	h, err := New(zap.NewNop(), Options{Upstreams: Upstreams{Market: down.URL, Wager: down.URL, Wallet: down.URL, Live: down.URL}, AllowedOrigins: []string{"*"}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
