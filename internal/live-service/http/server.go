package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/radieske/cricwin-ledger/internal/live-service/ws"
	"github.com/radieske/cricwin-ledger/internal/shared/auth"
)

// Router expõe o endpoint WebSocket do live-service
func Router(hub *ws.Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware)
	r.Get("/live/ws", hub.HandleWS)
	return r
}

// OriginChecker aceita as origens configuradas; "*" libera todas.
// Sem header Origin (clientes não-browser) a conexão é aceita.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[u.Scheme+"://"+u.Host]
		return ok
	}
}
