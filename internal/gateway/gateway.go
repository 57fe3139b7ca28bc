// Package gateway é o ponto de entrada público: CORS, identidade e proxy reverso para os serviços.
package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/shared/auth"
	"github.com/radieske/cricwin-ledger/internal/shared/logger"
)

// Upstreams são as URLs base de cada serviço
type Upstreams struct {
	Market string
	Wager  string
	Wallet string
	Live   string
}

type Options struct {
	Upstreams      Upstreams
	AllowedOrigins []string
	AdminUserIDs   []string
}

func proxy(log *zap.Logger, to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil {
		return nil, err
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed", zap.String("upstream", to), zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}
	return rp, nil
}

// New monta o roteador: /api/{markets,wagers,wallet,live}/* -> serviço correspondente, sem o prefixo /api
func New(log *zap.Logger, opts Options) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)
	// O browser manda só o Authorization; X-User-* vêm do proxy de identidade que fica
	// na frente do gateway e autentica o token. Por isso não entram no CORS.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	r.Use(adminHeader(opts.AdminUserIDs))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	routes := map[string]string{
		"markets": opts.Upstreams.Market,
		"wagers":  opts.Upstreams.Wager,
		"wallet":  opts.Upstreams.Wallet,
		"live":    opts.Upstreams.Live,
	}
	for prefix, to := range routes {
		rp, err := proxy(log, to)
		if err != nil {
			return nil, err
		}
		h := http.StripPrefix("/api", rp)
		r.Handle("/api/"+prefix, h)
		r.Handle("/api/"+prefix+"/*", h)
	}
	return r, nil
}

// adminHeader descarta o X-User-Admin enviado pelo cliente e o recalcula pela lista de admins
func adminHeader(admins []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(admins))
	for _, id := range admins {
		set[id] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del(auth.HeaderAdmin)
			if _, ok := set[r.Header.Get(auth.HeaderUserID)]; ok {
				r.Header.Set(auth.HeaderAdmin, "true")
			}
			next.ServeHTTP(w, r)
		})
	}
}
