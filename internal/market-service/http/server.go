package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/ledger"
	"github.com/radieske/cricwin-ledger/internal/market-service/dto"
	"github.com/radieske/cricwin-ledger/internal/market-service/service"
	"github.com/radieske/cricwin-ledger/internal/settlement"
	"github.com/radieske/cricwin-ledger/internal/shared/auth"
	"github.com/radieske/cricwin-ledger/internal/shared/httpx"
	"github.com/radieske/cricwin-ledger/internal/shared/logger"
)

// Service define as operações de mercado usadas pelo handler HTTP
type Service interface {
	Create(ctx context.Context, in service.CreateInput) (*ledger.Market, error)
	Transition(ctx context.Context, id string, to ledger.MarketStatus) (*ledger.Market, error)
	ToggleBonus(ctx context.Context, id string) (*ledger.Market, error)
	Delete(ctx context.Context, id string) error
	DeclareWinner(ctx context.Context, id, winner string) (*settlement.Result, error)
	Get(ctx context.Context, id string) (*ledger.Market, error)
	List(ctx context.Context, status ledger.MarketStatus) ([]ledger.Market, error)
}

// API expõe a leitura pública de mercados e as operações de admin
type API struct {
	log *zap.Logger
	svc Service
}

func NewAPI(log *zap.Logger, svc Service) *API { return &API{log: log, svc: svc} }

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(a.log))
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware)

	r.Get("/markets", a.listMarkets)
	r.Get("/markets/{id}", a.getMarket)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Post("/markets", a.createMarket)
		r.Post("/markets/{id}/status", a.transition)
		r.Post("/markets/{id}/bonus", a.toggleBonus)
		r.Post("/markets/{id}/winner", a.declareWinner)
		r.Delete("/markets/{id}", a.deleteMarket)
	})
	return r
}

var errUnknownStatus = errors.New("unknown status")

func (a *API) listMarkets(w http.ResponseWriter, r *http.Request) {
	var status ledger.MarketStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st, ok := ledger.ParseMarketStatus(v)
		if !ok {
			httpx.BadRequest(w, errUnknownStatus)
			return
		}
		status = st
	}
	ms, err := a.svc.List(r.Context(), status)
	if err != nil {
		httpx.WriteError(a.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.MarketListResponse{Markets: ms})
}

func (a *API) getMarket(w http.ResponseWriter, r *http.Request) {
	m, err := a.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(a.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

func (a *API) createMarket(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMarketRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	m, err := a.svc.Create(r.Context(), service.CreateInput{
		TeamA:      req.TeamA,
		TeamB:      req.TeamB,
		OddsA:      req.OddsA,
		OddsB:      req.OddsB,
		StartTime:  req.StartTime,
		BonusFlag:  req.BonusFlag,
		Tournament: req.Tournament,
	})
	if err != nil {
		httpx.WriteError(a.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, m)
}

func (a *API) transition(w http.ResponseWriter, r *http.Request) {
	var req dto.TransitionRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	st, ok := ledger.ParseMarketStatus(req.Status)
	if !ok {
		httpx.BadRequest(w, errUnknownStatus)
		return
	}
	m, err := a.svc.Transition(r.Context(), chi.URLParam(r, "id"), st)
	if err != nil {
		httpx.WriteError(a.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

func (a *API) toggleBonus(w http.ResponseWriter, r *http.Request) {
	m, err := a.svc.ToggleBonus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(a.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

func (a *API) declareWinner(w http.ResponseWriter, r *http.Request) {
	var req dto.DeclareWinnerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	res, err := a.svc.DeclareWinner(r.Context(), chi.URLParam(r, "id"), req.Winner)
	if err != nil {
		httpx.WriteError(a.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (a *API) deleteMarket(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(a.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
