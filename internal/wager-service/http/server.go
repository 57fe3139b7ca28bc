package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/ledger"
	"github.com/radieske/cricwin-ledger/internal/shared/auth"
	"github.com/radieske/cricwin-ledger/internal/shared/httpx"
	"github.com/radieske/cricwin-ledger/internal/shared/logger"
	"github.com/radieske/cricwin-ledger/internal/wager-service/dto"
	"github.com/radieske/cricwin-ledger/internal/wager-service/service"
)

// Service define as operações de aposta usadas pelo handler HTTP
type Service interface {
	PlaceWager(ctx context.Context, in service.PlaceInput) (*service.Placement, error)
	Get(ctx context.Context, id string) (*ledger.Wager, error)
	ListByUser(ctx context.Context, userID string, status ledger.WagerStatus, limit int) ([]ledger.Wager, error)
	ListByMarket(ctx context.Context, marketID string, status ledger.WagerStatus, limit int) ([]ledger.Wager, error)
}

type Server struct {
	log *zap.Logger
	svc Service
}

func NewServer(log *zap.Logger, svc Service) *Server { return &Server{log: log, svc: svc} }

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/wagers", s.placeWager)
		r.Get("/wagers", s.listMine)
		r.Get("/wagers/{id}", s.getWager)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/wagers/by-market/{marketID}", s.listByMarket)
	})
	return r
}

func (s *Server) placeWager(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req dto.PlaceWagerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}

	p, err := s.svc.PlaceWager(r.Context(), service.PlaceInput{
		UserID:    id.UserID,
		UserEmail: id.Email,
		MarketID:  req.MarketID,
		Selection: req.Selection,
		Stake:     req.Amount,
	})
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, dto.PlaceWagerResponse{Wager: p.Wager, NewBalance: p.Balance})
}

// getWager só mostra apostas de outro usuário para admin
func (s *Server) getWager(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	wg, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	if wg.UserID != id.UserID && !id.IsAdmin {
		httpx.WriteError(s.log, w, ledger.ErrWagerNotFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, wg)
}

func (s *Server) listMine(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	status, limit := listParams(r)

	ws, err := s.svc.ListByUser(r.Context(), id.UserID, status, limit)
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.WagerListResponse{Wagers: ws})
}

func (s *Server) listByMarket(w http.ResponseWriter, r *http.Request) {
	status, limit := listParams(r)

	ws, err := s.svc.ListByMarket(r.Context(), chi.URLParam(r, "marketID"), status, limit)
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.WagerListResponse{Wagers: ws})
}

// listParams lê ?status= e ?limit= (default 50)
func listParams(r *http.Request) (ledger.WagerStatus, int) {
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	var status ledger.WagerStatus
	switch st := ledger.WagerStatus(r.URL.Query().Get("status")); st {
	case ledger.WagerPending, ledger.WagerWon, ledger.WagerLost:
		status = st
	}
	return status, limit
}
