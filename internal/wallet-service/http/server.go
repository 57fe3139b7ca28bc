package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/ledger"
	"github.com/radieske/cricwin-ledger/internal/shared/auth"
	"github.com/radieske/cricwin-ledger/internal/shared/httpx"
	"github.com/radieske/cricwin-ledger/internal/shared/logger"
	"github.com/radieske/cricwin-ledger/internal/wallet-service/dto"
)

// Service define as operações de carteira usadas pelo handler HTTP
type Service interface {
	EnsureWallet(ctx context.Context, userID, email string) (*ledger.Wallet, error)
	Wallet(ctx context.Context, userID string) (*ledger.Wallet, error)
	History(ctx context.Context, userID string, limit int) ([]ledger.Entry, error)
	Leaderboard(ctx context.Context, limit int) ([]ledger.Wallet, error)
	AdjustUser(ctx context.Context, adminID, userID string, newBalance *decimal.Decimal, isAdmin *bool) (*ledger.Wallet, error)
	RequestRecharge(ctx context.Context, userID, email string, amount decimal.Decimal, reference string) (*ledger.FundingRequest, error)
	RequestWithdrawal(ctx context.Context, userID, email string, amount decimal.Decimal, method ledger.PayoutMethod, details string) (*ledger.FundingRequest, error)
	ResolveFunding(ctx context.Context, requestID string, approve bool) (*ledger.FundingRequest, error)
	ListFunding(ctx context.Context, kind ledger.FundingKind, status ledger.FundingStatus, limit int) ([]ledger.FundingRequest, error)
	ListUserFunding(ctx context.Context, userID string, limit int) ([]ledger.FundingRequest, error)
}

// Server expõe endpoints HTTP de carteira, extrato e funding
type Server struct {
	log *zap.Logger
	svc Service
}

// NewServer instancia o servidor HTTP de wallet
func NewServer(log *zap.Logger, svc Service) *Server { return &Server{log: log, svc: svc} }

// Router retorna as rotas da API de wallet
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware)

	r.Get("/wallet/leaderboard", s.leaderboard)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/wallet/me", s.me)
		r.Get("/wallet/me/history", s.history)
		r.Get("/wallet/me/funding", s.myFunding)
		r.Post("/wallet/recharge", s.recharge)
		r.Post("/wallet/withdraw", s.withdraw)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/wallet/funding", s.listFunding)
		r.Post("/wallet/funding/{id}/approve", s.resolve(true))
		r.Post("/wallet/funding/{id}/reject", s.resolve(false))
		r.Get("/wallet/users/{userID}", s.getUser)
		r.Put("/wallet/users/{userID}", s.adjustUser)
	})
	return r
}

// me retorna (ou cria, com bônus inicial) a carteira do usuário autenticado
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	wal, err := s.svc.EnsureWallet(r.Context(), id.UserID, id.Email)
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, wal)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	es, err := s.svc.History(r.Context(), id.UserID, limitParam(r, 100))
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.HistoryResponse{Entries: es})
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	ws, err := s.svc.Leaderboard(r.Context(), limitParam(r, 10))
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.LeaderboardResponse{Wallets: ws})
}

func (s *Server) recharge(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	var req dto.RechargeRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	fr, err := s.svc.RequestRecharge(r.Context(), id.UserID, id.Email, req.Amount, req.Reference)
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, fr)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	var req dto.WithdrawRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	fr, err := s.svc.RequestWithdrawal(r.Context(), id.UserID, id.Email, req.Amount, ledger.PayoutMethod(req.Method), req.Details)
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, fr)
}

func (s *Server) myFunding(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	frs, err := s.svc.ListUserFunding(r.Context(), id.UserID, limitParam(r, 50))
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FundingListResponse{Requests: frs})
}

func (s *Server) listFunding(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	frs, err := s.svc.ListFunding(r.Context(),
		ledger.FundingKind(q.Get("kind")),
		ledger.FundingStatus(q.Get("status")),
		limitParam(r, 100),
	)
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FundingListResponse{Requests: frs})
}

func (s *Server) resolve(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fr, err := s.svc.ResolveFunding(r.Context(), chi.URLParam(r, "id"), approve)
		if err != nil {
			httpx.WriteError(s.log, w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, fr)
	}
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	wal, err := s.svc.Wallet(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, wal)
}

func (s *Server) adjustUser(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.FromContext(r.Context())
	var req dto.AdjustUserRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	wal, err := s.svc.AdjustUser(r.Context(), admin.UserID, chi.URLParam(r, "userID"), req.Balance, req.IsAdmin)
	if err != nil {
		httpx.WriteError(s.log, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, wal)
}

func limitParam(r *http.Request, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		return v
	}
	return def
}
