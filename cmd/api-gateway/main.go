package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/gateway"
	"github.com/radieske/cricwin-ledger/internal/shared/config"
	"github.com/radieske/cricwin-ledger/internal/shared/logger"
	"github.com/radieske/cricwin-ledger/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	h, err := gateway.New(log, gateway.Options{
		Upstreams: gateway.Upstreams{
			Market: cfg.MarketURL,
			Wager:  cfg.WagerURL,
			Wallet: cfg.WalletURL,
			Live:   cfg.LiveURL,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AdminUserIDs:   cfg.AdminUserIDs,
	})
	if err != nil {
		log.Fatal("gateway init", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log, nil)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("api-gateway listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("gateway failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
