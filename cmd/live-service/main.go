package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	lhttp "github.com/radieske/cricwin-ledger/internal/live-service/http"
	"github.com/radieske/cricwin-ledger/internal/live-service/ws"
	"github.com/radieske/cricwin-ledger/internal/shared/cache"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Hub WebSocket alimentado pelo canal Redis do notification-worker
	hub := ws.NewHub(log, lhttp.OriginChecker(cfg.AllowedOrigins))
	if err := ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log); err != nil {
		log.Fatal("redis subscribe", zap.Error(err))
	}

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "live_ws_connections", Help: "conexões WebSocket abertas"},
		func() float64 { return float64(hub.Connections()) },
	))
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           lhttp.Router(hub),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("live-service listening", zap.String("addr", srv.Addr), zap.String("channel", cfg.RedisPubSubChannel))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("live srv", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
