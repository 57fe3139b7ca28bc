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

	"github.com/radieske/cricwin-ledger/internal/ledger/postgres"
	mcache "github.com/radieske/cricwin-ledger/internal/market-service/cache"
	mhttp "github.com/radieske/cricwin-ledger/internal/market-service/http"
	"github.com/radieske/cricwin-ledger/internal/market-service/service"
	"github.com/radieske/cricwin-ledger/internal/settlement"
	"github.com/radieske/cricwin-ledger/internal/shared/cache"
	"github.com/radieske/cricwin-ledger/internal/shared/config"
	"github.com/radieske/cricwin-ledger/internal/shared/db"
	"github.com/radieske/cricwin-ledger/internal/shared/kafka"
	"github.com/radieske/cricwin-ledger/internal/shared/logger"
	"github.com/radieske/cricwin-ledger/internal/shared/metrics"
)

func main() {
	// carrega config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// conecta com db Postgres e aplica o schema
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	// cache Redis para leitura de mercados
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	// producer Kafka: market_updated, market_settled, balance_changed
	writer := kafka.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()
	producer := kafka.NewProducer(writer, log)

	store := postgres.NewStore(pg)
	ledgerMetrics := metrics.NewLedger(prometheus.DefaultRegisterer)
	engine := settlement.NewEngine(store, producer, ledgerMetrics, log, cfg.Policy.BonusMultiplier)
	svc := service.New(store, mcache.New(redisClient), producer, engine, log)
	api := mhttp.NewAPI(log, svc)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log, metrics.Checks(
		pg.PingContext,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	))

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
