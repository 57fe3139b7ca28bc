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
	"github.com/radieske/cricwin-ledger/internal/shared/config"
	"github.com/radieske/cricwin-ledger/internal/shared/db"
	"github.com/radieske/cricwin-ledger/internal/shared/kafka"
	"github.com/radieske/cricwin-ledger/internal/shared/logger"
	"github.com/radieske/cricwin-ledger/internal/shared/metrics"
	whttp "github.com/radieske/cricwin-ledger/internal/wager-service/http"
	"github.com/radieske/cricwin-ledger/internal/wager-service/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Inicializa logger estruturado
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env),
		zap.String("min_stake", cfg.Policy.MinStake.String()), zap.String("max_stake", cfg.Policy.MaxStake.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Conexão com Postgres: aposta e débito na carteira na mesma transação
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	// Kafka producer: wager_placed e balance_changed
	writer := kafka.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()

	svc := service.New(
		postgres.NewStore(pg),
		kafka.NewProducer(writer, log),
		metrics.NewLedger(prometheus.DefaultRegisterer),
		log,
		cfg.Policy,
	)
	api := whttp.NewServer(log, svc)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log, pg.PingContext)

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort, // ex: 8083
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
