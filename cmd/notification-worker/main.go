package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/notifier"
	"github.com/radieske/cricwin-ledger/internal/shared/cache"
	"github.com/radieske/cricwin-ledger/internal/shared/config"
	"github.com/radieske/cricwin-ledger/internal/shared/kafka"
	"github.com/radieske/cricwin-ledger/internal/shared/logger"
	"github.com/radieske/cricwin-ledger/internal/shared/metrics"
	"github.com/radieske/cricwin-ledger/pkg/contracts/topics"
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

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Kafka consumer: todos os tópicos de domínio no consumer group notification-worker
	reader := kafka.NewReader(cfg.KafkaBrokers, "notification-worker", topics.All...)
	defer reader.Close()

	// Métricas Prometheus para monitoramento do worker
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "notifier_messages_consumed_total", Help: "mensagens consumidas por tópico"}, []string{"topic"})
	broadcasts := prometheus.NewCounter(prometheus.CounterOpts{Name: "notifier_broadcasts_total", Help: "mensagens publicadas no Redis Pub/Sub"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "notifier_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, broadcasts, errorsBy)

	w := &notifier.Worker{
		Log:         log,
		Reader:      reader,
		Broadcaster: notifier.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
		OnConsumed:  func(topic string) { consumed.WithLabelValues(topic).Inc() },
		OnBroadcast: func() { broadcasts.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Alertas para o admin no Telegram (opcional)
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Fatal("telegram bot", zap.Error(err))
		}
		w.Admin = notifier.NewTelegramAlerts(bot, cfg.TelegramChatID)
		log.Info("telegram alerts enabled", zap.String("bot", bot.Self.UserName))
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("notification-worker started", zap.Strings("topics", topics.All), zap.String("channel", cfg.RedisPubSubChannel))
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("worker stopped with error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("notification-worker stopped")
}
