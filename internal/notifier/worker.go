// Package notifier consome os eventos de domínio do Kafka e os repassa
// para o Redis Pub/Sub (live-service) e, opcionalmente, para o Telegram do admin.
package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
)

// Reader é satisfeito por *kafka.Reader
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, msg events.Broadcast) error
}

// AdminAlerts recebe todo evento; a implementação decide o que enviar
type AdminAlerts interface {
	Notify(ctx context.Context, topic string, value []byte) error
}

// Worker conecta o consumer Kafka aos destinos de notificação.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Worker struct {
	Log         *zap.Logger
	Reader      Reader
	Broadcaster Broadcaster
	Admin       AdminAlerts // nil = sem alertas

	RetryDelay time.Duration

	OnConsumed  func(topic string)
	OnBroadcast func()
	OnError     func(stage string)
}

// Run consome até o contexto ser cancelado
func (w *Worker) Run(ctx context.Context) error {
	delay := w.RetryDelay
	if delay == 0 {
		delay = 500 * time.Millisecond
	}
	for {
		m, err := w.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.Log.Warn("kafka read failed", zap.Error(err))
			w.fail("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}
		w.Handle(ctx, m.Topic, m.Value)
	}
}

// Handle processa uma mensagem; falhas são logadas e não interrompem o loop
func (w *Worker) Handle(ctx context.Context, topic string, value []byte) {
	if w.OnConsumed != nil {
		w.OnConsumed(topic)
	}

	msgs, err := Route(topic, value)
	if err != nil {
		if errors.Is(err, ErrUnknownTopic) {
			w.Log.Debug("skipping topic", zap.String("topic", topic))
			return
		}
		w.Log.Warn("invalid message", zap.String("topic", topic), zap.Error(err))
		w.fail("decode")
		return
	}

	for _, msg := range msgs {
		if err := w.Broadcaster.Broadcast(ctx, msg); err != nil {
			w.Log.Warn("broadcast failed", zap.String("channel", msg.Channel), zap.Error(err))
			w.fail("broadcast")
			continue
		}
		if w.OnBroadcast != nil {
			w.OnBroadcast()
		}
	}

	if w.Admin != nil {
		if err := w.Admin.Notify(ctx, topic, value); err != nil {
			w.Log.Warn("admin alert failed", zap.String("topic", topic), zap.Error(err))
			w.fail("admin")
		}
	}
}

func (w *Worker) fail(stage string) {
	if w.OnError != nil {
		w.OnError(stage)
	}
}
