package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func brokerList(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// NewWriter cria um writer sem tópico fixo: cada mensagem carrega o seu
func NewWriter(brokers string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokerList(brokers)...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
}

// NewReader consome vários tópicos no mesmo consumer group
func NewReader(brokers string, groupID string, topics ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokerList(brokers),
		GroupID:        groupID,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}

// messageWriter é o subconjunto de *kafka.Writer usado pelo Producer
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Producer serializa eventos em JSON e publica no tópico indicado.
// A chave (ex: marketID, userID) mantém a ordem por entidade dentro da partição.
type Producer struct {
	w   messageWriter
	log *zap.Logger
}

func NewProducer(w messageWriter, log *zap.Logger) *Producer {
	return &Producer{w: w, log: log}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, event any) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("kafka publish failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
