package events

import (
	"context"
	"sync"
)

// Publisher é implementado pelo producer Kafka; os serviços só publicam após o commit
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// Published é uma mensagem capturada pelo Recorder
type Published struct {
	Topic string
	Key   string
	Event any
}

// Recorder guarda os eventos em memória; usado em testes e quando o Kafka está desligado
type Recorder struct {
	mu   sync.Mutex
	msgs []Published
}

func (r *Recorder) Publish(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Published{Topic: topic, Key: key, Event: event})
	return nil
}

// Messages devolve uma cópia do que foi publicado, opcionalmente filtrando por tópico
func (r *Recorder) Messages(topic string) []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Published
	for _, m := range r.msgs {
		if topic == "" || m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}
