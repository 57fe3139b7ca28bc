package notifier

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
	"github.com/radieske/cricwin-ledger/pkg/contracts/topics"
)

// ErrUnknownTopic é devolvido para tópicos sem rota
var ErrUnknownTopic = errors.New("unknown topic")

// envelope só com os campos usados para rotear
type envelope struct {
	MarketID string `json:"marketId"`
	UserID   string `json:"userId"`
}

// Route transforma um evento de domínio nos broadcasts por canal.
// Eventos de mercado vão para "markets" e "market:<id>"; apostas e carteira vão só para "user:<id>".
func Route(topic string, value []byte) ([]events.Broadcast, error) {
	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", topic, err)
	}

	var channels []string
	switch topic {
	case topics.MarketUpdated, topics.MarketSettled:
		channels = []string{events.ChannelMarkets, events.MarketChannel(env.MarketID)}
	// wager_placed leva userId e stake, então fica só no canal do apostador
	case topics.WagerPlaced, topics.BalanceChanged, topics.FundingRequested, topics.FundingResolved:
		channels = []string{events.UserChannel(env.UserID)}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	out := make([]events.Broadcast, 0, len(channels))
	for _, ch := range channels {
		out = append(out, events.Broadcast{Channel: ch, Topic: topic, Payload: json.RawMessage(value)})
	}
	return out, nil
}
