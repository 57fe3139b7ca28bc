package events

import "encoding/json"

// Canais de assinatura do live-service
const ChannelMarkets = "markets"

func MarketChannel(marketID string) string { return "market:" + marketID }
func UserChannel(userID string) string     { return "user:" + userID }

// Broadcast é a mensagem publicada no Redis Pub/Sub e repassada aos clientes WebSocket
type Broadcast struct {
	Channel string          `json:"channel"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}
