package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Channel: obrigatório para subscribe/unsubscribe ("markets", "market:<id>", "user:<id>")
type ClientMsg struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// ServerMsg é o que o hub envia: confirmações, erros e eventos
type ServerMsg struct {
	Type    string          `json:"type"` // pong | subscribed | unsubscribed | error | event
	Channel string          `json:"channel,omitempty"`
	Topic   string          `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}
