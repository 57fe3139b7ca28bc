package ws

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/shared/auth"
	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
)

const writeWait = 5 * time.Second

// client serializa as escritas: gorilla/websocket aceita um único writer por vez
type client struct {
	conn   *websocket.Conn
	userID string
	wmu    sync.Mutex
}

func (c *client) send(msg ServerMsg) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// Hub gerencia conexões WebSocket e assinaturas por canal
// subs: mapeia canal para o conjunto de clientes inscritos
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	subs     map[string]map[*client]struct{}
	conns    int
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[string]map[*client]struct{}),
	}
}

// Connections retorna o número de conexões abertas
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conns
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket.
// Canais "user:<id>" só aceitam o próprio usuário identificado pelo gateway.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{conn: conn}
	if id, ok := auth.FromContext(r.Context()); ok {
		c.userID = id.UserID
	}

	h.mu.Lock()
	h.conns++
	h.mu.Unlock()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if err := h.subscribe(c, msg.Channel); err != nil {
				_ = c.send(ServerMsg{Type: "error", Channel: msg.Channel, Error: err.Error()})
				continue
			}
			_ = c.send(ServerMsg{Type: "subscribed", Channel: msg.Channel})
		case "unsubscribe":
			h.unsubscribe(c, msg.Channel)
			_ = c.send(ServerMsg{Type: "unsubscribed", Channel: msg.Channel})
		case "ping":
			_ = c.send(ServerMsg{Type: "pong"})
		default:
			_ = c.send(ServerMsg{Type: "error", Error: "unknown message type"})
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for ch, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, ch)
		}
	}
	h.conns--
	h.mu.Unlock()
}

type subscribeError string

func (e subscribeError) Error() string { return string(e) }

const (
	errChannelRequired = subscribeError("channel required")
	errForbidden       = subscribeError("channel not allowed")
)

func (h *Hub) subscribe(c *client, channel string) error {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return errChannelRequired
	}
	if strings.HasPrefix(channel, "user:") && (c.userID == "" || channel != events.UserChannel(c.userID)) {
		return errForbidden
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[channel]; !ok {
		h.subs[channel] = make(map[*client]struct{})
	}
	h.subs[channel][c] = struct{}{}
	return nil
}

func (h *Hub) unsubscribe(c *client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[channel]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, channel)
		}
	}
}

// Broadcast envia o evento para todos os clientes inscritos no canal
func (h *Hub) Broadcast(b events.Broadcast) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[b.Channel]))
	for c := range h.subs[b.Channel] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	msg := ServerMsg{Type: "event", Channel: b.Channel, Topic: b.Topic, Payload: b.Payload}
	for _, c := range targets {
		if err := c.send(msg); err != nil {
			h.log.Debug("ws write failed", zap.String("channel", b.Channel), zap.Error(err))
		}
	}
}
