// Package feed streams call bus events to external consumers over
// websockets, e.g. the bot handoff controller or an operator console.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voice-gateway/internal/app/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

// Hub subscribes to the call event bus and fans events out to connected
// websocket clients. A consumer that cannot keep up is disconnected rather
// than allowed to stall delivery.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	sendBuf int
}

func NewHub(sendBuf int) *Hub {
	if sendBuf <= 0 {
		sendBuf = 32
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		sendBuf: sendBuf,
	}
}

// OnEvent is the bus subscriber.
func (h *Hub) OnEvent(e events.Event) {
	msg := encodeEvent(e)

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(msg) {
			log.Warn().Str("module", "adapters.feed").Msg("slow feed consumer, disconnecting")
			h.remove(c)
			c.close()
		}
	}
}

// Handle upgrades the request and keeps the connection until the client
// goes away.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.feed").Msg("websocket upgrade failed")
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, h.sendBuf)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	log.Info().Str("module", "adapters.feed").Msg("feed consumer connected")

	go cl.writePump()

	// Reads are only used to detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(cl)
	cl.close()
	log.Info().Str("module", "adapters.feed").Msg("feed consumer disconnected")
}

func (c *client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
}

// CloseAll disconnects every consumer, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func encodeEvent(e events.Event) []byte {
	m := map[string]any{
		"event":   e.Name(),
		"call_id": string(e.Call()),
	}
	switch ev := e.(type) {
	case events.CallStarted:
		m["room_name"] = string(ev.RoomName)
	case events.CallEnded:
		m["room_name"] = string(ev.RoomName)
		m["reason"] = ev.Reason
	case events.ParticipantJoined:
		m["participant_id"] = ev.ParticipantID
		m["role"] = string(ev.Role)
	case events.ParticipantLeft:
		m["participant_id"] = ev.ParticipantID
		m["role"] = string(ev.Role)
	case events.HandoffRequested:
		m["from"] = string(ev.From)
	case events.HandoffCompleted:
		m["to"] = string(ev.To)
	}
	b, _ := json.Marshal(m)
	return b
}
