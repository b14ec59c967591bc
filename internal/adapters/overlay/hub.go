package overlay

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

// Connection es un cliente suscripto a un topic (la ruta del socket).
type Connection struct {
	Topic string
	Send  chan []byte
}

// Hub reparte mensajes por topic. Register y Broadcast se serializan con
// el mismo lock: quien registra con un estado inicial no se pierde un
// broadcast posterior.
type Hub struct {
	mu    sync.Mutex
	conns map[string]map[*Connection]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Connection]struct{})}
}

func (h *Hub) Register(conn *Connection, initial []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[conn.Topic] == nil {
		h.conns[conn.Topic] = make(map[*Connection]struct{})
	}
	h.conns[conn.Topic][conn] = struct{}{}
	if initial != nil {
		conn.Send <- initial
	}
	log.Printf("[overlay] client connected to %s (%d)", conn.Topic, len(h.conns[conn.Topic]))
}

func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.conns[conn.Topic]; ok {
		if _, ok := set[conn]; ok {
			delete(set, conn)
			close(conn.Send)
		}
	}
}

func (h *Hub) Broadcast(topic string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns[topic] {
		select {
		case conn.Send <- data:
		default:
			// buffer lleno: se descarta
		}
	}
}

func (h *Hub) Clients(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[topic])
}

func readPump(h *Hub, ws *websocket.Conn, conn *Connection, onMessage func([]byte)) {
	defer func() {
		h.Unregister(conn)
		ws.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[overlay] websocket error: %v", err)
			}
			return
		}
		if onMessage != nil {
			onMessage(msg)
		}
	}
}

func writePump(ws *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
