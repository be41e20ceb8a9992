package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

type client struct {
	room string
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps websocket sessions grouped in per-user rooms.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
	dedup *Deduplicator
	log   *zap.Logger
}

func NewHub(dedup *Deduplicator, log *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*client]struct{}),
		dedup: dedup,
		log:   log,
	}
}

// Emit delivers ev to every recipient room once per dedup window.
func (h *Hub) Emit(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn("realtime encode failed", zap.String("event", ev.Name), zap.Error(err))
		return
	}

	for _, userID := range ev.UserIDs {
		room := UserRoom(userID)
		if !h.dedup.Admit(room, ev) {
			continue
		}

		h.mu.RLock()
		for c := range h.rooms[room] {
			select {
			case c.send <- payload:
			default:
				h.log.Warn("realtime client too slow, dropping event", zap.String("room", room), zap.String("event", ev.Name))
			}
		}
		h.mu.RUnlock()
	}
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.room] == nil {
		h.rooms[c.room] = make(map[*client]struct{})
	}
	h.rooms[c.room][c] = struct{}{}
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[c.room]; ok {
		if _, ok := members[c]; ok {
			delete(members, c)
			close(c.send)
		}
		if len(members) == 0 {
			delete(h.rooms, c.room)
		}
	}
}

// Sessions counts open sessions in a user's room.
func (h *Hub) Sessions(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[UserRoom(userID)])
}

// Attach joins conn to the user's room and pumps until it closes.
func (h *Hub) Attach(conn *websocket.Conn, userID uint) {
	c := &client{
		room: UserRoom(userID),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.join(c)
	h.log.Debug("realtime session joined", zap.String("room", c.room))

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
