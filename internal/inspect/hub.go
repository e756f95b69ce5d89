package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/sugar/internal/telemetry"
)

const (
	// sendBuffer is the number of messages queued per watcher. A watcher
	// that falls further behind is disconnected.
	sendBuffer = 32

	writeWait = 5 * time.Second
)

// Message types.
const (
	TypeState  = "state"
	TypeChange = "change"
)

// Message is sent to watchers.
type Message struct {
	Type  string          `json:"type"`
	Store string          `json:"store"`
	State json.RawMessage `json:"state"`
	Prev  json.RawMessage `json:"prev,omitempty"`
}

// hub tracks the connected watchers.
type hub struct {
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newHub(logger *slog.Logger, metrics *telemetry.Metrics, upgrader websocket.Upgrader) *hub {
	return &hub{
		logger:   logger,
		metrics:  metrics,
		upgrader: upgrader,
		clients:  make(map[string]*client),
	}
}

// serve upgrades the request and streams t's changes until the peer goes
// away or the hub closes.
func (h *hub) serve(w http.ResponseWriter, r *http.Request, t Target) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "store", t.Name(), "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	log := h.logger.With("client", c.id, "store", t.Name())

	// Subscribe before the snapshot so no change falls between them. The
	// gate keeps changes behind the snapshot in the queue.
	var gate sync.Mutex
	gate.Lock()
	unsubscribe := t.SubscribeAny(func(state, prev any) {
		msg, err := encode(TypeChange, t.Name(), state, prev)
		if err != nil {
			log.Warn("encode change failed", "error", err)
			return
		}
		gate.Lock()
		c.enqueue(msg)
		gate.Unlock()
	})
	defer unsubscribe()

	snapshot, err := t.MarshalJSON()
	if err == nil {
		var msg []byte
		msg, err = json.Marshal(Message{Type: TypeState, Store: t.Name(), State: snapshot})
		if err == nil {
			c.enqueue(msg)
		}
	}
	gate.Unlock()
	if err != nil {
		log.Warn("encode snapshot failed", "error", err)
		conn.Close()
		return
	}

	h.add(c)
	defer h.remove(c)
	log.Debug("watcher connected")

	go c.writeLoop(log)

	// Keep the connection alive until the client disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	c.close()
	log.Debug("watcher disconnected")
}

func encode(typ, name string, state, prev any) ([]byte, error) {
	s, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	p, err := json.Marshal(prev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: typ, Store: name, State: s, Prev: p})
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.metrics.WatchClients.Inc()
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()
	if ok {
		h.metrics.WatchClients.Dec()
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
}

// enqueue never blocks the store writer that produced msg.
func (c *client) enqueue(msg []byte) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		c.close()
	}
}

func (c *client) writeLoop(log *slog.Logger) {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("write failed", "error", err)
				c.close()
				return
			}
		}
	}
}

// close unblocks the read loop in serve by closing the connection.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
