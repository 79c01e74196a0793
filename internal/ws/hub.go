package ws

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/chat"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/metrics"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan Event

	ctx    context.Context
	cancel context.CancelFunc
}

// Hub maps each user id to at most one live connection. It is owned by
// the connection handler and injected everywhere a push or a presence
// lookup is needed; nothing here is ever persisted.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]*Client

	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewHub(m *metrics.Metrics, log *zap.Logger) *Hub {
	return &Hub{
		clients: map[uint]*Client{},
		metrics: m,
		log:     log,
	}
}

// Register binds conn as userID's live channel. A prior connection for
// the same user is closed and replaced: last writer wins, one device at
// a time.
func (h *Hub) Register(userID uint, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan Event, 64),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	prev := h.clients[userID]
	h.clients[userID] = c
	h.mu.Unlock()

	if prev != nil {
		prev.close()
	}

	go c.writeLoop()
	go c.keepAliveLoop()

	h.log.Debug("channel registered", zap.Uint("user_id", userID))
	h.broadcastPresence()
	return c
}

// Unregister removes c as its user's live channel, unless a newer
// connection already replaced it.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if h.clients[c.UserID] == c {
		delete(h.clients, c.UserID)
	}
	h.mu.Unlock()

	c.close()
	h.log.Debug("channel unregistered", zap.Uint("user_id", c.UserID))
	h.broadcastPresence()
}

// Deliver pushes ev to userID's live channel. No channel, or a full
// one, drops the event; the recipient catches up on their next roster
// fetch. Delivery raises no error to the caller.
func (h *Hub) Deliver(userID uint, ev Event) {
	h.mu.RLock()
	c := h.clients[userID]
	h.mu.RUnlock()

	if c == nil {
		h.metrics.PushDropped.Inc()
		return
	}
	select {
	case c.Send <- ev:
		h.metrics.PushDelivered.Inc()
	default:
		h.metrics.PushDropped.Inc()
	}
}

// IsOnline reports whether userID holds a live channel.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[userID] != nil
}

// OnlineUserIDs returns the ids with a live channel, ascending.
func (h *Hub) OnlineUserIDs() []uint {
	h.mu.RLock()
	ids := make([]uint, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// broadcastPresence fans the current online set out to every connected
// client after a connect or disconnect.
func (h *Hub) broadcastPresence() {
	ids := h.OnlineUserIDs()
	ev := Event{Type: "presence", Data: ids}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.Send <- ev:
		default:
		}
	}
}

func (c *Client) close() {
	c.cancel()
	_ = c.Conn.Close(websocket.StatusNormalClosure, "bye")
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.Send:
			writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = wsjson.Write(writeCtx, c.Conn, ev)
			cancel()
		}
	}
}

func (c *Client) keepAliveLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.Conn.Ping(pingCtx)
			cancel()
		}
	}
}

// ActivityPusher adapts the hub to the send coordinator's Pusher
// interface, wrapping each activity event in the wire envelope.
type ActivityPusher struct {
	Hub *Hub
}

func (p ActivityPusher) Deliver(userID uint, ev chat.ActivityEvent) {
	p.Hub.Deliver(userID, Event{Type: "activity", Data: ev})
}
