package feed

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	clientBuffer   = 16
	maxInboundSize = 512
)

// Hub fans feed events out to connected WebSocket clients, each filtered to
// a single series. Slow clients are dropped rather than back-pressured; a
// missed event only costs the client one re-fetch on reconnect.
type Hub struct {
	log *zap.Logger

	mu   sync.RWMutex
	subs map[string]map[string]chan Event // series_id -> subscriber_id -> channel

	upgrader websocket.Upgrader
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[string]map[string]chan Event),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect cross-origin from the site frontend; the API
			// is already public and the feed carries no secrets.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Subscribe registers an event channel for a series and returns its id.
func (h *Hub) Subscribe(seriesID string) (string, chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, clientBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[seriesID] == nil {
		h.subs[seriesID] = make(map[string]chan Event)
	}
	h.subs[seriesID][id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(seriesID, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if chans, ok := h.subs[seriesID]; ok {
		if ch, ok := chans[id]; ok {
			delete(chans, id)
			close(ch)
		}
		if len(chans) == 0 {
			delete(h.subs, seriesID)
		}
	}
}

// Broadcast delivers an event to every subscriber of its series.
// Full client buffers are skipped.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[ev.SeriesID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// AttachNATS bridges the feed.> subjects into the hub. The returned stop
// function drains the subscription.
func (h *Hub) AttachNATS(nc *nats.Conn) (func(), error) {
	sub, err := nc.Subscribe("feed.>", func(m *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			h.log.Warn("feed: invalid event payload", zap.String("subject", m.Subject), zap.Error(err))
			return
		}
		h.Broadcast(ev)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Drain() }, nil
}

// Handler upgrades GET /v1/feed?series_id= to a WebSocket and pushes
// invalidation events until the client disconnects.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seriesID := strings.TrimSpace(r.URL.Query().Get("series_id"))
		if seriesID == "" {
			http.Error(w, "series_id is required", http.StatusBadRequest)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("feed: upgrade failed", zap.Error(err))
			return
		}

		id, ch := h.Subscribe(seriesID)
		defer h.Unsubscribe(seriesID, id)

		done := make(chan struct{})
		go h.readLoop(conn, done)
		h.writeLoop(conn, ch, done)
	}
}

// readLoop discards inbound frames; it exists to surface close frames and
// keep the pong handler serviced.
func (h *Hub) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, ch <-chan Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer func() { _ = conn.Close() }()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
