package ipc

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/logger"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// Elements is the part of the registry the Hub reads.
type Elements interface {
	Current() *registry.WatchSet
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is the websocket endpoint for tracker processes. It broadcasts every
// WatchSet and dispatches inbound gaze events to the navigator.
type Hub struct {
	nav      Navigator
	elements Elements
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates a hub. Register it with the registry as a Publisher and
// mount it as an http.Handler.
func NewHub(nav Navigator, elements Elements) *Hub {
	return &Hub{
		nav:      nav,
		elements: elements,
		upgrader: websocket.Upgrader{
			// Trackers are local processes, not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and serves one tracker until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("ipc-hub")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if err := h.register(c); err != nil {
		log.Error().Err(err).Msg("Failed to greet tracker")
		conn.Close()
		return
	}
	log.Info().Str("remote", r.RemoteAddr).Int("clients", h.Clients()).Msg("Tracker connected")

	go h.writePump(c)
	h.readPump(c)

	h.unregister(c)
	log.Info().Str("remote", r.RemoteAddr).Msg("Tracker disconnected")
}

// register queues the settings and the current WatchSet before the client
// can see any broadcast.
func (h *Hub) register(c *client) error {
	settings, err := Encode(ChannelSettings, SettingsFrom(h.nav.Settings()))
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c.send <- settings
	if ws := h.elements.Current(); ws.ID != "" {
		msg, err := Encode(ChannelElements, ws.Payload())
		if err != nil {
			return err
		}
		c.send <- msg
	}
	h.clients[c] = struct{}{}
	metricClients.Inc()
	return nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		metricClients.Dec()
	}
}

func (h *Hub) readPump(c *client) {
	log := logger.WithComponent("ipc-hub")
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		env, err := Decode(raw)
		if err == nil {
			err = Dispatch(h.nav, env)
		}
		if err != nil {
			metricMessages.WithLabelValues("websocket", "dropped").Inc()
			log.Debug().Err(err).Msg("Dropping tracker message")
			continue
		}
		metricMessages.WithLabelValues("websocket", env.Channel).Inc()
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.WithComponent("ipc-hub").Warn().Err(err).Msg("WebSocket write error")
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// PublishElements broadcasts an eye-elements message. A tracker that cannot
// keep up is disconnected; it gets the current set again on reconnect.
func (h *Hub) PublishElements(p registry.Payload) error {
	msg, err := Encode(ChannelElements, p)
	if err != nil {
		return err
	}
	return h.broadcast(msg)
}

// PublishSettings broadcasts the navigator's current settings.
func (h *Hub) PublishSettings() error {
	msg, err := Encode(ChannelSettings, SettingsFrom(h.nav.Settings()))
	if err != nil {
		return err
	}
	return h.broadcast(msg)
}

func (h *Hub) broadcast(msg []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var dropped int
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			delete(h.clients, c)
			close(c.send)
			metricClients.Dec()
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("disconnected %d slow tracker(s)", dropped)
	}
	return nil
}

// Clients returns the number of connected trackers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every tracker.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		metricClients.Dec()
	}
}
