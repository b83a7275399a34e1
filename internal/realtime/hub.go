package realtime

import (
	"github.com/asaskevich/EventBus"
	"github.com/gorilla/websocket"
	"github.com/maxaizer/medhire/internal/domain/events"
	"github.com/maxaizer/medhire/internal/domain/models"
	"github.com/maxaizer/medhire/internal/logger"
	"github.com/maxaizer/medhire/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// UserIDHeader carries the id of the user authenticated by the upstream proxy.
const UserIDHeader = "X-User-ID"

// Hub pushes every stored notification to the open websocket connections of
// its recipient. A user may hold several connections at once.
type Hub struct {
	bus      EventBus.Bus
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}
	closed  bool
}

type notificationMessage struct {
	Type string              `json:"type"`
	Data notificationPayload `json:"data"`
}

type notificationPayload struct {
	ID        int64             `json:"id"`
	Kind      string            `json:"kind"`
	Template  string            `json:"template"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func NewHub(bus EventBus.Bus) (*Hub, error) {
	if bus == nil {
		return nil, errors.New("bus is nil")
	}

	hub := &Hub{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[int64]map[*client]struct{}),
	}

	if err := bus.Subscribe(events.NotificationCreatedTopic, hub.onNotificationCreated); err != nil {
		return nil, errors.Wrap(err, "failed to subscribe to notifications")
	}
	return hub, nil
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.Header.Get(UserIDHeader), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeRealtime).Warnf("websocket upgrade failed: %v", err)
		return
	}

	c := newClient(h, conn, userID)
	if !h.register(c) {
		c.close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Connections returns the number of open connections of the user.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) Stop() {
	if err := h.bus.Unsubscribe(events.NotificationCreatedTopic, h.onNotificationCreated); err != nil {
		log.Warnf("failed to unsubscribe realtime hub: %v", err)
	}

	h.mu.Lock()
	h.closed = true
	var all []*client
	for _, userClients := range h.clients {
		for c := range userClients {
			all = append(all, c)
		}
	}
	h.clients = make(map[int64]map[*client]struct{})
	h.mu.Unlock()

	for _, c := range all {
		c.close()
		metrics.RealtimeConnections.Dec()
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}

	metrics.RealtimeConnections.Inc()
	log.Debugf("realtime client connected, user %d", c.userID)
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	userClients, ok := h.clients[c.userID]
	_, registered := userClients[c]
	if ok && registered {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(h.clients, c.userID)
		}
		metrics.RealtimeConnections.Dec()
	}
	h.mu.Unlock()

	c.close()
}

func (h *Hub) onNotificationCreated(event events.NotificationCreated) {
	message := toMessage(event.Notification)

	h.mu.RLock()
	var slow []*client
	for c := range h.clients[event.Notification.UserID] {
		select {
		case c.send <- message:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeRealtime).
			Warnf("realtime client of user %d is too slow, disconnecting", c.userID)
		h.unregister(c)
	}
}

func toMessage(notification models.Notification) notificationMessage {
	return notificationMessage{
		Type: "notification",
		Data: notificationPayload{
			ID:        notification.ID,
			Kind:      string(notification.Kind),
			Template:  notification.Template,
			Title:     notification.Title,
			Body:      notification.Body,
			Payload:   notification.Payload,
			CreatedAt: notification.CreatedAt,
		},
	}
}
