package websocket

import (
	"strings"
	"sync"
	"time"

	"disasterguardian/events"
	"disasterguardian/metrics"
	"disasterguardian/models"

	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is announced to clients as the polling fallback for
// events missed while disconnected.
const DefaultPollInterval = 30 * time.Second

// Subscriber is the part of the event bus the hub consumes.
type Subscriber interface {
	Subscribe(event string, handler events.Handler) func()
}

// Hub routes bus events to the connections they address.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Routing rooms by role and by user
	rooms map[string]*Room

	bus          Subscriber
	unsubscribe  func()
	pollInterval time.Duration

	stats hubCounters

	// Mutex for thread safety
	mutex   sync.RWMutex
	stopped bool
}

type hubCounters struct {
	mutex        sync.Mutex
	messagesSent int64
	dropped      int64
	routed       map[string]int
	startedAt    time.Time
}

func NewHub(bus Subscriber, pollInterval time.Duration) *Hub {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Hub{
		clients:      make(map[*Client]bool),
		rooms:        make(map[string]*Room),
		bus:          bus,
		pollInterval: pollInterval,
		stats: hubCounters{
			routed:    make(map[string]int),
			startedAt: time.Now(),
		},
	}
}

// Run subscribes the hub to every event on the bus.
func (h *Hub) Run() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.unsubscribe != nil || h.stopped {
		return
	}
	h.unsubscribe = h.bus.Subscribe(events.Wildcard, h.route)
	logrus.Info("WebSocket hub subscribed to event bus")
}

func (h *Hub) registerClient(client *Client) bool {
	h.mutex.Lock()
	if h.stopped {
		h.mutex.Unlock()
		return false
	}

	h.clients[client] = true
	h.getOrCreateRoom(roleRoom(string(client.role))).AddClient(client)
	h.getOrCreateRoom(userRoom(client.userID)).AddClient(client)
	active := len(h.clients)
	h.mutex.Unlock()

	metrics.WebSocketConnections.Inc()

	client.enqueue(newFrame(models.EventConnected, models.WSConnected{
		ConnectionID:        client.connectionID,
		UserID:              client.userID,
		Role:                client.role,
		PollIntervalSeconds: int(h.pollInterval.Seconds()),
	}))

	logrus.Infof("Client registered: %s as %s (Total: %d)", client.userID, client.role, active)
	return true
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	for _, key := range []string{roleRoom(string(client.role)), userRoom(client.userID)} {
		if room, exists := h.rooms[key]; exists {
			room.RemoveClient(client)
			if room.IsEmpty() {
				delete(h.rooms, key)
			}
		}
	}
	client.close()
	metrics.WebSocketConnections.Dec()

	logrus.Infof("Client unregistered: %s (Total: %d)", client.userID, len(h.clients))
}

func (h *Hub) getOrCreateRoom(key string) *Room {
	if room, exists := h.rooms[key]; exists {
		return room
	}
	room := NewRoom(key)
	h.rooms[key] = room
	return room
}

// route runs on the bus subscription goroutine.
func (h *Hub) route(ev events.Event) {
	frame := models.WSMessage{
		Event:     ev.Name,
		Data:      ev.Payload,
		Timestamp: ev.PublishedAt.UTC(),
	}

	targets := h.targets(ev.Audience)
	for _, c := range targets {
		c.enqueue(frame)
	}

	h.stats.mutex.Lock()
	h.stats.routed[ev.Name] += len(targets)
	h.stats.mutex.Unlock()
}

func (h *Hub) targets(audience events.Audience) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	set := make(map[*Client]bool)
	if len(audience.Roles) == 0 && len(audience.UserIDs) == 0 {
		for c := range h.clients {
			set[c] = true
		}
	}
	for _, role := range audience.Roles {
		if room, ok := h.rooms[roleRoom(string(role))]; ok {
			room.collect(set)
		}
	}
	for _, id := range audience.UserIDs {
		if room, ok := h.rooms[userRoom(id)]; ok {
			room.collect(set)
		}
	}

	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Utility methods
func (h *Hub) IsUserOnline(userID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	room, exists := h.rooms[userRoom(userID)]
	return exists && !room.IsEmpty()
}

func (h *Hub) GetStats() models.HubStats {
	h.mutex.RLock()
	byRole := make(map[models.Role]int)
	users := 0
	for key, room := range h.rooms {
		if role, ok := strings.CutPrefix(key, rolePrefix); ok {
			byRole[models.Role(role)] = room.GetClientCount()
		} else {
			users++
		}
	}
	active := len(h.clients)
	h.mutex.RUnlock()

	h.stats.mutex.Lock()
	defer h.stats.mutex.Unlock()
	routed := make(map[string]int, len(h.stats.routed))
	for k, v := range h.stats.routed {
		routed[k] = v
	}

	return models.HubStats{
		ActiveConnections: active,
		ConnectedUsers:    users,
		ByRole:            byRole,
		MessagesSent:      h.stats.messagesSent,
		MessagesDropped:   h.stats.dropped,
		EventsRouted:      routed,
		StartedAt:         h.stats.startedAt,
	}
}

func (h *Hub) incrementMessagesSent() {
	h.stats.mutex.Lock()
	h.stats.messagesSent++
	h.stats.mutex.Unlock()
}

func (h *Hub) incrementMessagesDropped() {
	h.stats.mutex.Lock()
	h.stats.dropped++
	h.stats.mutex.Unlock()
}

// Shutdown stops routing and closes every connection's send channel; the
// write pumps then send a close frame and exit.
func (h *Hub) Shutdown() {
	h.mutex.Lock()
	if h.stopped {
		h.mutex.Unlock()
		return
	}
	h.stopped = true
	unsubscribe := h.unsubscribe
	for client := range h.clients {
		client.close()
	}
	h.mutex.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	logrus.Info("WebSocket hub shutdown complete")
}
