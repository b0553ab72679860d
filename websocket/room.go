package websocket

import (
	"sync"
	"time"
)

// Room groups connections that share a routing key: a role
// ("role:volunteer") or a single user ("user:<id>").
type Room struct {
	key     string
	clients map[*Client]bool
	mutex   sync.RWMutex

	lastActivity time.Time
	messagesSent int64
}

const (
	rolePrefix = "role:"
	userPrefix = "user:"
)

func roleRoom(role string) string   { return rolePrefix + role }
func userRoom(userID string) string { return userPrefix + userID }

func NewRoom(key string) *Room {
	return &Room{
		key:          key,
		clients:      make(map[*Client]bool),
		lastActivity: time.Now(),
	}
}

func (r *Room) AddClient(client *Client) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.clients[client] = true
	r.lastActivity = time.Now()
}

func (r *Room) RemoveClient(client *Client) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.clients, client)
}

// collect adds the room's clients to set.
func (r *Room) collect(set map[*Client]bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for c := range r.clients {
		set[c] = true
	}
	r.lastActivity = time.Now()
	r.messagesSent++
}

func (r *Room) IsEmpty() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.clients) == 0
}

func (r *Room) GetClientCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.clients)
}
