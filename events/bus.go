// Package events is the in-process publish/subscribe channel that carries
// incident and dispatch notifications to the real-time hub.
package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"disasterguardian/metrics"
	"disasterguardian/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Wildcard subscribes a handler to every event name.
const Wildcard = "*"

const subscriberBuffer = 64

var ErrClosed = errors.New("event bus closed")

// Audience narrows which connections an event is routed to. An empty
// audience means every subscriber decides for itself.
type Audience struct {
	Roles   []models.Role `json:"roles,omitempty"`
	UserIDs []string      `json:"userIds,omitempty"`
}

// Includes reports whether a connection with the given user and role is
// addressed by the audience.
func (a Audience) Includes(userID string, role models.Role) bool {
	if len(a.Roles) == 0 && len(a.UserIDs) == 0 {
		return true
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	for _, id := range a.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type Event struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Payload     interface{} `json:"payload"`
	Audience    Audience    `json:"audience"`
	Origin      string      `json:"origin"`
	PublishedAt time.Time   `json:"publishedAt"`
}

type Handler func(Event)

// Publisher is what services depend on to announce domain events.
type Publisher interface {
	Publish(ctx context.Context, name string, payload interface{}, audience Audience) error
}

// Forwarder ships locally published events to other instances.
type Forwarder interface {
	Forward(ctx context.Context, ev Event) error
}

type subscription struct {
	event   string
	ch      chan Event
	handler Handler
}

// Bus delivers events to subscribers best-effort: each subscription has a
// buffered channel and a full buffer drops the event for that subscriber.
type Bus struct {
	instanceID string
	subs       map[uint64]*subscription
	nextID     atomic.Uint64
	mu         sync.RWMutex
	wg         sync.WaitGroup
	closed     bool

	forwarder Forwarder
}

func NewBus() *Bus {
	return &Bus{
		instanceID: uuid.NewString(),
		subs:       make(map[uint64]*subscription),
	}
}

// InstanceID identifies this process on the relay channel.
func (b *Bus) InstanceID() string {
	return b.instanceID
}

// SetForwarder attaches a relay. Call before serving traffic.
func (b *Bus) SetForwarder(f Forwarder) {
	b.mu.Lock()
	b.forwarder = f
	b.mu.Unlock()
}

// Subscribe registers handler for the named event (or Wildcard). Each
// subscription runs its handler on its own goroutine, in publish order.
// The returned function unsubscribes; it is safe to call more than once.
func (b *Bus) Subscribe(event string, handler Handler) (unsubscribe func()) {
	sub := &subscription{
		event:   event,
		ch:      make(chan Event, subscriberBuffer),
		handler: handler,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	id := b.nextID.Add(1)
	b.subs[id] = sub
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		for ev := range sub.ch {
			b.dispatch(sub, ev)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Bus) dispatch(sub *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"event": ev.Name,
				"panic": r,
			}).Error("Event handler panicked")
		}
	}()
	sub.handler(ev)
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	if sub, ok := b.subs[id]; ok {
		close(sub.ch)
		delete(b.subs, id)
	}
	b.mu.Unlock()
}

// Publish delivers the event locally and, when a relay is attached, to
// other instances. Relay failures are returned after local delivery.
func (b *Bus) Publish(ctx context.Context, name string, payload interface{}, audience Audience) error {
	ev := Event{
		ID:          uuid.NewString(),
		Name:        name,
		Payload:     payload,
		Audience:    audience,
		Origin:      b.instanceID,
		PublishedAt: time.Now().UTC(),
	}

	if err := b.deliver(ev); err != nil {
		return err
	}
	metrics.EventsPublished.WithLabelValues(name, "local").Inc()

	b.mu.RLock()
	forwarder := b.forwarder
	b.mu.RUnlock()
	if forwarder == nil {
		return nil
	}
	return forwarder.Forward(ctx, ev)
}

// Deliver fans out an event received from another instance.
func (b *Bus) Deliver(ev Event) error {
	if ev.Origin == b.instanceID {
		return nil
	}
	if err := b.deliver(ev); err != nil {
		return err
	}
	metrics.EventsPublished.WithLabelValues(ev.Name, "relay").Inc()
	return nil
}

func (b *Bus) deliver(ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for _, sub := range b.subs {
		if sub.event != Wildcard && sub.event != ev.Name {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			metrics.EventsDropped.WithLabelValues(ev.Name).Inc()
			logrus.WithField("event", ev.Name).Warn("Dropping event for slow subscriber")
		}
	}
	return nil
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close stops every subscription and waits for in-flight handlers.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
	b.mu.Unlock()

	b.wg.Wait()
}
