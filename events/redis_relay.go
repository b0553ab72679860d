package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisRelay mirrors bus events across API instances over Redis pub/sub.
// Each instance publishes what it emits and re-delivers what others emit.
type RedisRelay struct {
	client  *redis.Client
	channel string
	bus     *Bus

	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

func NewRedisRelay(client *redis.Client, channel string, bus *Bus) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		bus:     bus,
	}
}

func (r *RedisRelay) Forward(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.Name, err)
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Start subscribes to the relay channel and attaches the relay to the bus.
func (r *RedisRelay) Start(ctx context.Context) error {
	r.pubsub = r.client.Subscribe(ctx, r.channel)
	if _, err := r.pubsub.Receive(ctx); err != nil {
		r.pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	r.bus.SetForwarder(r)

	r.wg.Add(1)
	go r.run()

	logrus.WithFields(logrus.Fields{
		"channel":  r.channel,
		"instance": r.bus.InstanceID(),
	}).Info("📡 Event relay started")
	return nil
}

func (r *RedisRelay) run() {
	defer r.wg.Done()

	for msg := range r.pubsub.Channel() {
		ev, err := decodeRelayMessage(msg.Payload)
		if err != nil {
			logrus.WithError(err).Warn("Discarding malformed relay message")
			continue
		}
		if err := r.bus.Deliver(ev); err != nil {
			logrus.WithError(err).Debug("Relay delivery skipped")
		}
	}
}

// Stop detaches from the bus and closes the subscription.
func (r *RedisRelay) Stop() {
	r.bus.SetForwarder(nil)
	if r.pubsub != nil {
		r.pubsub.Close()
	}
	r.wg.Wait()
	logrus.Info("Event relay stopped")
}

type relayMessage struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Payload     json.RawMessage `json:"payload"`
	Audience    Audience        `json:"audience"`
	Origin      string          `json:"origin"`
	PublishedAt time.Time       `json:"publishedAt"`
}

// decodeRelayMessage keeps the payload as raw JSON; the hub writes it
// through unchanged.
func decodeRelayMessage(data string) (Event, error) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return Event{}, err
	}
	if msg.Name == "" {
		return Event{}, fmt.Errorf("relay message without event name")
	}
	return Event{
		ID:          msg.ID,
		Name:        msg.Name,
		Payload:     msg.Payload,
		Audience:    msg.Audience,
		Origin:      msg.Origin,
		PublishedAt: msg.PublishedAt,
	}, nil
}
