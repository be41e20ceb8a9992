package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/marketplace/internal/metrics"
)

// Publisher is the fan-out contract used by use cases. Publishing never
// fails the caller.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Broker emits every event twice: on Redis pub/sub for other instances and
// straight into the local hub. The hub's deduplicator collapses the copies.
type Broker struct {
	redis *redis.Client
	hub   *Hub
	log   *zap.Logger
}

func NewBroker(client *redis.Client, hub *Hub, log *zap.Logger) *Broker {
	return &Broker{redis: client, hub: hub, log: log}
}

func (b *Broker) Publish(ctx context.Context, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.SentAt.IsZero() {
		ev.SentAt = time.Now().UTC()
	}

	if b.redis != nil {
		if raw, err := json.Marshal(ev); err != nil {
			b.log.Warn("realtime encode failed", zap.String("event", ev.Name), zap.Error(err))
		} else if err := b.redis.Publish(ctx, channelPrefix+ev.Name, raw).Err(); err != nil {
			metrics.IncFanoutFailure("pubsub")
			b.log.Warn("realtime publish failed", zap.String("event", ev.Name), zap.Error(err))
		}
	}

	b.hub.Emit(ev)
}

// Run relays pub/sub events into the local hub until ctx is done.
func (b *Broker) Run(ctx context.Context) {
	if b.redis == nil {
		return
	}

	sub := b.redis.PSubscribe(ctx, channelPattern)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("realtime message unreadable", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if ev.Name == "" {
				ev.Name = strings.TrimPrefix(msg.Channel, channelPrefix)
			}
			b.hub.Emit(ev)
		}
	}
}

var _ Publisher = (*Broker)(nil)
