package events

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	coreevents "github.com/zing-commerce/cart-engine/internal/core/events"
)

var _ coreevents.Publisher = (*RedisBridge)(nil)

// RedisBridge fans cart-changed events out across engine instances over a
// Redis pub/sub channel, the server-side analog of the browser storage event
// that lets a second tab converge. Local and remote events are delivered to
// subscribers identically; delivery is eventual and advisory, with no
// latency bound.
type RedisBridge struct {
	rdb        *redis.Client
	local      *coreevents.Broadcaster
	channel    string
	instanceID string
}

func NewRedisBridge(rdb *redis.Client, local *coreevents.Broadcaster, channel string) *RedisBridge {
	return &RedisBridge{
		rdb:        rdb,
		local:      local,
		channel:    channel,
		instanceID: uuid.NewString(),
	}
}

// Publish delivers locally first (the mutation is already committed by the
// time services publish), then relays to the other instances. A Redis
// failure downgrades the event to local-only.
func (b *RedisBridge) Publish(event coreevents.Event) {
	b.local.Publish(event)

	payload := b.instanceID + "|" + event.Scope
	if err := b.rdb.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		log.Printf("[EVENTS] relay failed, event stays local: %v", err)
	}
}

// Start subscribes to the channel and re-publishes remote events into the
// local broadcaster until ctx is cancelled. Messages this instance sent
// itself are skipped.
func (b *RedisBridge) Start(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)

	go func() {
		defer pubsub.Close()
		log.Printf("[EVENTS] bridge listening on %s", b.channel)

		for {
			select {
			case msg, ok := <-pubsub.Channel():
				if !ok {
					log.Println("[EVENTS] bridge channel closed")
					return
				}
				origin, scope, found := strings.Cut(msg.Payload, "|")
				if !found || origin == b.instanceID {
					continue
				}
				b.local.Publish(coreevents.Event{Scope: scope})
			case <-ctx.Done():
				log.Println("[EVENTS] bridge shutting down")
				return
			}
		}
	}()
}
